package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCreateJWTToken(t *testing.T) {
	expect := "12345"

	secret := "secret"

	token, err := CreateJWTToken(expect, "jane@example.com", "admin", secret, time.Hour)

	if err != nil {
		t.Fatal(err)
	}

	got := &UserClaims{}

	jwt.ParseWithClaims(token, got, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if got.Id != expect {
		t.Fatalf("expected %s, got %s", expect, got.Id)
	}

	if got.Role != "admin" {
		t.Fatalf("expected admin, got %s", got.Role)
	}

	if got.Purpose != PurposeSession {
		t.Fatalf("expected %s, got %s", PurposeSession, got.Purpose)
	}
}

func TestDecodeJWTToken(t *testing.T) {
	secret := "secret"

	valid, _ := CreateJWTToken("123456789", "jane@example.com", "user", secret, time.Hour)
	expired, _ := CreateJWTToken("123456789", "jane@example.com", "user", secret, -time.Minute)
	reset, _, _ := CreateResetToken("123456789", "jane@example.com", secret)
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &UserClaims{
		Id:      "123456789",
		Purpose: PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		Id:               "123456789",
		Purpose:          PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString([]byte(secret))

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{name: "should decode a valid session token", token: valid, secret: secret},
		{name: "should reject a token signed with another secret", token: valid, secret: "other", wantErr: true},
		{name: "should reject an expired token", token: expired, secret: secret, wantErr: true},
		{name: "should reject a reset token used as a session", token: reset, secret: secret, wantErr: true},
		{name: "should reject unsigned tokens", token: noneAlg, secret: secret, wantErr: true},
		{name: "should reject tokens without expiry", token: noExpiry, secret: secret, wantErr: true},
		{name: "should reject garbage", token: "not-a-token", secret: secret, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJWTToken(tt.token, tt.secret)

			if tt.wantErr {
				if err != ErrInvalidToken {
					t.Fatalf("expected %v, got %v", ErrInvalidToken, err)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got.Id != "123456789" {
				t.Fatalf("expected %s, got %s", "123456789", got.Id)
			}
		})
	}
}

func TestDecodeResetToken(t *testing.T) {
	secret := "secret"

	reset, expiresAt, err := CreateResetToken("42", "jane@example.com", secret)

	if err != nil {
		t.Fatal(err)
	}

	if time.Until(expiresAt) > ResetTokenTTL || time.Until(expiresAt) < ResetTokenTTL-time.Minute {
		t.Fatalf("expected expiry about %v from now, got %v", ResetTokenTTL, time.Until(expiresAt))
	}

	claims, err := DecodeResetToken(reset, secret)

	if err != nil {
		t.Fatal(err)
	}

	if claims.Email != "jane@example.com" {
		t.Fatalf("expected jane@example.com, got %s", claims.Email)
	}

	session, _ := CreateJWTToken("42", "jane@example.com", "user", secret, time.Hour)

	if _, err := DecodeResetToken(session, secret); err != ErrInvalidToken {
		t.Fatalf("expected %v, got %v", ErrInvalidToken, err)
	}

	other, _, _ := CreateResetToken("42", "jane@example.com", secret)

	if other == reset {
		t.Fatal("expected two reset tokens to differ")
	}
}
