package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "bookshelf"

	PurposeSession = "session"
	PurposeReset   = "reset"

	ResetTokenTTL = time.Hour
)

var ErrInvalidToken = errors.New("invalid or expired token")

type UserClaims struct {
	Id      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func CreateJWTToken(id, email, role, secret string, ttl time.Duration) (string, error) {
	return sign(&UserClaims{
		Id:      id,
		Email:   email,
		Role:    role,
		Purpose: PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}, secret)
}

// CreateResetToken mints a single-purpose password reset token. Every token
// carries a random jti so two resets in the same second never collide.
func CreateResetToken(id, email, secret string) (string, time.Time, error) {
	expiresAt := time.Now().Add(ResetTokenTTL)

	token, err := sign(&UserClaims{
		Id:      id,
		Email:   email,
		Purpose: PurposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}, secret)

	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func DecodeJWTToken(token, secret string) (*UserClaims, error) {
	return decode(token, secret, PurposeSession)
}

func DecodeResetToken(token, secret string) (*UserClaims, error) {
	return decode(token, secret, PurposeReset)
}

func sign(claims *UserClaims, secret string) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))

	if err != nil {
		return "", fmt.Errorf("error signing jwt token: %v", err)
	}

	return token, nil
}

func decode(token, secret, purpose string) (*UserClaims, error) {
	claims := &UserClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Purpose != purpose || claims.Id == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
