package bcrypt

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const Cost = 12

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), Cost)

	if err != nil {
		return "", fmt.Errorf("error hashing password: %v", err)
	}

	return string(hash), nil
}

// ComparePassword returns an error when input does not match hash. An empty
// hash never matches.
func ComparePassword(input_password, user_password string) error {
	if user_password == "" {
		return fmt.Errorf("password does not match: no password set")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user_password), []byte(input_password)); err != nil {
		return fmt.Errorf("password does not match: %v", err)
	}
	return nil
}
