package usecases

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthUsecase guards the operator REST surface with a single password,
// hashed at startup, exchanged for a short-lived HS256 token.
type AuthUsecase struct {
	jwtSecret    []byte
	passwordHash []byte
}

func NewAuthUsecase(secret, adminPassword string) (*AuthUsecase, error) {
	if secret == "" || adminPassword == "" {
		return nil, fmt.Errorf("jwt secret and admin password are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthUsecase{
		jwtSecret:    []byte(secret),
		passwordHash: hashed,
	}, nil
}

func (uc *AuthUsecase) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(uc.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return tokenString, nil
}
