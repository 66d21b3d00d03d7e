package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the token subject issued to the single configured user
const AdminSubject = "admin"

// TokenTTL is the lifetime of tokens issued by Login
const TokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned when a login is rejected
var ErrInvalidCredentials = errors.New("invalid credentials")

// Login checks the password against the configured bcrypt hash and issues a
// signed token
func (s *Service) Login(password string) (string, error) {
	if !s.config.AuthEnabled() || s.config.AdminPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)); err != nil {
		s.log.Warn("Rejected login attempt")
		return "", ErrInvalidCredentials
	}

	// token lifetimes follow the wall clock; s.now only decides "today"
	tokenString, err := IssueToken(s.config.JWTSecret, AdminSubject, time.Now(), TokenTTL)
	if err != nil {
		return "", err
	}
	s.log.Infof("User logged in: %s", AdminSubject)
	return tokenString, nil
}

// IssueToken signs an HS256 token for subject valid for ttl from now
func IssueToken(secret, subject string, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ParseToken verifies an HS256 token and returns its subject
func ParseToken(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return claims.Subject, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
