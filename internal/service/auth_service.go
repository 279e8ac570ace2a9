package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stamp_card/internal/model"
	"stamp_card/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AdminSource provides the current admin credential
type AdminSource interface {
	Admin() model.AdminCredentials
}

// AuthService logs the admin in and checks admin tokens
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Validate(token string) bool
}

type authService struct {
	admins  AdminSource
	jwtUtil *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(admins AdminSource, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		admins:  admins,
		jwtUtil: jwtUtil,
	}
}

// Login checks the credential against the stored admin and returns a signed token
func (s *authService) Login(_ context.Context, username, password string) (string, error) {
	admin := s.admins.Admin()
	if username == "" || username != admin.Username || !utils.CheckPassword(password, admin.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(username)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	log.Printf("INFO: admin %s logged in", username)
	return token, nil
}

// Validate reports whether token is a valid, unexpired token for the current admin
func (s *authService) Validate(token string) bool {
	if token == "" {
		return false
	}
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return false
	}
	return claims.Username == s.admins.Admin().Username
}
