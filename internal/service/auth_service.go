package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parisxmas/OxiDB/OxiWL/internal/auth"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
)

type AuthService struct {
	users     UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(users UserStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type AuthResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, _ := s.users.FindByEmail(ctx, email)
	if existing != nil {
		return nil, ErrEmailTaken
	}
	user, err := s.create(ctx, email, password, name, "user")
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	resp := user.ToResponse()
	return &resp, nil
}

// SeedAdmin creates the admin account unless the email is already taken.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	existing, _ := s.users.FindByEmail(ctx, email)
	if existing != nil {
		return nil
	}
	_, err := s.create(ctx, email, password, "Admin", "admin")
	return err
}

func (s *AuthService) create(ctx context.Context, email, password, name, role string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	id, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(s.jwtSecret, s.tokenTTL, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.ToResponse()}, nil
}
