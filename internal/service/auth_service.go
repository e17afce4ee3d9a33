package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"fleet-service/internal/auth"
	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

type AuthService struct {
	store  storage.Storage
	tokens *auth.Parser
}

func NewAuthService(store storage.Storage, tokens *auth.Parser) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	var fields []FieldError
	if len(input.Username) < 3 {
		fields = append(fields, FieldError{Field: "username", Message: "username must be at least 3 characters"})
	}
	if len(input.Password) < 6 {
		fields = append(fields, FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	if input.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: input.Username,
		Password: string(hash),
		Name:     input.Name,
		Role:     "user",
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error) {
	user, err := s.store.GetUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
