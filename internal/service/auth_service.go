package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/identity"
	"github.com/edulink-id/parent-portal-api/internal/models"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
)

// AuthService fronts the identity provider for the HTTP surface.
type AuthService struct {
	provider  identity.Provider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(provider identity.Provider, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{provider: provider, validator: validate, logger: logger}
}

// SignIn exchanges credentials for a session token.
func (s *AuthService) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign-in payload")
	}
	session, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		UserID:    session.UserID,
		Email:     session.Email,
		FullName:  session.FullName,
	}, nil
}

// SignOut revokes the presented token.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return appErrors.ErrUnauthorized
	}
	return s.provider.SignOut(ctx, token)
}

// Session validates the token and returns the current session.
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return s.provider.Session(ctx, token)
}
