package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
)

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// JWTConfig defines configuration for the JWT provider.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// JWTProvider implements Provider with HMAC-signed access tokens and bcrypt
// credential checks against the users collection. Sign-out revokes the token
// until its natural expiry.
type JWTProvider struct {
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
	config    JWTConfig

	mu          sync.Mutex
	revoked     map[string]time.Time
	watchers    map[int]func(SessionChange)
	nextWatchID int
}

// NewJWTProvider constructs the provider.
func NewJWTProvider(users userFinder, validate *validator.Validate, logger *zap.Logger, config JWTConfig) *JWTProvider {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &JWTProvider{
		users:     users,
		validator: validate,
		logger:    logger,
		config:    config,
		revoked:   make(map[string]time.Time),
		watchers:  make(map[int]func(SessionChange)),
	}
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SignIn authenticates the parent account and issues a session.
func (p *JWTProvider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if err := p.validator.Struct(credentials{Email: email, Password: password}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	session, err := p.issueSession(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	p.notify(SessionChange{Kind: ChangeSignedIn, Session: *session})
	return session, nil
}

// SignOut revokes the token and notifies session watchers.
func (p *JWTProvider) SignOut(_ context.Context, token string) error {
	claims, err := p.Validate(token)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.revoked[token] = claims.ExpiresAt.Time
	p.sweepLocked()
	p.mu.Unlock()

	p.notify(SessionChange{
		Kind: ChangeSignedOut,
		Session: models.Session{
			UserID:   claims.UserID,
			Email:    claims.Email,
			FullName: claims.FullName,
		},
	})
	return nil
}

// Session resolves the current session behind a token, re-checking that the
// account still exists and is active.
func (p *JWTProvider) Session(ctx context.Context, token string) (*models.Session, error) {
	claims, err := p.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := p.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}
	return &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		IssuedAt:  claims.IssuedAt.Time,
	}, nil
}

// Validate parses and verifies an access token.
func (p *JWTProvider) Validate(token string) (*models.JWTClaims, error) {
	p.mu.Lock()
	_, isRevoked := p.revoked[token]
	p.mu.Unlock()
	if isRevoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session ended")
	}

	claims := &models.JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(p.config.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// WatchSessions registers a session-change callback.
func (p *JWTProvider) WatchSessions(cb func(SessionChange)) Unsubscribe {
	p.mu.Lock()
	p.nextWatchID++
	watchID := p.nextWatchID
	p.watchers[watchID] = cb
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, watchID)
			p.mu.Unlock()
		})
	}
}

func (p *JWTProvider) issueSession(user *models.User) (*models.Session, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.config.Expiration)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.config.Secret))
	if err != nil {
		return nil, err
	}
	return &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Token:     token,
		ExpiresAt: expiresAt,
		IssuedAt:  now,
	}, nil
}

func (p *JWTProvider) notify(change SessionChange) {
	p.mu.Lock()
	callbacks := make([]func(SessionChange), 0, len(p.watchers))
	for _, cb := range p.watchers {
		callbacks = append(callbacks, cb)
	}
	p.mu.Unlock()
	for _, cb := range callbacks {
		cb(change)
	}
}

// sweepLocked drops revocation entries whose tokens have expired anyway.
func (p *JWTProvider) sweepLocked() {
	now := time.Now()
	for token, expiry := range p.revoked {
		if expiry.Before(now) {
			delete(p.revoked, token)
		}
	}
}
