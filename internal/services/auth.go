package services

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/auth"
	"insight-flow/backend/internal/logger"
	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/monitoring"
)

const TokenTypeBearer = "bearer"

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenRevoker records revoked token ids until they would have expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

type AuthService interface {
	Login(db *gorm.DB, email, password string) (*TokenResponse, error)
	Refresh(db *gorm.DB, userID uuid.UUID) (*TokenResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type AuthServiceImpl struct {
	users   UserService
	tokens  *auth.TokenManager
	ttl     time.Duration
	revoker TokenRevoker
}

// NewAuthService issues tokens valid for ttl. A nil revoker turns logout
// into a no-op.
func NewAuthService(users UserService, tokens *auth.TokenManager, ttl time.Duration, revoker TokenRevoker) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:   users,
		tokens:  tokens,
		ttl:     ttl,
		revoker: revoker,
	}
}

func (s *AuthServiceImpl) Login(db *gorm.DB, email, password string) (*TokenResponse, error) {
	user, err := s.users.Authenticate(db, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Refresh issues a fresh token for an already authenticated user.
func (s *AuthServiceImpl) Refresh(db *gorm.DB, userID uuid.UUID) (*TokenResponse, error) {
	user, err := s.users.GetUserByID(db, userID)
	if KindOf(err) == KindNotFound {
		return nil, Unauthenticated("user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) issue(user *models.User) (*TokenResponse, error) {
	if !user.IsActive {
		return nil, InvalidArgument("inactive user")
	}
	token, claims, err := s.tokens.Issue(user.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(time.Until(claims.Expiry()).Round(time.Second) / time.Second),
	}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return err
	}
	monitoring.TokensRevokedTotal.Inc()
	log := logger.Get()
	log.Info().Str("user_id", claims.Subject).Str("jti", claims.ID).Msg("token revoked")
	return nil
}
