package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/auth"
	"github.com/clientcare/support-portal/internal/config"
	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/repository"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// AuthService implements phone login with a stubbed OTP flow. SMS delivery
// is out of scope: the issued code is the configured demo code, and when no
// challenge is pending the demo code is accepted directly.
type AuthService struct {
	users      repository.UserRepository
	challenges auth.ChallengeStore
	tokens     *auth.TokenManager
	logger     *zap.Logger
	cfg        config.AuthConfig
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Challenges auth.ChallengeStore
	Logger     *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		challenges: deps.Challenges,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// RequestCode issues a login challenge for the phone. A Redis outage is not
// fatal: Login falls back to accepting the demo code.
func (s *AuthService) RequestCode(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return apperrors.NewValidationError("phone is required", nil)
	}
	if err := s.challenges.Store(ctx, phone, s.cfg.DemoOTP, s.cfg.OTPTTL()); err != nil {
		s.logger.Warn("store otp challenge", zap.String("phone", phone), zap.Error(err))
	}
	return nil
}

// Login verifies the code, provisions the user on first login, and returns
// a session token.
func (s *AuthService) Login(ctx context.Context, phone, code string) (*domain.User, string, time.Time, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("phone is required", nil)
	}

	if err := s.verifyCode(ctx, phone, code); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid code; for demo use " + s.cfg.DemoOTP)
	}

	user, err := s.users.GetOrCreateByPhone(ctx, phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

func (s *AuthService) verifyCode(ctx context.Context, phone, code string) error {
	err := s.challenges.Verify(ctx, phone, code)
	if err == nil {
		return nil
	}
	if errors.Is(err, auth.ErrCodeMismatch) {
		return err
	}
	// No challenge on record (or Redis unreachable): accept the demo code.
	if code == s.cfg.DemoOTP {
		return nil
	}
	return err
}
