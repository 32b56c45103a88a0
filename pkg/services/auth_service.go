package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/forkfeed/forkfeed/pkg/auth"
	"github.com/forkfeed/forkfeed/pkg/cache"
	"github.com/forkfeed/forkfeed/pkg/clients/sendgrid"
	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
)

// verificationTTL bounds how long an emailed code stays valid. Codes live
// in Redis with this TTL, so expiry needs no sweeper.
const verificationTTL = 15 * time.Minute

// TokenPair is an access/refresh token pair issued at login
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the fields needed to create an account
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Surname  string
}

// AuthService implements registration, login, token refresh and the
// password-reset flow.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	codes  cache.Cache
	mailer sendgrid.Mailer
	logger observability.Logger
}

// NewAuthService creates an auth service
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	codes cache.Cache,
	mailer sendgrid.Mailer,
	logger observability.Logger,
) *AuthService {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		codes:  codes,
		mailer: mailer,
		logger: logger,
	}
}

// Register creates an account and signs the new user in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, *TokenPair, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         input.Name,
		Surname:      input.Surname,
		Role:         "USER",
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create account: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Account registered", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, pair, nil
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token into a fresh token pair. The presented
// token must match the one stored for the account, so a stolen token stops
// working as soon as the owner refreshes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil || user.RefreshToken != refreshToken {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// SendVerificationCode emails a short-lived reset code to the account's
// address. To avoid account enumeration, an unknown email succeeds without
// sending anything.
func (s *AuthService) SendVerificationCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		s.logger.Debug("Verification requested for unknown email", map[string]interface{}{})
		return nil
	}

	code, err := randomCode()
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, verificationKey(email), code, verificationTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// VerifyCode checks a code without consuming it, so the client can validate
// before showing the new-password form.
func (s *AuthService) VerifyCode(ctx context.Context, email string, code int) error {
	var stored int
	err := s.codes.Get(ctx, verificationKey(normalizeEmail(email)), &stored)
	if err != nil {
		if err == cache.ErrNotFound {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to load verification code: %w", err)
	}
	if stored != code {
		return ErrInvalidCode
	}
	return nil
}

// ResetPassword consumes a valid code and replaces the account's password
func (s *AuthService) ResetPassword(ctx context.Context, email string, code int, newPassword string) error {
	email = normalizeEmail(email)
	if err := s.VerifyCode(ctx, email, code); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return ErrInvalidCode
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.codes.Delete(ctx, verificationKey(email)); err != nil {
		s.logger.Warn("Failed to clear verification code", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.logger.Info("Password reset", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

// GetProfile returns the account for an authenticated user id
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	user.RefreshToken = refresh
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func verificationKey(email string) string {
	return "verify:" + email
}

// randomCode draws a uniform 6-digit code
func randomCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, fmt.Errorf("failed to generate verification code: %w", err)
	}
	return int(n.Int64()) + 100000, nil
}
