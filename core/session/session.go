// Package session implements the authentication session lifecycle: login,
// refresh-token rotation, and logout. The persisted session state is the
// single refresh_token column on the user record; the newest issued refresh
// token is the only one the store will honor.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ViewTube/config"
	"ViewTube/core/apperr"
	"ViewTube/core/auth"
	"ViewTube/logger"
	"ViewTube/model"
	"ViewTube/repository"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service orchestrates login, refresh and logout over the user store and the
// token issuer. It holds no state of its own; all session state lives on the
// user record.
type Service struct {
	users              repository.UserRepository
	accessTokenSecret  []byte
	refreshTokenSecret []byte
	cfg                *config.Config
}

// NewService constructs a session Service from the user repository and config.
func NewService(users repository.UserRepository, cfg *config.Config) *Service {
	return &Service{
		users:              users,
		accessTokenSecret:  []byte(cfg.AccessTokenSecret),
		refreshTokenSecret: []byte(cfg.RefreshTokenSecret),
		cfg:                cfg,
	}
}

// Login verifies credentials and establishes a session: it mints an
// access/refresh pair and persists the refresh token on the record,
// overwriting any previous one. A user has at most one active session.
func (s *Service) Login(ctx context.Context, username, email, password string) (*model.User, *TokenPair, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" && email == "" {
		return nil, nil, apperr.Validation("username or email is required")
	}

	user, err := s.users.GetUserByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, nil, apperr.Dependency("failed to look up user").WithCause(err)
	}
	if user == nil {
		return nil, nil, apperr.AuthStatus(http.StatusNotFound, "user not found")
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		logger.Warn("login rejected: password mismatch", logger.String("username", user.Username))
		return nil, nil, apperr.Auth("invalid user credentials")
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("user logged in", logger.Int64("userID", user.ID))
	return user, pair, nil
}

// Refresh exchanges a valid, current refresh token for a brand-new pair.
// The presented token must match the stored one exactly: any token superseded
// by a later login or refresh is rejected, which gives each issued refresh
// token one-shot semantics without a revocation list.
func (s *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperr.Auth("unauthorized request")
	}

	claims, err := auth.ParseRefreshToken(presented, s.refreshTokenSecret)
	if err != nil {
		// Signature and expiry failures are deliberately indistinguishable
		// to the caller.
		if !errors.Is(err, auth.ErrTokenExpired) && !errors.Is(err, auth.ErrTokenInvalid) {
			return nil, apperr.Dependency("failed to verify refresh token").WithCause(err)
		}
		return nil, apperr.Auth("invalid refresh token")
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Dependency("failed to look up user").WithCause(err)
	}
	if user == nil {
		return nil, apperr.Auth("invalid refresh token")
	}

	if !user.RefreshToken.Valid || user.RefreshToken.String != presented {
		logger.Warn("refresh rejected: token superseded or cleared", logger.Int64("userID", user.ID))
		return nil, apperr.Auth("refresh token is expired or used")
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("session refreshed", logger.Int64("userID", user.ID))
	return pair, nil
}

// Logout clears the stored refresh token for the user. Clearing an already
// absent token is not an error, so logout is idempotent.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return apperr.Dependency("failed to clear refresh token").WithCause(err)
	}
	logger.Info("user logged out", logger.Int64("userID", userID))
	return nil
}

// issueAndStore mints both tokens and persists the refresh token. Signing
// and store failures propagate as distinct dependency errors rather than a
// single generic message.
func (s *Service) issueAndStore(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := auth.GenerateAccessToken(user, s.accessTokenSecret, s.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, apperr.Dependency("failed to sign access token").WithCause(err)
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, s.refreshTokenSecret, s.cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, apperr.Dependency("failed to sign refresh token").WithCause(err)
	}

	// Single atomic column update; concurrent logins race here and the last
	// writer wins, superseding the other session's refresh token.
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, apperr.Dependency("failed to persist refresh token").WithCause(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
