// Package account implements registration and profile maintenance. These
// flows only need the caller's authenticated identity; session state is the
// session package's business.
package account

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
	"ViewTube/storage"
)

// Folders under which media objects are stored in the bucket.
const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

// RegisterInput carries everything registration needs. The media paths point
// at local scratch files already extracted from the multipart request.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// Service implements account registration and profile mutation flows.
type Service struct {
	users    repository.UserRepository
	history  repository.WatchHistoryRepository
	uploader storage.Uploader
	cfg      *config.Config
}

// NewService constructs an account Service.
func NewService(users repository.UserRepository, history repository.WatchHistoryRepository, uploader storage.Uploader, cfg *config.Config) *Service {
	return &Service{users: users, history: history, uploader: uploader, cfg: cfg}
}

// Register creates a new account. Username and full name are lowercased and
// all fields trimmed before validation; the avatar is mandatory and must be
// uploaded successfully before any record is created.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	fullName := strings.ToLower(strings.TrimSpace(in.FullName))
	email := strings.TrimSpace(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperr.Validation("all fields are required")
	}
	if in.AvatarPath == "" {
		return nil, apperr.Validation("avatar file is required")
	}

	existing, err := s.users.GetUserByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperr.Dependency("failed to check existing user").WithCause(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user with email or username already exists")
	}

	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath, avatarFolder)
	if err != nil {
		return nil, apperr.DependencyStatus(http.StatusBadRequest, "failed to upload avatar").WithCause(err)
	}

	user := &model.User{
		Username:  username,
		Email:     email,
		FullName:  fullName,
		AvatarURL: avatarURL,
	}

	// Cover image is optional; a failed optional upload blocks registration
	// the same way the avatar does, since the client asked for it.
	if in.CoverImagePath != "" {
		coverURL, err := s.uploader.Upload(ctx, in.CoverImagePath, coverFolder)
		if err != nil {
			return nil, apperr.DependencyStatus(http.StatusBadRequest, "failed to upload cover image").WithCause(err)
		}
		user.CoverImageURL.String = coverURL
		user.CoverImageURL.Valid = true
	}

	hash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Dependency("failed to hash password").WithCause(err)
	}
	user.PasswordHash = hash

	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperr.Conflict("user with email or username already exists")
		}
		return nil, apperr.Dependency("failed to create user").WithCause(err)
	}

	created, err := s.users.GetUserByID(ctx, id)
	if err != nil || created == nil {
		return nil, apperr.Dependency("failed to load created user").WithCause(err)
	}

	logger.Info("user registered", logger.Int64("userID", id), logger.String("username", username))
	return created.Public(), nil
}

// ChangePassword re-verifies the current password before accepting a new one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("old and new passwords are required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return apperr.Dependency("failed to look up user").WithCause(err)
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	if !auth.VerifyPassword(oldPassword, user.PasswordHash) {
		return apperr.Validation("invalid old password")
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperr.Dependency("failed to hash password").WithCause(err)
	}

	if _, err := s.users.UpdateUserByID(ctx, userID, &model.UserPatch{PasswordHash: &hash}); err != nil {
		return apperr.Dependency("failed to update password").WithCause(err)
	}

	logger.Info("password changed", logger.Int64("userID", userID))
	return nil
}

// UpdateDetails replaces fullName and email. Both are required.
func (s *Service) UpdateDetails(ctx context.Context, userID int64, fullName, email string) (*model.PublicUser, error) {
	fullName = strings.ToLower(strings.TrimSpace(fullName))
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, apperr.Validation("all fields are required")
	}

	user, err := s.users.UpdateUserByID(ctx, userID, &model.UserPatch{FullName: &fullName, Email: &email})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperr.Conflict("email already in use")
		}
		return nil, apperr.Dependency("failed to update account details").WithCause(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	return user.Public(), nil
}

// UpdateAvatar uploads a replacement avatar and stores its URL. The previous
// object is not deleted.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, localPath string) (*model.PublicUser, error) {
	return s.updateMedia(ctx, userID, localPath, avatarFolder, "avatar file is missing")
}

// UpdateCoverImage uploads a replacement cover image and stores its URL.
func (s *Service) UpdateCoverImage(ctx context.Context, userID int64, localPath string) (*model.PublicUser, error) {
	return s.updateMedia(ctx, userID, localPath, coverFolder, "cover image file is missing")
}

func (s *Service) updateMedia(ctx context.Context, userID int64, localPath, folder, missingMsg string) (*model.PublicUser, error) {
	if localPath == "" {
		return nil, apperr.Validation(missingMsg)
	}

	url, err := s.uploader.Upload(ctx, localPath, folder)
	if err != nil {
		return nil, apperr.DependencyStatus(http.StatusBadRequest, "failed to upload file").WithCause(err)
	}

	patch := &model.UserPatch{}
	if folder == avatarFolder {
		patch.AvatarURL = &url
	} else {
		patch.CoverImageURL = &url
	}

	user, err := s.users.UpdateUserByID(ctx, userID, patch)
	if err != nil {
		return nil, apperr.Dependency("failed to update media url").WithCause(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	return user.Public(), nil
}

// CurrentUser returns the sanitized projection for an authenticated caller.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("failed to look up user").WithCause(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user.Public(), nil
}

// AddWatchEntry appends a video reference to the user's watch history.
func (s *Service) AddWatchEntry(ctx context.Context, userID int64, videoRef string) error {
	videoRef = strings.TrimSpace(videoRef)
	if videoRef == "" {
		return apperr.Validation("video reference is required")
	}
	entry := &model.WatchHistoryEntry{UserID: userID, VideoRef: videoRef}
	if err := s.history.Add(ctx, entry); err != nil {
		return apperr.Dependency("failed to record watch entry").WithCause(err)
	}
	return nil
}

// WatchHistory lists the user's most recent watch entries.
func (s *Service) WatchHistory(ctx context.Context, userID int64, limit int) ([]*model.WatchHistoryEntry, error) {
	entries, err := s.history.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Dependency("failed to load watch history").WithCause(err)
	}
	return entries, nil
}
