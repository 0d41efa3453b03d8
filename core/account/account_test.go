package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ViewTube/config"
	"ViewTube/core/apperr"
	"ViewTube/core/auth"
	"ViewTube/model"
	"ViewTube/repository"

	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}, nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, repository.ErrDuplicateUser
		}
	}
	id := f.nextID
	f.nextID++
	clone := *user
	clone.ID = id
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = time.Now()
	f.users[id] = &clone
	return id, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateUserByID(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	if patch != nil {
		if patch.FullName != nil {
			u.FullName = *patch.FullName
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.PasswordHash != nil {
			u.PasswordHash = *patch.PasswordHash
		}
		if patch.AvatarURL != nil {
			u.AvatarURL = *patch.AvatarURL
		}
		if patch.CoverImageURL != nil {
			u.CoverImageURL.String = *patch.CoverImageURL
			u.CoverImageURL.Valid = true
		}
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) UpdateRefreshToken(ctx context.Context, id int64, token *string) error {
	return nil
}

// fakeUploader returns deterministic URLs, or fails when broken.
type fakeUploader struct {
	broken bool
	calls  int
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, folder string) (string, error) {
	if f.broken {
		return "", errors.New("upload backend unavailable")
	}
	f.calls++
	return fmt.Sprintf("http://media.test/%s/obj-%d", folder, f.calls), nil
}

// fakeHistoryRepo is an in-memory repository.WatchHistoryRepository.
type fakeHistoryRepo struct {
	entries []*model.WatchHistoryEntry
}

func (f *fakeHistoryRepo) Add(ctx context.Context, entry *model.WatchHistoryEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.WatchHistoryEntry, error) {
	var out []*model.WatchHistoryEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) ClearForUser(ctx context.Context, userID int64) error {
	f.entries = nil
	return nil
}

func testConfig() *config.Config {
	return &config.Config{BcryptCost: 4}
}

func newTestService() (*Service, *fakeUserRepo, *fakeUploader, *fakeHistoryRepo) {
	repo := newFakeUserRepo()
	up := &fakeUploader{}
	hist := &fakeHistoryRepo{}
	return NewService(repo, hist, up, testConfig()), repo, up, hist
}

func validInput() RegisterInput {
	return RegisterInput{
		FullName:   "Ada Lovelace",
		Email:      "a@x.com",
		Username:   "Ada",
		Password:   "p1",
		AvatarPath: "/tmp/avatar.png",
	}
}

func TestRegister_Success(t *testing.T) {
	s, repo, _, _ := newTestService()

	user, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "ada", user.Username, "username is lowercased")
	require.Equal(t, "ada lovelace", user.FullName, "full name is lowercased")
	require.NotEmpty(t, user.AvatarURL)

	stored, err := repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotEqual(t, "p1", stored.PasswordHash, "plaintext must never be stored")
	require.True(t, auth.VerifyPassword("p1", stored.PasswordHash))
}

func TestRegister_WithCoverImage(t *testing.T) {
	s, repo, _, _ := newTestService()

	in := validInput()
	in.CoverImagePath = "/tmp/cover.png"

	user, err := s.Register(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, user.CoverImageURL)

	stored, _ := repo.GetUserByID(context.Background(), user.ID)
	require.True(t, stored.CoverImageURL.Valid)
}

func TestRegister_MissingFields(t *testing.T) {
	s, _, _, _ := newTestService()

	for _, mutate := range []func(*RegisterInput){
		func(in *RegisterInput) { in.FullName = "  " },
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Username = "" },
		func(in *RegisterInput) { in.Password = " " },
	} {
		in := validInput()
		mutate(&in)
		_, err := s.Register(context.Background(), in)
		require.Error(t, err)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
}

func TestRegister_MissingAvatar(t *testing.T) {
	s, _, _, _ := newTestService()

	in := validInput()
	in.AvatarPath = ""

	_, err := s.Register(context.Background(), in)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "other@x.com" // same username, different email
	_, err = s.Register(context.Background(), in)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestRegister_UploadFailure(t *testing.T) {
	s, _, up, _ := newTestService()
	up.broken = true

	_, err := s.Register(context.Background(), validInput())
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindDependency))
}

func TestChangePassword(t *testing.T) {
	s, repo, _, _ := newTestService()

	user, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)

	// Wrong old password leaves the hash untouched.
	before, _ := repo.GetUserByID(context.Background(), user.ID)
	err = s.ChangePassword(context.Background(), user.ID, "wrong", "p2")
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	after, _ := repo.GetUserByID(context.Background(), user.ID)
	require.Equal(t, before.PasswordHash, after.PasswordHash)

	// Correct old password rehashes: new verifies, old no longer does.
	require.NoError(t, s.ChangePassword(context.Background(), user.ID, "p1", "p2"))
	stored, _ := repo.GetUserByID(context.Background(), user.ID)
	require.True(t, auth.VerifyPassword("p2", stored.PasswordHash))
	require.False(t, auth.VerifyPassword("p1", stored.PasswordHash))
}

func TestUpdateDetails(t *testing.T) {
	s, _, _, _ := newTestService()

	user, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = s.UpdateDetails(context.Background(), user.ID, "", "a@x.com")
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	updated, err := s.UpdateDetails(context.Background(), user.ID, "Grace Hopper", "g@x.com")
	require.NoError(t, err)
	require.Equal(t, "grace hopper", updated.FullName)
	require.Equal(t, "g@x.com", updated.Email)
}

func TestUpdateAvatar(t *testing.T) {
	s, _, _, _ := newTestService()

	user, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = s.UpdateAvatar(context.Background(), user.ID, "")
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	updated, err := s.UpdateAvatar(context.Background(), user.ID, "/tmp/new.png")
	require.NoError(t, err)
	require.NotEqual(t, user.AvatarURL, updated.AvatarURL)
}

func TestUpdateCoverImage(t *testing.T) {
	s, _, _, _ := newTestService()

	user, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := s.UpdateCoverImage(context.Background(), user.ID, "/tmp/cover.png")
	require.NoError(t, err)
	require.NotEmpty(t, updated.CoverImageURL)
}

func TestCurrentUser_NotFound(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.CurrentUser(context.Background(), 404)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestWatchHistory(t *testing.T) {
	s, _, _, _ := newTestService()

	user, err := s.Register(context.Background(), validInput())
	require.NoError(t, err)

	require.Error(t, s.AddWatchEntry(context.Background(), user.ID, "  "))
	require.NoError(t, s.AddWatchEntry(context.Background(), user.ID, "vid-123"))

	entries, err := s.WatchHistory(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "vid-123", entries[0].VideoRef)
}
