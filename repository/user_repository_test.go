package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"ViewTube/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func newMockRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewMySQLUserRepository(db), mock, db
}

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "full_name", "password_hash",
		"avatar_url", "cover_image_url", "refresh_token", "created_at", "updated_at",
	}).AddRow(int64(1), "ada", "a@x.com", "ada lovelace", "$2a$10$hash",
		"http://m/av.png", nil, nil, now, now)
}

func TestCreateUser_DuplicateKeyMapsToErrDuplicateUser(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.CreateUser(context.Background(), &model.User{
		Username: "ada", Email: "a@x.com", FullName: "ada lovelace",
		PasswordHash: "h", AvatarURL: "http://m/av.png",
	})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateUser_ReturnsInsertID(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("ada", "a@x.com", "ada lovelace", "h", "http://m/av.png", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.CreateUser(context.Background(), &model.User{
		Username: "ada", Email: "a@x.com", FullName: "ada lovelace",
		PasswordHash: "h", AvatarURL: "http://m/av.png",
	})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if id != 7 {
		t.Fatalf("want id 7, got %d", id)
	}
}

func TestGetUserByID_NotFoundIsNilNil(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetUserByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestGetUserByUsernameOrEmail(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\? OR email = \\?").
		WithArgs("ada", "a@x.com").
		WillReturnRows(userRows())

	user, err := repo.GetUserByUsernameOrEmail(context.Background(), "ada", "a@x.com")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail error: %v", err)
	}
	if user == nil || user.Username != "ada" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.RefreshToken.Valid {
		t.Fatal("expected absent refresh token")
	}
}

func TestUpdateUserByID_SparsePatch(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	// Only the fields present in the patch may appear in the SET clause.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET full_name = ?, email = ? WHERE id = ?")).
		WithArgs("grace hopper", "g@x.com", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(userRows())

	fullName, email := "grace hopper", "g@x.com"
	_, err := repo.UpdateUserByID(context.Background(), 1, &model.UserPatch{
		FullName: &fullName,
		Email:    &email,
	})
	if err != nil {
		t.Fatalf("UpdateUserByID error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateUserByID_EmptyPatchIsARead(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(userRows())

	user, err := repo.UpdateUserByID(context.Background(), 1, &model.UserPatch{})
	if err != nil {
		t.Fatalf("UpdateUserByID error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user")
	}
}

func TestUpdateRefreshToken_SetAndClear(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	token := "refresh-token-value"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = ? WHERE id = ?")).
		WithArgs(sql.NullString{String: token, Valid: true}, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRefreshToken(context.Background(), 1, &token); err != nil {
		t.Fatalf("UpdateRefreshToken set error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = ? WHERE id = ?")).
		WithArgs(sql.NullString{}, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRefreshToken(context.Background(), 1, nil); err != nil {
		t.Fatalf("UpdateRefreshToken clear error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
