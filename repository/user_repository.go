package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ViewTube/model"

	"github.com/go-sql-driver/mysql"
)

const userColumns = "id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at"

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	UpdateUserByID(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, id int64, token *string) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database. A unique-constraint violation
// on username or email surfaces as ErrDuplicateUser, never a duplicate row.
func (r *mysqlUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, full_name, password_hash, avatar_url, cover_image_url) VALUES (?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.FullName, user.PasswordHash, user.AvatarURL, user.CoverImageURL)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsernameOrEmail retrieves a user matching either the username or
// the email. Serves both the registration duplicate check and login lookup.
func (r *mysqlUserRepository) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ? OR email = ? LIMIT 1"
	row := r.db.QueryRowContext(ctx, query, username, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// UpdateUserByID applies the non-nil fields of patch to the record and
// returns the updated user. An empty patch is a read.
func (r *mysqlUserRepository) UpdateUserByID(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
	if patch == nil || patch.IsEmpty() {
		return r.GetUserByID(ctx, id)
	}

	var sets []string
	var args []interface{}
	if patch.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *patch.FullName)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *patch.PasswordHash)
	}
	if patch.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *patch.AvatarURL)
	}
	if patch.CoverImageURL != nil {
		sets = append(sets, "cover_image_url = ?")
		args = append(args, *patch.CoverImageURL)
	}
	args = append(args, id)

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to execute update user statement: %w", err)
	}

	return r.GetUserByID(ctx, id)
}

// UpdateRefreshToken stores the user's current refresh token, or clears it
// when token is nil. Session state lives in this single column; the write is
// one atomic statement and the last writer wins.
func (r *mysqlUserRepository) UpdateRefreshToken(ctx context.Context, id int64, token *string) error {
	var value sql.NullString
	if token != nil {
		value = sql.NullString{String: *token, Valid: true}
	}
	query := "UPDATE users SET refresh_token = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, value, id); err != nil {
		return fmt.Errorf("failed to execute update refresh token statement: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverImageURL, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
