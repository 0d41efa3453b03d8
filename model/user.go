package model

import (
	"database/sql"
	"time"
)

// User represents a registered account. PasswordHash and RefreshToken are
// never serialized; responses go through PublicUser instead.
type User struct {
	ID            int64          `json:"id"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	FullName      string         `json:"fullName"`
	PasswordHash  string         `json:"-"`
	AvatarURL     string         `json:"avatarUrl"`
	CoverImageURL sql.NullString `json:"-"`
	RefreshToken  sql.NullString `json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// PublicUser is the sanitized projection of a User: everything a client may
// see, with the password hash and the stored refresh token stripped.
type PublicUser struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public returns the sanitized projection of u.
func (u *User) Public() *PublicUser {
	p := &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.CoverImageURL.Valid {
		p.CoverImageURL = u.CoverImageURL.String
	}
	return p
}

// UserPatch is a sparse update of a User. Nil fields are left untouched;
// a non-nil field replaces the stored value. The refresh token is not part
// of the patch: it has its own repository method so session writes stay a
// single-column atomic update.
type UserPatch struct {
	FullName      *string
	Email         *string
	PasswordHash  *string
	AvatarURL     *string
	CoverImageURL *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *UserPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.PasswordHash == nil &&
		p.AvatarURL == nil && p.CoverImageURL == nil
}
