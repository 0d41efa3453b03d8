package auth

import (
	"errors"
	"time"

	"ViewTube/model"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when a token's signature is valid but its
	// expiry has passed.
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenInvalid is returned for any other verification failure.
	ErrTokenInvalid = errors.New("token is invalid")
)

// AccessClaims carries the identity asserted by an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// RefreshClaims carries the minimal payload of a refresh token: the user ID
// and nothing else.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// GenerateAccessToken mints a short-lived signed access token for the user.
func GenerateAccessToken(user *model.User, secret []byte, expiry time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	return token.SignedString(secret)
}

// GenerateRefreshToken mints a long-lived signed refresh token carrying only
// the user ID.
func GenerateRefreshToken(userID int64, secret []byte, expiry time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	})
	return token.SignedString(secret)
}

// ParseAccessToken verifies an access token and returns its claims.
// Expiry and signature failures are distinguishable via ErrTokenExpired
// and ErrTokenInvalid.
func ParseAccessToken(tokenString string, secret []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseInto(tokenString, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func ParseRefreshToken(tokenString string, secret []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseInto(tokenString, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseInto(tokenString string, secret []byte, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
