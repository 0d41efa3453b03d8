package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"ViewTube/core/account"
	"ViewTube/core/auth"
	"ViewTube/logger"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler handles user registration: multipart form with account
// fields plus a required avatar file and an optional cover image.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	avatarPath, err := h.formFilePath(r, "avatar")
	if err != nil {
		logger.Error("[Register] failed to read avatar upload", logger.ErrorField(err))
		http.Error(w, "Failed to read avatar file", http.StatusBadRequest)
		return
	}
	if avatarPath != "" {
		defer os.Remove(avatarPath)
	}

	coverPath, err := h.formFilePath(r, "coverImage")
	if err != nil {
		logger.Error("[Register] failed to read cover upload", logger.ErrorField(err))
		http.Error(w, "Failed to read cover image file", http.StatusBadRequest)
		return
	}
	if coverPath != "" {
		defer os.Remove(coverPath)
	}

	user, err := h.accounts.Register(r.Context(), account.RegisterInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user, "user registered successfully")
}

// LoginHandler verifies credentials and establishes a session. Both tokens
// come back in the body and as HttpOnly cookies.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("[Login] failed to decode request body", logger.ErrorField(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Accept the identifier in either field; "a@b" in username means email.
	username, email := req.Username, req.Email
	if email == "" && strings.Contains(username, "@") {
		email = username
	}

	user, pair, err := h.sessions.Login(r.Context(), username, email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user.Public(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// LogoutHandler clears the stored refresh token and both cookies.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Logout(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{}, "user logged out")
}

// RefreshHandler rotates the refresh token. The incoming token is read from
// the cookie first, then from the JSON body for non-cookie clients.
func (h *APIHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var incoming string
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" && r.Body != nil {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		// Body is optional here; decode errors just leave the token empty.
		_ = json.NewDecoder(r.Body).Decode(&req)
		incoming = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(r.Context(), incoming)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, pair, "access token refreshed")
}

// AuthMiddleware checks for a valid access token in the Authorization header
// or the accessToken cookie and injects the caller's identity into context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tokenString string

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}
			tokenString = parts[1]
		} else if cookie, err := r.Cookie(accessTokenCookie); err == nil {
			tokenString = cookie.Value
		}

		if tokenString == "" {
			http.Error(w, "Authorization is required", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseAccessToken(tokenString, []byte(h.cfg.AccessTokenSecret))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
