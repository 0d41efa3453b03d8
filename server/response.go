package server

import (
	"encoding/json"
	"net/http"

	"ViewTube/core/apperr"
	"ViewTube/core/session"
	"ViewTube/logger"
)

// apiResponse is the uniform JSON envelope for every endpoint.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Message: message}); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeError maps an error onto the envelope. Structured application errors
// carry their own status and client-safe message; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logger.ErrorField(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(apiResponse{Success: false, Message: apperr.MessageOf(err)}); encErr != nil {
		logger.Error("failed to encode error response", logger.ErrorField(encErr))
	}
}

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setSessionCookies attaches both tokens as HttpOnly secure cookies, so
// browser clients get session continuity while non-cookie clients read the
// same tokens from the body.
func setSessionCookies(w http.ResponseWriter, pair *session.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both session cookies.
func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
