package server

import (
	"encoding/json"
	"net/http"
	"os"

	"ViewTube/cache"
	"ViewTube/logger"
	"ViewTube/model"
)

// CurrentUserHandler returns the caller's sanitized profile, cache-first.
func (h *APIHandler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if cached, err := cache.GetCachedUserProfile(r.Context(), userID); err == nil && cached != nil {
		writeJSON(w, http.StatusOK, cached, "user fetched successfully")
		return
	}

	user, err := h.accounts.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheProfile(r, user)
	writeJSON(w, http.StatusOK, user, "user fetched successfully")
}

// ChangePasswordHandler rehashes the password after re-verifying the old one.
func (h *APIHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{}, "password changed successfully")
}

// UpdateDetailsHandler replaces fullName and email.
func (h *APIHandler) UpdateDetailsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.accounts.UpdateDetails(r.Context(), userID, req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateProfile(r, userID)
	h.cacheProfile(r, user)
	writeJSON(w, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatarHandler replaces the avatar image. The file part is required.
func (h *APIHandler) UpdateAvatarHandler(w http.ResponseWriter, r *http.Request) {
	h.updateMediaHandler(w, r, "avatar", true)
}

// UpdateCoverImageHandler replaces the cover image. A missing file part is
// reported by the service, not the parser.
func (h *APIHandler) UpdateCoverImageHandler(w http.ResponseWriter, r *http.Request) {
	h.updateMediaHandler(w, r, "coverImage", false)
}

func (h *APIHandler) updateMediaHandler(w http.ResponseWriter, r *http.Request, field string, isAvatar bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	localPath, err := h.formFilePath(r, field)
	if err != nil {
		logger.Error("failed to read media upload", logger.String("field", field), logger.ErrorField(err))
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}
	if localPath != "" {
		defer os.Remove(localPath)
	}

	var user *model.PublicUser
	if isAvatar {
		user, err = h.accounts.UpdateAvatar(r.Context(), userID, localPath)
	} else {
		user, err = h.accounts.UpdateCoverImage(r.Context(), userID, localPath)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateProfile(r, userID)
	h.cacheProfile(r, user)
	writeJSON(w, http.StatusOK, user, "image updated successfully")
}

// WatchHistoryHandler lists the caller's most recent watch entries.
func (h *APIHandler) WatchHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.accounts.WatchHistory(r.Context(), userID, 50)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries, "watch history fetched successfully")
}

// AddWatchEntryHandler records a watched video reference.
func (h *APIHandler) AddWatchEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		VideoRef string `json:"videoRef"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.accounts.AddWatchEntry(r.Context(), userID, req.VideoRef); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{}, "watch entry recorded")
}

// Cache writes are best effort: a cold or down Redis never fails a request.

func (h *APIHandler) cacheProfile(r *http.Request, user *model.PublicUser) {
	if cache.RedisClient == nil {
		return
	}
	if err := cache.CacheUserProfile(r.Context(), user); err != nil {
		logger.Warn("failed to cache user profile", logger.ErrorField(err))
	}
}

func (h *APIHandler) invalidateProfile(r *http.Request, userID int64) {
	if cache.RedisClient == nil {
		return
	}
	if err := cache.InvalidateUserProfile(r.Context(), userID); err != nil {
		logger.Warn("failed to invalidate user profile", logger.ErrorField(err))
	}
}
