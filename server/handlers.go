package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"ViewTube/config"
	"ViewTube/core/account"
	"ViewTube/core/session"

	"github.com/google/uuid"
)

// APIHandler holds the services behind the HTTP endpoints.
type APIHandler struct {
	sessions *session.Service
	accounts *account.Service
	cfg      *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(sessions *session.Service, accounts *account.Service, cfg *config.Config) *APIHandler {
	return &APIHandler{
		sessions: sessions,
		accounts: accounts,
		cfg:      cfg,
	}
}

// maxUploadSize bounds multipart request memory/disk usage (10 MB).
const maxUploadSize = 10 << 20

// saveMultipartFile writes one uploaded part to the scratch upload dir and
// returns its local path. The caller removes the file when done.
func (h *APIHandler) saveMultipartFile(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.cfg.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	ext := filepath.Ext(header.Filename)
	localPath := filepath.Join(h.cfg.UploadDir, uuid.NewString()+ext)

	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return localPath, nil
}

// formFilePath extracts the named file from the multipart form, saves it to
// scratch and returns the local path. A missing part returns "".
func (h *APIHandler) formFilePath(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()
	return h.saveMultipartFile(file, header)
}
