package http

import (
	"errors"
	"net/http"

	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

// maxAvatarSize bounds avatar uploads to 5 MiB.
const maxAvatarSize = 5 << 20

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+4096)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeValidationError(w, "file exceeds the 5 MiB limit")
			return
		}
		writeValidationError(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationError(w, "file field is required")
		return
	}
	defer file.Close()

	// ParseMultipartForm spills oversized parts to disk instead of
	// failing, so the per-file limit needs its own check.
	if header.Size > maxAvatarSize {
		writeValidationError(w, "file exceeds the 5 MiB limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedAvatarType(contentType) {
		writeValidationError(w, "unsupported image type")
		return
	}

	updated, err := h.service.UpdateAvatar(r.Context(), user.ID, header.Filename, contentType, file, header.Size)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func allowedAvatarType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
