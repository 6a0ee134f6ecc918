package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/photostore"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP has no signature there and is matched on its RIFF header.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readFormFile reads a multipart file field of at most limit bytes. A
// missing field yields (nil, nil).
func readFormFile(r *http.Request, field string, limit int64, logger *slog.Logger) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v: %w", field, err, domain.ErrInvalidInput)
	}
	defer closeWithLog(file, "upload file", logger)

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", field, limit, domain.ErrInvalidInput)
	}
	return data, nil
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	sectionID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to parse form: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	imageData, err := readFormFile(r, "image", maxPhotoSize, s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if imageData == nil {
		s.writeError(w, r, fmt.Errorf("image file required: %w", domain.ErrInvalidInput))
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		s.writeError(w, r, fmt.Errorf("unsupported image format: %w", domain.ErrInvalidInput))
		return
	}

	photo, err := s.catalog.AddPhoto(r.Context(), sectionID, imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	url, err := s.photoStore.PublicURL(r.Context(), photo.StorageKey)
	if err != nil {
		s.logger.Warn("failed to build photo url", "photo_id", photo.ID, "error", err)
	}
	s.writeJSON(w, http.StatusCreated, photoJSON{ID: photo.ID, URL: url, MimeType: photo.MimeType, CreatedAt: photo.CreatedAt})
}

// handleGetPhoto streams a blob by storage key. Keys are unguessable, which
// is what the local backend's public URLs rely on.
func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	reader, mimeType, err := s.photoStore.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Warn("get photo failed", "storage_key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "storage_key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
