package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/siteinspect/internal/photostore"
)

// ErrInvalidKey is returned for keys that resolve outside the base path.
var ErrInvalidKey = errors.New("invalid storage key")

// LocalPhotoStore keeps blobs on disk under basePath. Keys are slash
// separated and double as relative paths.
type LocalPhotoStore struct {
	basePath string
	baseURL  string
}

// NewLocalPhotoStore creates basePath if needed. baseURL prefixes the
// /photos/ route the web server exposes for these blobs.
func NewLocalPhotoStore(basePath, baseURL string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &LocalPhotoStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes to a temp file in the target directory and renames it into
// place, so a key never resolves to a partial blob.
func (s *LocalPhotoStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := path.Join(prefix, uuid.NewString()+photostore.MimeTypeToExt(mimeType))
	filePath, err := s.safeJoin(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), filePath)
	}
	if err != nil {
		if rerr := os.Remove(tmp.Name()); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			slog.Error("failed to remove temp photo", "path", tmp.Name(), "error", rerr)
		}
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return key, nil
}

func (s *LocalPhotoStore) Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(storageKey)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", photostore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, photostore.ExtToMimeType(storageKey), nil
}

// Delete removes the blob and any prefix directories it leaves empty.
func (s *LocalPhotoStore) Delete(ctx context.Context, storageKey string) error {
	filePath, err := s.safeJoin(storageKey)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return photostore.ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	s.pruneEmptyDirs(filepath.Dir(filePath))
	return nil
}

func (s *LocalPhotoStore) pruneEmptyDirs(dir string) {
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return
	}
	for dir != base && strings.HasPrefix(dir, base+string(filepath.Separator)) {
		// Remove fails on non-empty directories, which ends the walk.
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (s *LocalPhotoStore) PublicURL(ctx context.Context, storageKey string) (string, error) {
	if _, err := s.safeJoin(storageKey); err != nil {
		return "", err
	}
	segments := strings.Split(storageKey, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/photos/" + strings.Join(segments, "/"), nil
}

// safeJoin resolves storageKey relative to basePath and rejects directory traversal.
func (s *LocalPhotoStore) safeJoin(storageKey string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(storageKey)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%q escapes the photo directory: %w", storageKey, ErrInvalidKey)
	}
	return absPath, nil
}
