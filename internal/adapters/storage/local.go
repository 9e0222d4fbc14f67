// internal/adapters/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalStore implements ArtifactStore on the filesystem. It backs the
// worker tests and single-machine deployments that have no object store.
type LocalStore struct {
	basePath string
	logger   *slog.Logger
}

// NewLocalStore creates a filesystem-backed artifact store rooted at
// basePath.
func NewLocalStore(basePath string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &LocalStore{
		basePath: basePath,
		logger:   logger.With(slog.String("storage", "local")),
	}, nil
}

func (l *LocalStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(l.basePath, cleaned), nil
}

// Upload writes the artifact under the storage root and returns its path.
func (l *LocalStore) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	l.logger.DebugContext(ctx, "artifact written", slog.String("key", key))
	return path, nil
}

// Download reads an artifact back into memory.
func (l *LocalStore) Download(ctx context.Context, key string) ([]byte, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// Delete removes an artifact. Deleting a missing key is not an error.
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// DeleteMultiple removes a batch of artifacts.
func (l *LocalStore) DeleteMultiple(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := l.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// GetPresignedURL returns a file URL. There is no expiry on the
// filesystem, callers only use the result as a fetch location.
func (l *LocalStore) GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(path), nil
}

// List returns every key under a prefix, sorted.
func (l *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	return l.walk(prefix, func(info fs.FileInfo) bool { return true })
}

// ListOlderThan returns keys under a prefix modified before the cutoff.
func (l *LocalStore) ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error) {
	return l.walk(prefix, func(info fs.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

func (l *LocalStore) walk(prefix string, keep func(fs.FileInfo) bool) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if keep(info) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Exists checks whether an artifact is present.
func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
