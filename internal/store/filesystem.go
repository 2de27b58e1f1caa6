package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/strip-admin-api/internal/models"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 10 * time.Second
)

// fileIndexStore keeps the index as a flat JSON file. The version token is
// the SHA-256 of the file bytes; writes compare it under an exclusive flock
// so separate processes sharing the file still get compare-and-swap.
type fileIndexStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileIndexStore creates an IndexStore backed by root/indexPath
func NewFileIndexStore(root, indexPath string) IndexStore {
	p := filepath.Join(root, filepath.FromSlash(indexPath))
	return &fileIndexStore{
		path: p,
		lock: flock.New(p + ".lock"),
	}
}

func (s *fileIndexStore) Read(ctx context.Context) (models.StripIndex, VersionToken, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.StripIndex{}, "", fmt.Errorf("index %s: %w", s.path, ErrNotFound)
		}
		return models.StripIndex{}, "", &TransportError{Op: "read index", Err: err}
	}

	idx, err := models.DecodeIndex(data)
	if err != nil {
		return models.StripIndex{}, "", err
	}
	return idx, contentToken(data), nil
}

// Write replaces the index when token matches the file on disk. An empty
// token creates the file and conflicts if it already exists.
func (s *fileIndexStore) Write(ctx context.Context, idx models.StripIndex, token VersionToken, message string) (VersionToken, error) {
	data, err := models.EncodeIndex(idx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return "", &TransportError{Op: "write index", Err: err}
	}

	// flock is per file descriptor, so goroutines sharing this store need mu too
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return "", &TransportError{Op: "lock index", Err: err}
	}
	if !locked {
		return "", &TransportError{Op: "lock index", Err: errors.New("lock not acquired")}
	}
	defer s.lock.Unlock()

	var current VersionToken
	existing, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		current = contentToken(existing)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", &TransportError{Op: "read index", Err: err}
	}

	if current != token {
		return "", fmt.Errorf("index %s: %w", s.path, ErrConflict)
	}

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return "", &TransportError{Op: "write index", Err: err}
	}
	return contentToken(data), nil
}

// fileAssetStore writes media files into a directory
type fileAssetStore struct {
	dir string
}

// NewFileAssetStore creates an AssetStore writing into root/assetDir
func NewFileAssetStore(root, assetDir string) AssetStore {
	return &fileAssetStore{dir: filepath.Join(root, filepath.FromSlash(assetDir))}
}

func (s *fileAssetStore) Put(ctx context.Context, filename string, data []byte, message string) error {
	if err := checkFilename(filename); err != nil {
		return &TransportError{Op: "put asset", Err: err}
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &TransportError{Op: "put asset", Err: err}
	}
	if err := writeFileAtomic(filepath.Join(s.dir, filename), data, 0644); err != nil {
		return &TransportError{Op: "put asset", Err: err}
	}
	return nil
}

func (s *fileAssetStore) Delete(ctx context.Context, filename string, message string) error {
	if err := checkFilename(filename); err != nil {
		return &TransportError{Op: "delete asset", Err: err}
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("asset %s: %w", filename, ErrNotFound)
		}
		return &TransportError{Op: "delete asset", Err: err}
	}
	return nil
}

func contentToken(data []byte) VersionToken {
	sum := sha256.Sum256(data)
	return VersionToken(hex.EncodeToString(sum[:]))
}

func checkFilename(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid asset filename %q", name)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the target directory, syncs it,
// then renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
