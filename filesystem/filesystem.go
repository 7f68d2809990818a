package filesystem

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrBlobNotFound = fmt.Errorf("filesystem: blob not found")
	ErrInvalidID    = fmt.Errorf("filesystem: invalid blob id")
)

// BlobStore holds file contents keyed by opaque ids. Metadata (names,
// folders, ownership) lives elsewhere; a blob is just bytes.
type BlobStore interface {
	Create(id string) (io.WriteCloser, error)
	Open(id string) (io.ReadCloser, error)
	Path(id string) (string, error)
	Size(id string) (int64, error)
	Remove(id string) error
}

type localBlobStore struct {
	dir    string
	logger *slog.Logger
}

// NewLocal returns a BlobStore writing into dir, creating it if needed.
func NewLocal(dir string, logger *slog.Logger) (BlobStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}
	return &localBlobStore{dir: dir, logger: logger}, nil
}

// path rejects ids that could escape the blob directory.
func (store *localBlobStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", ErrInvalidID
	}
	return filepath.Join(store.dir, id), nil
}

func (store *localBlobStore) Create(id string) (io.WriteCloser, error) {
	path, err := store.path(id)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (store *localBlobStore) Open(id string) (io.ReadCloser, error) {
	path, err := store.path(id)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return file, nil
}

// Path returns the on-disk location of an existing blob, for callers that
// stream the file themselves.
func (store *localBlobStore) Path(id string) (string, error) {
	path, err := store.path(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrBlobNotFound
		}
		return "", err
	}
	return path, nil
}

func (store *localBlobStore) Size(id string) (int64, error) {
	path, err := store.path(id)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrBlobNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

func (store *localBlobStore) Remove(id string) error {
	path, err := store.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		store.logger.Error("removing blob failed", "id", id, "error", err)
		return err
	}
	return nil
}
