package adapter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

type fileStorage struct {
	root string
}

// NewFileStorage returns a Storage backed by the local filesystem. Keys are
// resolved under root; an empty root means the working directory.
func NewFileStorage(root string) Storage {
	return &fileStorage{root: root}
}

func (s *fileStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *fileStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create directory", goerr.V("path", p))
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create file", goerr.V("path", p))
	}
	return f, nil
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p := s.path(key)
	f, err := os.Open(p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", p))
	}
	return f, nil
}

func (s *fileStorage) Exists(ctx context.Context, key string) (bool, error) {
	p := s.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to stat file", goerr.V("path", p))
	}
	return !info.IsDir(), nil
}
