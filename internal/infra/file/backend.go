package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"exam-bot/internal/domain"
)

// Backend stores each collection as <dir>/<collection>.json. Saves go to a temp file
// in the same directory which is then renamed over the target, so readers never see
// a half-written document.
type Backend struct {
	dir string
}

func NewBackend(dir string) (*Backend, error) {
	if dir == "" {
		dir = "bot_data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) Load(_ context.Context, c domain.Collection) ([]byte, error) {
	data, err := os.ReadFile(b.path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Backend) Save(_ context.Context, c domain.Collection, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, string(c)+"-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, b.path(c))
}

func (b *Backend) path(c domain.Collection) string {
	return filepath.Join(b.dir, string(c)+".json")
}
