package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"exam-bot/internal/app"
)

// LocalStore keeps uploaded media under a directory on disk:
//
//	{dir}/audio/{fileID}.mp3
//	{dir}/images/{fileID}.jpg
//
// The returned reference is that path; it is what gets persisted with the question.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "bot_data"
	}
	for _, sub := range []string{"audio", "images"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir: %w", err)
		}
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, kind app.MediaKind, fileID string, r io.Reader) (string, error) {
	ref, err := s.Ref(kind, fileID)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(ref), ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// Ref computes where a file of the given kind and transport id is stored.
func (s *LocalStore) Ref(kind app.MediaKind, fileID string) (string, error) {
	if fileID == "" || strings.ContainsAny(fileID, `/\`) || fileID == "." || fileID == ".." {
		return "", fmt.Errorf("invalid file id %q", fileID)
	}
	switch kind {
	case app.MediaAudio:
		return filepath.Join(s.dir, "audio", fileID+".mp3"), nil
	case app.MediaImage:
		return filepath.Join(s.dir, "images", fileID+".jpg"), nil
	default:
		return "", fmt.Errorf("unsupported media kind %q", kind)
	}
}

// Exists reports whether ref points at a stored regular file.
func (s *LocalStore) Exists(ref string) bool {
	if ref == "" {
		return false
	}
	info, err := os.Stat(ref)
	if errors.Is(err, fs.ErrNotExist) || err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
