package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes files below Root; they are served by the router at /uploads
type LocalStorage struct {
	Root    string
	BaseURL string
}

func NewLocalStorage(root, publicBaseURL string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	for _, folder := range []string{FolderProducts, FolderCategories} {
		if err := os.MkdirAll(filepath.Join(abs, folder), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
	}
	return &LocalStorage{
		Root:    abs,
		BaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *LocalStorage) Save(ctx context.Context, folder string, img *Image) (*StoredFile, error) {
	key, err := newKey(folder, img.Ext)
	if err != nil {
		return nil, err
	}
	target, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, reader(img)); err != nil {
		f.Close()
		os.Remove(target)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return stored(key, img, s.URL(key)), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	target, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// KeyFromURL accepts absolute or relative URLs containing /uploads/<folder>/<file>
func (s *LocalStorage) KeyFromURL(url string) (string, error) {
	const marker = "/uploads/"
	idx := strings.LastIndex(url, marker)
	if idx < 0 {
		return "", ErrInvalidKey
	}
	rest := url[idx+len(marker):]
	if q := strings.IndexAny(rest, "?#"); q >= 0 {
		rest = rest[:q]
	}
	return cleanKey(rest)
}

func (s *LocalStorage) URL(key string) string {
	return s.BaseURL + "/uploads/" + key
}

func (s *LocalStorage) pathFor(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.Root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.Root, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidKey
	}
	return target, nil
}
