package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	FolderProducts   = "products"
	FolderCategories = "categories"
)

var (
	ErrFileTooLarge   = errors.New("file exceeds maximum allowed size")
	ErrNotAnImage     = errors.New("file is not an image")
	ErrInvalidKey     = errors.New("invalid storage key")
	ErrFileNotFound   = errors.New("file not found")
	ErrInvalidFolder  = errors.New("invalid upload folder")
	ErrPresignUnavail = errors.New("presigned uploads require the s3 driver")
)

// ImageStorage persists validated images under a folder and maps stored keys to public URLs
type ImageStorage interface {
	Save(ctx context.Context, folder string, img *Image) (*StoredFile, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, error)
	URL(key string) string
}

// Presigner is implemented by backends that support direct browser uploads
type Presigner interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*PresignedURLResponse, error)
}

type Image struct {
	OriginalName string
	Data         []byte
	MIME         string
	Ext          string
}

func (i *Image) Size() int64 {
	return int64(len(i.Data))
}

type StoredFile struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	Key          string `json:"-"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

// ReadImage reads at most maxSize bytes and sniffs the content type from the bytes themselves
func ReadImage(r io.Reader, originalName string, maxSize int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, detected.String())
	}

	ext := detected.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(originalName))
	}

	return &Image{
		OriginalName: originalName,
		Data:         data,
		MIME:         detected.String(),
		Ext:          ext,
	}, nil
}

func ValidFolder(folder string) bool {
	return folder == FolderProducts || folder == FolderCategories
}

func newKey(folder, ext string) (string, error) {
	if !ValidFolder(folder) {
		return "", ErrInvalidFolder
	}
	return folder + "/" + uuid.New().String() + ext, nil
}

// cleanKey accepts only <folder>/<file> inside a known folder
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key {
		return "", ErrInvalidKey
	}
	folder, file, ok := strings.Cut(cleaned, "/")
	if !ok || !ValidFolder(folder) || file == "" || strings.Contains(file, "/") || file == "." || file == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func stored(key string, img *Image, url string) *StoredFile {
	return &StoredFile{
		URL:          url,
		Filename:     path.Base(key),
		OriginalName: img.OriginalName,
		Size:         img.Size(),
		Key:          key,
	}
}

func reader(img *Image) io.Reader {
	return bytes.NewReader(img.Data)
}
