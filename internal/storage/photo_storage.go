// Package storage сохраняет снимки жалоб в объектное хранилище и
// возвращает их публичные URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey возвращается для ключа, выходящего за пределы хранилища.
var ErrInvalidKey = errors.New("storage: недопустимый ключ объекта")

// ObjectStorage хранит фото жалоб: Put кладёт объект по ключу и
// возвращает публичный URL.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// LocalStorage хранит объекты на диске, URL строится от PUBLIC_MEDIA_URL.
type LocalStorage struct {
	rootPath       string
	publicBaseURL  string
	maxUploadBytes int64
}

// NewLocalStorage создаёт файловое хранилище.
func NewLocalStorage(rootPath, publicBaseURL string, maxUploadMB int64) (*LocalStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &LocalStorage{
		rootPath:       rootPath,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Put атомарно записывает объект через временный файл.
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return "", fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	targetPath := filepath.Join(s.rootPath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	tempPath := targetPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return s.publicBaseURL + "/" + cleanKey, nil
}

// sanitizeKey отклоняет абсолютные пути и выход за корень хранилища.
func sanitizeKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
