package filestorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"
)

// LocalImageStorageAdapter складывает изображения в <dir>/<external_id>/<position+1>.webp
type LocalImageStorageAdapter struct {
	dir string
}

func NewLocalImageStorageAdapter(dir string) (*LocalImageStorageAdapter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("images directory cannot be empty")
	}
	return &LocalImageStorageAdapter{dir: dir}, nil
}

// Path возвращает путь файла для позиции (нумерация файлов с единицы)
func (a *LocalImageStorageAdapter) Path(externalID string, position int) string {
	return filepath.Join(a.dir, externalID, strconv.Itoa(position+1)+".webp")
}

func (a *LocalImageStorageAdapter) Save(ctx context.Context, externalID string, position int, data []byte) error {
	if externalID == "" || strings.ContainsAny(externalID, `/\`) || externalID == "." || externalID == ".." {
		return fmt.Errorf("invalid external id %q", externalID)
	}
	if position < 0 {
		return fmt.Errorf("invalid image position %d", position)
	}

	path := a.Path(externalID, position)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	// пишем во временный файл и переименовываем, чтобы не оставлять обрезанных картинок
	tmp, err := os.CreateTemp(filepath.Dir(path), ".img-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close image file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move image into place: %w", err)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Image saved", port.Fields{
		"component":   "LocalImageStorageAdapter",
		"external_id": externalID,
		"path":        path,
		"bytes":       len(data),
	})
	return nil
}
