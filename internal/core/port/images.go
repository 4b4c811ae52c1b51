package port

import (
	"context"
)

type ImageDownloaderPort interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type ImageStoragePort interface {
	Save(ctx context.Context, externalID string, position int, data []byte) error
}
