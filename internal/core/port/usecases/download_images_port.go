package usecases

import (
	"context"
	"listam-parser-service/internal/core/domain"
)

type DownloadImagesPort interface {
	Execute(ctx context.Context, house domain.HouseListing) (int, error)
}
