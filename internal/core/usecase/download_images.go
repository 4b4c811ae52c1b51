package usecase

import (
	"context"
	"fmt"
	"strings"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"
)

// DownloadImagesUseCase скачивает картинки объявления по порядку позиций
type DownloadImagesUseCase struct {
	downloader port.ImageDownloaderPort
	storage    port.ImageStoragePort
}

func NewDownloadImagesUseCase(downloader port.ImageDownloaderPort, storage port.ImageStoragePort) (*DownloadImagesUseCase, error) {
	if downloader == nil || storage == nil {
		return nil, fmt.Errorf("download images: downloader and storage are required")
	}
	return &DownloadImagesUseCase{downloader: downloader, storage: storage}, nil
}

// Execute останавливается на первой ошибке и возвращает число уже сохраненных картинок.
// Повторов на этом уровне нет.
func (uc *DownloadImagesUseCase) Execute(ctx context.Context, house domain.HouseListing) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":    "DownloadImages",
		"external_id": house.ExternalID,
	})

	saved := 0
	for _, img := range house.Images {
		data, err := uc.downloader.Download(ctx, withScheme(img.URL))
		if err != nil {
			return saved, fmt.Errorf("failed to download image %d: %w", img.Position, err)
		}
		if err := uc.storage.Save(ctx, house.ExternalID, img.Position, data); err != nil {
			return saved, fmt.Errorf("failed to store image %d: %w", img.Position, err)
		}
		saved++
	}

	if saved > 0 {
		logger.Debug("Images saved", port.Fields{"count": saved})
	}
	return saved, nil
}

// Ссылки на картинки хранятся без схемы
func withScheme(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + strings.TrimLeft(u, "/")
}
