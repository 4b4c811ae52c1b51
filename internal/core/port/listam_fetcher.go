package port

import (
	"context"
	"listam-parser-service/internal/core/domain"
)

// ListamFetcherPort - все взаимодействия с сайтом list.am
type ListamFetcherPort interface {
	// FetchLinks возвращает канонические ссылки на объявления со страницы выдачи
	FetchLinks(ctx context.Context, page int) ([]domain.ListingLink, error)
	// FetchDetails загружает страницу объявления, попап с контактами и собирает запись
	FetchDetails(ctx context.Context, link domain.ListingLink) (*domain.HouseListing, error)
}
