package listamfetcher

import (
	"context"
	"fmt"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"
)

// FetchLinks загружает страницу выдачи и возвращает ссылки на объявления
func (a *ListamFetcherAdapter) FetchLinks(ctx context.Context, page int) ([]domain.ListingLink, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "ListamFetcherAdapter(FetchLinks)",
		"page":      page,
	})

	body, err := a.fetchHTML(ctx, a.indexURL(page))
	if err != nil {
		return nil, fmt.Errorf("listam adapter: failed to fetch index page %d: %w", page, err)
	}

	links, err := ExtractItemLinks(body, a.origin)
	if err != nil {
		return nil, fmt.Errorf("listam adapter: page %d: %w", page, err)
	}

	logger.Debug("Item links extracted", port.Fields{"count": len(links)})
	return links, nil
}
