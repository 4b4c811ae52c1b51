package listamfetcher

import (
	"bytes"
	"context"
	"fmt"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
)

// FetchDetails загружает страницу объявления и попап с контактами и собирает запись.
// Ошибка попапа не роняет объявление: запись сохраняется без контактов.
func (a *ListamFetcherAdapter) FetchDetails(ctx context.Context, link domain.ListingLink) (*domain.HouseListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "ListamFetcherAdapter(FetchDetails)",
		"external_id": link.ExternalID,
	})

	body, err := a.fetchHTML(ctx, link.URL)
	if err != nil {
		return nil, fmt.Errorf("listam adapter: failed to fetch listing %s: %w", link.ExternalID, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("listam adapter: listing %s: %w", link.ExternalID, domain.ErrEmptyDocument)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("listam adapter: failed to parse listing %s: %w", link.ExternalID, err)
	}

	house := assembleFromDocument(doc, link.ExternalID, link.URL)
	house.Images = ResolveImages(doc)

	popup, err := a.fetchHTML(ctx, a.popupURL(link.ExternalID))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Contact popup unavailable, saving listing without contacts", port.Fields{"error": err.Error()})
		return house, nil
	}

	contact, err := ExtractContacts(popup)
	if err != nil {
		logger.Warn("Failed to parse contact popup", port.Fields{"error": err.Error()})
		return house, nil
	}
	house.Contact = contact

	logger.Debug("Listing assembled", port.Fields{
		"phones":        len(house.Contact.Phones),
		"images":        len(house.Images),
		"price_history": len(house.PriceHistory),
	})
	return house, nil
}
