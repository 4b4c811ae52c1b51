package listamfetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

const itemLinkSelector = `a[href*="/en/item/"]`

// ExtractItemLinks возвращает уникальные канонические ссылки на объявления со страницы выдачи.
// Ссылка собирается заново из id, поэтому /en/item/1, /en/item/1/ и /en/item/1?x=y совпадают.
func ExtractItemLinks(indexHTML []byte, origin string) ([]domain.ListingLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(indexHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index page: %w", err)
	}
	origin = strings.TrimRight(origin, "/")

	seen := make(map[string]struct{})
	var links []domain.ListingLink
	doc.Find(itemLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		href = strings.TrimPrefix(href, origin)
		if !strings.HasPrefix(href, constants.ItemPathPrefix) {
			return
		}
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			href = href[:i]
		}

		externalID, err := ExternalIDFromURL(origin + href)
		if err != nil {
			return
		}
		if _, dup := seen[externalID]; dup {
			return
		}
		seen[externalID] = struct{}{}
		links = append(links, domain.ListingLink{
			URL:        origin + constants.ItemPathPrefix + externalID,
			ExternalID: externalID,
		})
	})

	sort.Slice(links, func(i, j int) bool { return links[i].URL < links[j].URL })
	return links, nil
}

// ExternalIDFromURL извлекает id объявления из пути /en/item/<id>
func ExternalIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidListingURL, err)
	}
	idx := strings.Index(u.Path, constants.ItemPathPrefix)
	if idx < 0 {
		return "", domain.ErrInvalidListingURL
	}
	id := strings.Trim(u.Path[idx+len(constants.ItemPathPrefix):], "/")
	if id == "" || strings.ContainsRune(id, '/') {
		return "", domain.ErrInvalidListingURL
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", domain.ErrInvalidListingURL
		}
	}
	return id, nil
}
