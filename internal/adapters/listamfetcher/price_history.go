package listamfetcher

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

const priceHistoryRowSelector = ".price-history tr, #ph table tr"

var freeTextPriceEntry = regexp.MustCompile(
	`^((?:January|February|March|April|May|June|July|August|September|October|November|December) \d{2}, \d{4})(.*)$`,
)

var priceHistoryDateLayouts = []string{"January 02, 2006", "January 2, 2006"}

// ParseTabularPriceHistory читает строки таблицы истории цен: дата, цена и необязательная разница
func ParseTabularPriceHistory(doc *goquery.Document) []domain.PriceHistoryEntry {
	var entries []domain.PriceHistoryEntry
	doc.Find(priceHistoryRowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		date := cleanText(cells.Eq(0).Text())
		price := cleanText(cells.Eq(1).Text())
		if date == "" || price == "" {
			return
		}
		entry := domain.PriceHistoryEntry{Date: NormalizeHistoryDate(date), Price: price}
		if cells.Length() > 2 {
			if diff := cleanText(cells.Eq(2).Text()); diff != "" {
				entry.Diff = &diff
			}
		}
		entries = append(entries, entry)
	})
	return entries
}

// ParseFreeTextPriceHistory разбирает токены между "Price History" и "Description"
func ParseFreeTextPriceHistory(tokens []string) []domain.PriceHistoryEntry {
	var entries []domain.PriceHistoryEntry
	for _, token := range SectionBetween(tokens, constants.LabelPriceHistory, constants.LabelDescription) {
		if entry, ok := ParsePriceHistoryToken(token); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// ParsePriceHistoryToken разбирает токен вида "September 24, 2025$265,000-$10,000 ▼"
func ParsePriceHistoryToken(token string) (domain.PriceHistoryEntry, bool) {
	m := freeTextPriceEntry.FindStringSubmatch(token)
	if m == nil {
		return domain.PriceHistoryEntry{}, false
	}

	price, diff := splitPriceAndDiff(m[2])
	if price == "" {
		return domain.PriceHistoryEntry{}, false
	}

	entry := domain.PriceHistoryEntry{Date: NormalizeHistoryDate(m[1]), Price: price}
	if diff != "" {
		entry.Diff = &diff
	}
	return entry, true
}

// splitPriceAndDiff делит остаток токена по первому маркеру изменения цены:
// пробел перед '-' или '+', либо '-'/'+' вплотную перед символом валюты.
func splitPriceAndDiff(rest string) (string, string) {
	for i, r := range rest {
		_, size := utf8.DecodeRuneInString(rest[i:])
		next, _ := utf8.DecodeRuneInString(rest[i+size:])
		switch {
		case r == ' ' && (next == '-' || next == '+'):
			return strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+1:])
		case i > 0 && (r == '-' || r == '+') && unicode.Is(unicode.Sc, next):
			return strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i:])
		}
	}
	return strings.TrimSpace(rest), ""
}

// NormalizeHistoryDate переводит "December 07, 2025" в "2025-12-07T00:00:00Z".
// Нераспознанная дата возвращается как есть.
func NormalizeHistoryDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range priceHistoryDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}
