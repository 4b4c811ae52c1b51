package listamfetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"listam-parser-service/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	sellerNameSelector    = ".name, .seller-name"
	directPhoneSelector   = `a[href^="tel:"]`
	viberPhoneSelector    = `a[href*="number="]`
	whatsAppPhoneSelector = `a[href^="https://wa.me/"], a[href^="https://api.whatsapp.com/send"]`
)

var whatsAppPrefixes = []string{"https://wa.me/", "https://api.whatsapp.com/send?phone="}

// phoneSet - уже встреченные номера, ключ (канал, нормализованный номер)
type phoneSet map[string]struct{}

func (s phoneSet) add(source domain.PhoneSource, raw string) bool {
	key := string(source) + "|" + normalizePhone(raw)
	if _, seen := s[key]; seen {
		return false
	}
	s[key] = struct{}{}
	return true
}

// ExtractContacts разбирает HTML попапа с контактами.
// Сканы идут в фиксированном порядке: прямой звонок, Viber, WhatsApp.
// Повтор номера внутри одного канала отбрасывается, первое вхождение побеждает.
func ExtractContacts(popupHTML []byte) (domain.ContactInfo, error) {
	var info domain.ContactInfo
	if len(bytes.TrimSpace(popupHTML)) == 0 {
		return info, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(popupHTML))
	if err != nil {
		return info, fmt.Errorf("failed to parse contact popup: %w", err)
	}

	if name, ok := SelectFirst(doc, sellerNameSelector, ""); ok {
		info.SellerName = &name
	}

	seen := make(phoneSet)
	appendPhone := func(source domain.PhoneSource, raw, display string) {
		if normalizePhone(raw) == "" || !seen.add(source, raw) {
			return
		}
		if display == "" {
			display = raw
		}
		info.Phones = append(info.Phones, domain.ContactPhone{Raw: raw, Display: display, Source: source})
	}

	doc.Find(directPhoneSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		raw := compactPhone(strings.TrimPrefix(href, "tel:"))
		display := cleanText(a.Find("span").First().Text())
		appendPhone(domain.PhoneSourceDirect, raw, display)
	})

	doc.Find(viberPhoneSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		raw := strings.TrimPrefix(compactPhone(queryParam(href, "number")), "+")
		appendPhone(domain.PhoneSourceViber, raw, cleanText(a.Text()))
	})

	doc.Find(whatsAppPhoneSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		var raw string
		for _, prefix := range whatsAppPrefixes {
			if strings.HasPrefix(href, prefix) {
				raw = strings.TrimPrefix(href, prefix)
				break
			}
		}
		if i := strings.IndexAny(raw, "?&#"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimPrefix(compactPhone(raw), "+")
		appendPhone(domain.PhoneSourceWhatsApp, raw, cleanText(a.Text()))
	})

	return info, nil
}

// queryParam достает параметр из ссылки вида viber://chat?number=%2B374...
func queryParam(href, name string) string {
	if u, err := url.Parse(href); err == nil {
		if v := u.Query().Get(name); v != "" {
			return v
		}
	}
	idx := strings.Index(href, name+"=")
	if idx < 0 {
		return ""
	}
	v := href[idx+len(name)+1:]
	if i := strings.IndexAny(v, "&#"); i >= 0 {
		v = v[:i]
	}
	if unescaped, err := url.QueryUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// compactPhone убирает разделители, оставляя цифры и ведущий '+'
func compactPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizePhone оставляет только цифры
func normalizePhone(raw string) string {
	return strings.TrimPrefix(compactPhone(raw), "+")
}
