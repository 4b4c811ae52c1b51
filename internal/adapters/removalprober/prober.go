package removalprober

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"listam-parser-service/internal/adapters/httpclient"
	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
)

type pageGetter interface {
	Get(ctx context.Context, url string) (*httpclient.Response, error)
}

// HTTPRemovalProber решает, снято ли объявление, по ответу сервера
type HTTPRemovalProber struct {
	client   pageGetter
	keywords []string
}

func NewHTTPRemovalProber(client *httpclient.Client) (*HTTPRemovalProber, error) {
	if client == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}
	return newProber(client, constants.RemovalKeywords), nil
}

func newProber(client pageGetter, keywords []string) *HTTPRemovalProber {
	fold := cases.Fold()
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		folded = append(folded, fold.String(k))
	}
	return &HTTPRemovalProber{client: client, keywords: folded}
}

// IsRemoved: 404 - снято, 2xx - живое, иначе ищем ключевые слова в теле.
// Сетевая ошибка возвращается вызывающему; решение о ней принимает use case.
func (p *HTTPRemovalProber) IsRemoved(ctx context.Context, url string) (bool, error) {
	resp, err := p.client.Get(ctx, url)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return true, nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return false, nil
	}

	text, err := decodeBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Failed to decode body, matching raw bytes", port.Fields{
			"component": "HTTPRemovalProber",
			"url":       url,
			"error":     err.Error(),
		})
		text = string(resp.Body)
	}

	return p.containsKeyword(text), nil
}

func (p *HTTPRemovalProber) containsKeyword(text string) bool {
	// Caser хранит состояние, поэтому создается на каждый вызов
	folded := cases.Fold().String(text)
	for _, k := range p.keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

func decodeBody(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
