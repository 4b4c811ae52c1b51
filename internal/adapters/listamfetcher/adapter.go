package listamfetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Согласованный с сайтом User-Agent краулера
const DefaultUserAgent = "ListAm-Crawler/1.0 (approved)"

type Config struct {
	BaseURL     string
	ContactURL  string
	Delay       time.Duration
	Parallelism int
	Timeout     time.Duration
	UserAgent   string
}

// ListamFetcherAdapter отвечает за все взаимодействия с list.am
type ListamFetcherAdapter struct {
	// родительский коллектор, его лимиты разделяют все клоны
	collector  *colly.Collector
	baseURL    string
	origin     string
	contactURL *url.URL
}

func NewListamFetcherAdapter(cfg Config) (*ListamFetcherAdapter, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("ListamFetcherAdapter: invalid base URL %q", cfg.BaseURL)
	}
	contact, err := url.Parse(cfg.ContactURL)
	if err != nil || contact.Host == "" {
		return nil, fmt.Errorf("ListamFetcherAdapter: invalid contact URL %q", cfg.ContactURL)
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname(), contact.Hostname()),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	// Пауза после каждого исходящего запроса, общая для всех воркеров
	err = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
	})
	if err != nil {
		return nil, fmt.Errorf("ListamFetcherAdapter: failed to set limit rule: %w", err)
	}

	return &ListamFetcherAdapter{
		collector:  c,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		origin:     base.Scheme + "://" + base.Host,
		contactURL: contact,
	}, nil
}

// fetchHTML загружает страницу через одноразовый клон коллектора
func (a *ListamFetcherAdapter) fetchHTML(ctx context.Context, targetURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "ListamFetcherAdapter",
		"url":       targetURL,
	})

	collector := a.collector.Clone()
	extensions.Referer(collector)

	var body []byte
	var responseErr error

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		logger.Debug("Making request", nil)
	})

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		logger.Warn("Request failed", port.Fields{"status": r.StatusCode, "error": err.Error()})
		responseErr = fmt.Errorf("request to %s failed with status %d: %w", targetURL, r.StatusCode, err)
	})

	if err := collector.Visit(targetURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", targetURL, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if responseErr != nil {
		return nil, responseErr
	}
	return body, nil
}

func (a *ListamFetcherAdapter) indexURL(page int) string {
	return fmt.Sprintf("%s/%d", a.baseURL, page)
}

func (a *ListamFetcherAdapter) popupURL(externalID string) string {
	u := *a.contactURL
	q := u.Query()
	q.Set(constants.ContactPopupItemParam, externalID)
	q.Set(constants.ContactPopupRTTParam, "1")
	u.RawQuery = q.Encode()
	return u.String()
}
