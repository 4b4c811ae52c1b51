package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxRedirects = 5
	maxBodySize         = 20 << 20
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

type Config struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBase     time.Duration
	RatePerSecond int // <= 0 - без ограничения
	MaxRedirects  int
	UserAgent     string
}

// Response - прочитанный ответ сервера
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client - долгоживущий HTTP-клиент с общим ограничителем частоты и повторами.
// Используется проверкой актуальности и загрузкой изображений.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	retry     RetryPolicy
	userAgent string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("http client timeout must be positive")
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
		limiter:   limiter,
		retry:     RetryPolicy{MaxAttempts: cfg.MaxRetries + 1, BaseDelay: cfg.RetryBase},
		userAgent: cfg.UserAgent,
	}, nil
}

// Get выполняет GET с повторами при сетевых ошибках и ответах 5xx.
// Если все попытки закончились ответом 5xx, возвращается последний ответ без ошибки.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "HTTPClient",
		"url":       url,
	})

	var resp *Response
	err := c.retry.Do(ctx, logger, "GET "+url, func() error {
		resp = nil
		r, err := c.do(ctx, url)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrTooManyRedirects) {
				return Permanent(err)
			}
			return err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("server responded with %d", r.StatusCode)
		}
		return nil
	})
	if err != nil {
		if resp != nil && ctx.Err() == nil {
			logger.Warn("Giving up on server errors", port.Fields{"status": resp.StatusCode})
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

// Download скачивает ресурс одной попыткой и требует ответ 2xx.
// Повторы не выполняются: вызывающий код останавливается на первой ошибке.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, url string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}
