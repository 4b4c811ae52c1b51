package removalprober

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"listam-parser-service/internal/adapters/httpclient"
	"listam-parser-service/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemoved(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        []byte
		want        bool
	}{
		{name: "not found", status: http.StatusNotFound, want: true},
		{name: "ok page", status: http.StatusOK, body: []byte("This ad was removed by owner"), want: false},
		{name: "gone with keyword", status: http.StatusGone, body: []byte("<h1>Listing Removed</h1>"), want: true},
		{name: "forbidden without keyword", status: http.StatusForbidden, body: []byte("<h1>Access denied</h1>"), want: false},
		{name: "server error mentions deleted", status: http.StatusInternalServerError, body: []byte("Item DELETED"), want: true},
		{name: "no longer available", status: http.StatusBadRequest, body: []byte("This offer is No Longer Available."), want: true},
		{
			name:        "latin1 body",
			status:      http.StatusGone,
			contentType: "text/html; charset=iso-8859-1",
			body:        []byte("Caf\xe9: page not found"),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				w.Write(tt.body)
			}))
			defer server.Close()

			client, err := httpclient.NewClient(httpclient.Config{Timeout: time.Second, RetryBase: time.Millisecond})
			require.NoError(t, err)
			prober, err := NewHTTPRemovalProber(client)
			require.NoError(t, err)

			got, err := prober.IsRemoved(context.Background(), server.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type failingGetter struct{}

func (failingGetter) Get(ctx context.Context, url string) (*httpclient.Response, error) {
	return nil, errors.New("connection refused")
}

func TestIsRemoved_NetworkErrorIsReturned(t *testing.T) {
	prober := newProber(failingGetter{}, constants.RemovalKeywords)

	removed, err := prober.IsRemoved(context.Background(), "https://www.list.am/en/item/1")
	assert.Error(t, err)
	assert.False(t, removed)
}

func TestNewHTTPRemovalProber_NilClient(t *testing.T) {
	_, err := NewHTTPRemovalProber(nil)
	assert.Error(t, err)
}
