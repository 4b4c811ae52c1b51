package listamfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListamStub(t *testing.T, popupStatus int) (*httptest.Server, *int32) {
	t.Helper()
	var popupCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/en/category/62/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body>
			<a href="/en/item/100?ld_src=1">one</a>
			<a href="/en/item/100?ld_src=2">one again</a>
			<a href="/en/item/200">two</a>
		</body></html>`))
	})
	mux.HandleFunc("/en/item/100", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(detailFixture))
	})
	mux.HandleFunc("/popup", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&popupCalls, 1)
		assert.Equal(t, "100", r.URL.Query().Get("i"))
		assert.Equal(t, "1", r.URL.Query().Get("_rtt"))
		assert.Equal(t, "12", r.URL.Query().Get("w"))
		if popupStatus != http.StatusOK {
			w.WriteHeader(popupStatus)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<div class="name">Aram</div><a href="tel:+37491123456"><span>091 123456</span></a>`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &popupCalls
}

func newTestAdapter(t *testing.T, server *httptest.Server) *ListamFetcherAdapter {
	t.Helper()
	adapter, err := NewListamFetcherAdapter(Config{
		BaseURL:    server.URL + "/en/category/62/",
		ContactURL: server.URL + "/popup?w=12",
	})
	require.NoError(t, err)
	return adapter
}

func TestFetchLinks(t *testing.T) {
	server, _ := newListamStub(t, http.StatusOK)
	adapter := newTestAdapter(t, server)

	links, err := adapter.FetchLinks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, server.URL+"/en/item/100", links[0].URL)
	assert.Equal(t, "100", links[0].ExternalID)
	assert.Equal(t, "200", links[1].ExternalID)
}

func TestFetchLinksMissingPage(t *testing.T) {
	server, _ := newListamStub(t, http.StatusOK)
	adapter := newTestAdapter(t, server)

	_, err := adapter.FetchLinks(context.Background(), 99)
	assert.Error(t, err)
}

func TestFetchDetailsComposesPopup(t *testing.T) {
	server, popupCalls := newListamStub(t, http.StatusOK)
	adapter := newTestAdapter(t, server)

	links, err := adapter.FetchLinks(context.Background(), 1)
	require.NoError(t, err)

	house, err := adapter.FetchDetails(context.Background(), links[0])
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(popupCalls))
	assert.Equal(t, "100", house.ExternalID)
	require.NotNil(t, house.Contact.SellerName)
	assert.Equal(t, "Aram", *house.Contact.SellerName)
	require.Len(t, house.Contact.Phones, 1)
	assert.Equal(t, "091 123456", house.Contact.Phones[0].Display)
}

func TestFetchDetailsPopupFailureKeepsListing(t *testing.T) {
	server, _ := newListamStub(t, http.StatusInternalServerError)
	adapter := newTestAdapter(t, server)

	links, err := adapter.FetchLinks(context.Background(), 1)
	require.NoError(t, err)

	house, err := adapter.FetchDetails(context.Background(), links[0])
	require.NoError(t, err)
	assert.Empty(t, house.Contact.Phones)
	require.NotNil(t, house.Title)
}

func TestFetchDetailsMissingListing(t *testing.T) {
	server, popupCalls := newListamStub(t, http.StatusOK)
	adapter := newTestAdapter(t, server)

	links, err := adapter.FetchLinks(context.Background(), 1)
	require.NoError(t, err)

	_, err = adapter.FetchDetails(context.Background(), links[1])
	assert.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(popupCalls), "popup is not requested for a failed listing")
}

func TestFetchRespectsCancelledContext(t *testing.T) {
	server, _ := newListamStub(t, http.StatusOK)
	adapter := newTestAdapter(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.FetchLinks(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewListamFetcherAdapterValidatesURLs(t *testing.T) {
	_, err := NewListamFetcherAdapter(Config{BaseURL: "not a url", ContactURL: "https://www.list.am/?w=12"})
	assert.Error(t, err)

	_, err = NewListamFetcherAdapter(Config{BaseURL: "https://www.list.am/en/category/62", ContactURL: ""})
	assert.Error(t, err)
}
