package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"listam-parser-service/internal/core/domain"
)

type fakeFetcher struct {
	mu          sync.Mutex
	pages       map[int][]domain.ListingLink
	pageErrs    map[int]error
	detailErrs  map[string]error
	inFlight    int
	maxInFlight int
	block       chan struct{}
}

func (f *fakeFetcher) FetchLinks(ctx context.Context, page int) ([]domain.ListingLink, error) {
	if err := f.pageErrs[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeFetcher) FetchDetails(ctx context.Context, link domain.ListingLink) (*domain.HouseListing, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if err := f.detailErrs[link.ExternalID]; err != nil {
		return nil, err
	}
	return &domain.HouseListing{
		ExternalID: link.ExternalID,
		URL:        link.URL,
		Images: []domain.ImageRef{
			{Position: 0, URL: "s.list.am/f/" + link.ExternalID + "/1.webp"},
		},
	}, nil
}

func links(ids ...string) []domain.ListingLink {
	out := make([]domain.ListingLink, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.ListingLink{URL: "https://www.list.am/en/item/" + id, ExternalID: id})
	}
	return out
}

type fakeStorage struct {
	mu      sync.Mutex
	batches [][]domain.HouseListing
	failOn  map[string]bool
}

func (s *fakeStorage) UpsertBatch(ctx context.Context, houses []domain.HouseListing) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range houses {
		if s.failOn[h.ExternalID] {
			return 0, fmt.Errorf("constraint violation on %s", h.ExternalID)
		}
	}
	s.batches = append(s.batches, houses)
	return len(houses), nil
}

type fakeReporter struct {
	mu     sync.Mutex
	pages  []domain.PageStats
	scrape []domain.ScrapeRunStats
	check  []domain.CheckRunStats
	err    error
}

func (r *fakeReporter) PublishPageReport(ctx context.Context, stats domain.PageStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, stats)
	return r.err
}

func (r *fakeReporter) PublishScrapeReport(ctx context.Context, stats domain.ScrapeRunStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrape = append(r.scrape, stats)
	return r.err
}

func (r *fakeReporter) PublishCheckReport(ctx context.Context, stats domain.CheckRunStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.check = append(r.check, stats)
	return r.err
}

type fakeImages struct {
	calls []string
	err   error
}

func (f *fakeImages) Execute(ctx context.Context, house domain.HouseListing) (int, error) {
	f.calls = append(f.calls, house.ExternalID)
	if f.err != nil {
		return 0, f.err
	}
	return len(house.Images), nil
}

var errNetwork = errors.New("connection reset")
