package rest

import "time"

type ErrorResponseDTO struct {
	Error string `json:"error"`
}

type HealthResponseDTO struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

type ScrapeStatsDTO struct {
	TraceID        string     `json:"trace_id"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	PagesProcessed int        `json:"pages_processed"`
	PagesFailed    int        `json:"pages_failed"`
	LinksFound     int        `json:"links_found"`
	ListingsSaved  int        `json:"listings_saved"`
	ListingsFailed int        `json:"listings_failed"`
	ImagesSaved    int        `json:"images_saved"`
}

type CheckStatsDTO struct {
	TraceID       string     `json:"trace_id"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Checked       int        `json:"checked"`
	Removed       int        `json:"removed"`
	ProbeFailures int        `json:"probe_failures"`
}

type HouseCountsDTO struct {
	Active  int64 `json:"active"`
	Deleted int64 `json:"deleted"`
}

type StatsResponseDTO struct {
	Mode   string          `json:"mode"`
	Scrape *ScrapeStatsDTO `json:"scrape,omitempty"`
	Check  *CheckStatsDTO  `json:"check,omitempty"`
	Houses *HouseCountsDTO `json:"houses,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
