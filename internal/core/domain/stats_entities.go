package domain

import (
	"time"
)

// PageStats - итог обработки одной страницы выдачи
type PageStats struct {
	Page           int
	LinksFound     int
	ListingsParsed int
	ListingsFailed int
	ListingsSaved  int
	ImagesSaved    int
	Failed         bool
	FailureStage   string
}

// ScrapeRunStats - итог одного запуска режима scraper
type ScrapeRunStats struct {
	TraceID        string
	StartedAt      time.Time
	FinishedAt     time.Time
	PagesProcessed int
	PagesFailed    int
	LinksFound     int
	ListingsSaved  int
	ListingsFailed int
	ImagesSaved    int
}

// Add добавляет статистику страницы к итогам запуска
func (s *ScrapeRunStats) Add(p PageStats) {
	s.PagesProcessed++
	if p.Failed {
		s.PagesFailed++
	}
	s.LinksFound += p.LinksFound
	s.ListingsSaved += p.ListingsSaved
	s.ListingsFailed += p.ListingsFailed
	s.ImagesSaved += p.ImagesSaved
}

// CheckRunStats - итог одного запуска режима checker
type CheckRunStats struct {
	TraceID       string
	StartedAt     time.Time
	FinishedAt    time.Time
	Checked       int
	Removed       int
	ProbeFailures int
}

// Стадии, на которых может упасть обработка страницы
const (
	StageDiscover = "discover"
	StageDetails  = "details"
	StagePersist  = "persist"
)
