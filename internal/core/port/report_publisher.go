package port

import (
	"context"
	"listam-parser-service/internal/core/domain"
)

// ReportPublisherPort публикует отчеты о ходе парсинга
type ReportPublisherPort interface {
	PublishPageReport(ctx context.Context, stats domain.PageStats) error
	PublishScrapeReport(ctx context.Context, stats domain.ScrapeRunStats) error
	PublishCheckReport(ctx context.Context, stats domain.CheckRunStats) error
}
