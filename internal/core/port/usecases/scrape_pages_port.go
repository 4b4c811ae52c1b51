package usecases

import (
	"context"
	"listam-parser-service/internal/core/domain"
)

type ScrapePagesPort interface {
	Execute(ctx context.Context) (*domain.ScrapeRunStats, error)
	// Progress возвращает копию статистики текущего (или последнего) запуска
	Progress() domain.ScrapeRunStats
}
