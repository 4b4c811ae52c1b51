package usecases

import (
	"context"
	"listam-parser-service/internal/core/domain"
)

type CheckRemovedPort interface {
	Execute(ctx context.Context) (*domain.CheckRunStats, error)
	Progress() domain.CheckRunStats
}
