package port

import (
	"context"
	"listam-parser-service/internal/core/domain"
)

// HouseStoragePort сохраняет пачку объявлений одной транзакцией
type HouseStoragePort interface {
	UpsertBatch(ctx context.Context, houses []domain.HouseListing) (int, error)
}

// ActiveHousesRepositoryPort используется проверкой актуальности
type ActiveHousesRepositoryPort interface {
	FetchActiveHousesBatch(ctx context.Context, limit, offset int) ([]domain.ActiveHouse, error)
	MarkHousesAsDeleted(ctx context.Context, ids []int64) (int64, error)
}

// HouseStatsPort отдает сводку по таблице объявлений для статус-сервера
type HouseStatsPort interface {
	CountHouses(ctx context.Context) (active int64, deleted int64, err error)
}
