package postgres

import (
	"context"
	"fmt"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"
)

// FetchActiveHousesBatch возвращает страницу активных объявлений в порядке возрастания id
func (a *PostgresHouseStorageAdapter) FetchActiveHousesBatch(ctx context.Context, limit, offset int) ([]domain.ActiveHouse, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresHouseStorageAdapter",
		"method":    "FetchActiveHousesBatch",
		"limit":     limit,
		"offset":    offset,
	})

	query := `
		SELECT id, url
		FROM houses_data.list_am_houses
		WHERE is_deleted = false
		ORDER BY id
		LIMIT $1 OFFSET $2;
	`
	rows, err := a.pool.Query(ctx, query, limit, offset)
	if err != nil {
		repoLogger.Error("Failed to query active houses", err, nil)
		return nil, fmt.Errorf("failed to query active houses: %w", err)
	}
	defer rows.Close()

	houses := make([]domain.ActiveHouse, 0, limit)
	for rows.Next() {
		var h domain.ActiveHouse
		if err := rows.Scan(&h.ID, &h.URL); err != nil {
			return nil, fmt.Errorf("failed to scan active house: %w", err)
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active houses: %w", err)
	}

	repoLogger.Debug("Active houses fetched", port.Fields{"count": len(houses)})
	return houses, nil
}

// MarkHousesAsDeleted помечает объявления удаленными. Уже помеченные строки не трогаются.
func (a *PostgresHouseStorageAdapter) MarkHousesAsDeleted(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresHouseStorageAdapter",
		"method":    "MarkHousesAsDeleted",
		"count":     len(ids),
	})

	cmdTag, err := a.pool.Exec(ctx, `
		UPDATE houses_data.list_am_houses
		SET is_deleted = true, deleted_at = now()
		WHERE id = ANY($1) AND is_deleted = false;
	`, ids)
	if err != nil {
		repoLogger.Error("Failed to mark houses as deleted", err, nil)
		return 0, fmt.Errorf("failed to mark houses as deleted: %w", err)
	}

	repoLogger.Info("Houses marked as deleted", port.Fields{"affected": cmdTag.RowsAffected()})
	return cmdTag.RowsAffected(), nil
}

// CountHouses возвращает число активных и удаленных объявлений
func (a *PostgresHouseStorageAdapter) CountHouses(ctx context.Context) (active int64, deleted int64, err error) {
	err = a.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE is_deleted = false),
			COUNT(*) FILTER (WHERE is_deleted = true)
		FROM houses_data.list_am_houses;
	`).Scan(&active, &deleted)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count houses: %w", err)
	}
	return active, deleted, nil
}
