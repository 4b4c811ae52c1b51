package postgres

import (
	"context"
	"fmt"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ключи конфликтов:
//   list_am_houses        (external_id)                     -> обновление всех полей
//   list_am_phones        (house_id, source, raw)           -> обновление display
//   list_am_price_history (house_id, date_raw, price, diff) -> ничего
//   list_am_images        (house_id, position)              -> ничего
//   list_am_features      (house_id, feature_type, value)   -> ничего
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS houses_data`,

	`CREATE TABLE IF NOT EXISTS houses_data.list_am_houses (
		id                    BIGSERIAL PRIMARY KEY,
		external_id           TEXT NOT NULL,
		url                   TEXT NOT NULL,
		title                 TEXT,
		price                 TEXT,
		seller_name           TEXT,
		condition             TEXT,
		rooms                 SMALLINT,
		house_area_m2         REAL,
		land_area_m2          REAL,
		construction_type     TEXT,
		floors                SMALLINT,
		bathrooms             SMALLINT,
		garage                TEXT,
		renovation            TEXT,
		furniture             TEXT,
		description           TEXT NOT NULL DEFAULT '',
		location              TEXT,
		amenities             TEXT,
		comfort               TEXT,
		ceiling_height        TEXT,
		prepayment            TEXT,
		utility_payments      TEXT,
		lease_type            TEXT,
		minimum_rental_period TEXT,
		sewerage              TEXT,
		parking               TEXT,
		entrance              TEXT,
		location_from_street  TEXT,
		elevator              TEXT,
		floor_area            TEXT,
		created_at            TIMESTAMPTZ,
		updated_at            TIMESTAMPTZ,
		scraped_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_deleted            BOOLEAN NOT NULL DEFAULT false,
		deleted_at            TIMESTAMPTZ,
		CONSTRAINT list_am_houses_external_id_key UNIQUE (external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_list_am_houses_active ON houses_data.list_am_houses (id) WHERE is_deleted = false`,

	`CREATE TABLE IF NOT EXISTS houses_data.list_am_phones (
		id       BIGSERIAL PRIMARY KEY,
		house_id BIGINT NOT NULL REFERENCES houses_data.list_am_houses(id) ON DELETE CASCADE,
		raw      TEXT NOT NULL,
		display  TEXT NOT NULL,
		source   TEXT NOT NULL,
		CONSTRAINT list_am_phones_house_source_raw_key UNIQUE (house_id, source, raw)
	)`,

	`CREATE TABLE IF NOT EXISTS houses_data.list_am_price_history (
		id       BIGSERIAL PRIMARY KEY,
		house_id BIGINT NOT NULL REFERENCES houses_data.list_am_houses(id) ON DELETE CASCADE,
		date     TIMESTAMPTZ,
		date_raw TEXT NOT NULL,
		price    TEXT NOT NULL,
		diff     TEXT NOT NULL DEFAULT '',
		CONSTRAINT list_am_price_history_entry_key UNIQUE (house_id, date_raw, price, diff)
	)`,

	`CREATE TABLE IF NOT EXISTS houses_data.list_am_images (
		id       BIGSERIAL PRIMARY KEY,
		house_id BIGINT NOT NULL REFERENCES houses_data.list_am_houses(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url      TEXT NOT NULL,
		CONSTRAINT list_am_images_house_position_key UNIQUE (house_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS houses_data.list_am_features (
		id           BIGSERIAL PRIMARY KEY,
		house_id     BIGINT NOT NULL REFERENCES houses_data.list_am_houses(id) ON DELETE CASCADE,
		feature_type TEXT NOT NULL,
		value        TEXT NOT NULL,
		CONSTRAINT list_am_features_house_type_value_key UNIQUE (house_id, feature_type, value)
	)`,
}

// EnsureSchema создает схему и таблицы, если их еще нет
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresSchema",
		"method":    "EnsureSchema",
	})

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			logger.Error("Schema statement failed", err, nil)
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	logger.Info("Database schema is up to date", port.Fields{"statements": len(schemaStatements)})
	return nil
}
