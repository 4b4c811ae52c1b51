package postgres

import (
	"context"
	"fmt"
	"time"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresHouseStorageAdapter реализует HouseStoragePort и ActiveHousesRepositoryPort.
type PostgresHouseStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewPostgresHouseStorageAdapter создает новый экземпляр адаптера.
func NewPostgresHouseStorageAdapter(pool *pgxpool.Pool) (*PostgresHouseStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresHouseStorageAdapter{pool: pool}, nil
}

const upsertHouseSQL = `
	INSERT INTO houses_data.list_am_houses (
		external_id, url, title, price, seller_name, condition, rooms,
		house_area_m2, land_area_m2, construction_type, floors, bathrooms,
		garage, renovation, furniture, description, location, amenities,
		comfort, ceiling_height, prepayment, utility_payments, lease_type,
		minimum_rental_period, sewerage, parking, entrance, location_from_street,
		elevator, floor_area, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
	)
	ON CONFLICT (external_id) DO UPDATE SET
		url = EXCLUDED.url,
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		seller_name = EXCLUDED.seller_name,
		condition = EXCLUDED.condition,
		rooms = EXCLUDED.rooms,
		house_area_m2 = EXCLUDED.house_area_m2,
		land_area_m2 = EXCLUDED.land_area_m2,
		construction_type = EXCLUDED.construction_type,
		floors = EXCLUDED.floors,
		bathrooms = EXCLUDED.bathrooms,
		garage = EXCLUDED.garage,
		renovation = EXCLUDED.renovation,
		furniture = EXCLUDED.furniture,
		description = EXCLUDED.description,
		location = EXCLUDED.location,
		amenities = EXCLUDED.amenities,
		comfort = EXCLUDED.comfort,
		ceiling_height = EXCLUDED.ceiling_height,
		prepayment = EXCLUDED.prepayment,
		utility_payments = EXCLUDED.utility_payments,
		lease_type = EXCLUDED.lease_type,
		minimum_rental_period = EXCLUDED.minimum_rental_period,
		sewerage = EXCLUDED.sewerage,
		parking = EXCLUDED.parking,
		entrance = EXCLUDED.entrance,
		location_from_street = EXCLUDED.location_from_street,
		elevator = EXCLUDED.elevator,
		floor_area = EXCLUDED.floor_area,
		created_at = COALESCE(houses_data.list_am_houses.created_at, EXCLUDED.created_at),
		updated_at = EXCLUDED.updated_at,
		scraped_at = now(),
		is_deleted = false,
		deleted_at = NULL
	RETURNING id;
`

const (
	insertPhoneSQL = `
		INSERT INTO houses_data.list_am_phones (house_id, raw, display, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (house_id, source, raw) DO UPDATE SET display = EXCLUDED.display;
	`
	insertPriceHistorySQL = `
		INSERT INTO houses_data.list_am_price_history (house_id, date, date_raw, price, diff)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (house_id, date_raw, price, diff) DO NOTHING;
	`
	insertImageSQL = `
		INSERT INTO houses_data.list_am_images (house_id, position, url)
		VALUES ($1, $2, $3)
		ON CONFLICT (house_id, position) DO NOTHING;
	`
	insertFeatureSQL = `
		INSERT INTO houses_data.list_am_features (house_id, feature_type, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (house_id, feature_type, value) DO NOTHING;
	`
)

// UpsertBatch сохраняет пачку объявлений одной транзакцией.
// При любой ошибке транзакция откатывается целиком, и возвращается 0.
func (a *PostgresHouseStorageAdapter) UpsertBatch(ctx context.Context, houses []domain.HouseListing) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":    "PostgresHouseStorageAdapter",
		"method":       "UpsertBatch",
		"record_count": len(houses),
	})

	if len(houses) == 0 {
		repoLogger.Debug("No records to save.", nil)
		return 0, nil
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range houses {
		house := &houses[i]
		if err := upsertHouse(ctx, tx, house); err != nil {
			repoLogger.Error("Failed to save listing, rolling back batch", err, port.Fields{
				"external_id": house.ExternalID,
			})
			return 0, fmt.Errorf("failed to save listing %s: %w", house.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		repoLogger.Error("Failed to commit transaction", err, nil)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	repoLogger.Info("Batch saved", port.Fields{"saved": len(houses)})
	return len(houses), nil
}

func upsertHouse(ctx context.Context, tx pgx.Tx, h *domain.HouseListing) error {
	var houseID int64
	err := tx.QueryRow(ctx, upsertHouseSQL,
		h.ExternalID, h.URL, h.Title, h.Price, h.Contact.SellerName, h.Condition, smallint(h.Rooms),
		h.HouseAreaM2, h.LandAreaM2, h.ConstructionType, smallint(h.Floors), smallint(h.Bathrooms),
		h.Garage, h.Renovation, h.Furniture, h.Description, h.Location, h.Amenities,
		h.Comfort, h.CeilingHeight, h.Prepayment, h.UtilityPayments, h.LeaseType,
		h.MinimumRentalPeriod, h.Sewerage, h.Parking, h.Entrance, h.LocationFromStreet,
		h.Elevator, h.FloorArea, h.CreatedAt, h.UpdatedAt,
	).Scan(&houseID)
	if err != nil {
		return fmt.Errorf("failed to upsert list_am_houses: %w", err)
	}

	batch := buildChildBatch(houseID, h)
	if batch.Len() == 0 {
		return nil
	}

	// Close дочитывает все результаты и возвращает первую ошибку
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save child rows: %w", err)
	}
	return nil
}

func buildChildBatch(houseID int64, h *domain.HouseListing) *pgx.Batch {
	batch := &pgx.Batch{}

	for _, phone := range h.Contact.Phones {
		batch.Queue(insertPhoneSQL, houseID, phone.Raw, phone.Display, string(phone.Source))
	}

	for _, entry := range h.PriceHistory {
		diff := ""
		if entry.Diff != nil {
			diff = *entry.Diff
		}
		batch.Queue(insertPriceHistorySQL, houseID, historyDate(entry.Date), entry.Date, entry.Price, diff)
	}

	for _, img := range h.Images {
		batch.Queue(insertImageSQL, houseID, img.Position, img.URL)
	}

	queueFeatures := func(featureType string, values []string) {
		for _, v := range values {
			batch.Queue(insertFeatureSQL, houseID, featureType, v)
		}
	}
	queueFeatures(domain.FeatureAppliances, h.Features.Appliances)
	queueFeatures(domain.FeatureServiceLines, h.Features.ServiceLines)
	queueFeatures(domain.FeatureFacilities, h.Features.Facilities)

	return batch
}

// historyDate возвращает nil, если дата сохранилась как исходный текст
func historyDate(raw string) *time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

func smallint(v *uint8) *int16 {
	if v == nil {
		return nil
	}
	n := int16(*v)
	return &n
}
