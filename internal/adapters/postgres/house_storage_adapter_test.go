package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"listam-parser-service/internal/core/domain"
	pgclient "listam-parser-service/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Интеграционные тесты запускаются только при заданном TEST_DATABASE_URL
func newTestAdapter(t *testing.T) (*PostgresHouseStorageAdapter, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgclient.NewClient(ctx, pgclient.Config{DatabaseURL: dsn, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))

	adapter, err := NewPostgresHouseStorageAdapter(pool)
	require.NoError(t, err)
	return adapter, pool
}

func uniqueExternalID() string {
	return "test-" + uuid.NewString()
}

func cleanup(t *testing.T, pool *pgxpool.Pool, externalIDs ...string) {
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(),
			`DELETE FROM houses_data.list_am_houses WHERE external_id = ANY($1)`, externalIDs)
	})
}

func sampleListing(externalID string) domain.HouseListing {
	title := "House in Ajapnyak"
	price := "$120,000"
	seller := "Aram"
	rooms := uint8(5)
	area := float32(180.5)
	diff := "-$5,000"
	created := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	return domain.HouseListing{
		ExternalID:  externalID,
		URL:         "https://www.list.am/en/item/" + externalID,
		Title:       &title,
		Price:       &price,
		Description: "Spacious house",
		Rooms:       &rooms,
		HouseAreaM2: &area,
		Features: domain.FeatureList{
			Appliances:   []string{"Fridge", "Stove"},
			ServiceLines: []string{"Gas"},
		},
		Contact: domain.ContactInfo{
			SellerName: &seller,
			Phones: []domain.ContactPhone{
				{Raw: "37491000000", Display: "+374 91 000000", Source: domain.PhoneSourceDirect},
				{Raw: "37491000000", Display: "37491000000", Source: domain.PhoneSourceViber},
			},
		},
		PriceHistory: []domain.PriceHistoryEntry{
			{Date: "2025-09-01T00:00:00Z", Price: "$125,000", Diff: &diff},
			{Date: "yesterday", Price: "$130,000"},
		},
		Images: []domain.ImageRef{
			{Position: 0, URL: "https://s.list.am/f/1.webp"},
			{Position: 1, URL: "https://s.list.am/f/2.webp"},
		},
		CreatedAt: &created,
	}
}

func childCounts(t *testing.T, pool *pgxpool.Pool, externalID string) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	for _, table := range []string{"list_am_phones", "list_am_price_history", "list_am_images", "list_am_features"} {
		var n int
		err := pool.QueryRow(context.Background(), `
			SELECT COUNT(*) FROM houses_data.`+table+` c
			JOIN houses_data.list_am_houses h ON h.id = c.house_id
			WHERE h.external_id = $1`, externalID).Scan(&n)
		require.NoError(t, err)
		counts[table] = n
	}
	return counts
}

func TestUpsertBatch_Idempotent(t *testing.T) {
	adapter, pool := newTestAdapter(t)
	ctx := context.Background()

	id := uniqueExternalID()
	cleanup(t, pool, id)
	listing := sampleListing(id)

	saved, err := adapter.UpsertBatch(ctx, []domain.HouseListing{listing})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	first := childCounts(t, pool, id)

	saved, err = adapter.UpsertBatch(ctx, []domain.HouseListing{listing})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	second := childCounts(t, pool, id)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]int{
		"list_am_phones":        2,
		"list_am_price_history": 2,
		"list_am_images":        2,
		"list_am_features":      3,
	}, second)

	var houses int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM houses_data.list_am_houses WHERE external_id = $1`, id).Scan(&houses))
	assert.Equal(t, 1, houses)
}

func TestUpsertBatch_UpdatesScalarFieldsAndPhoneDisplay(t *testing.T) {
	adapter, pool := newTestAdapter(t)
	ctx := context.Background()

	id := uniqueExternalID()
	cleanup(t, pool, id)
	listing := sampleListing(id)

	_, err := adapter.UpsertBatch(ctx, []domain.HouseListing{listing})
	require.NoError(t, err)

	newPrice := "$99,000"
	listing.Price = &newPrice
	listing.Contact.Phones[0].Display = "091 000 000"
	_, err = adapter.UpsertBatch(ctx, []domain.HouseListing{listing})
	require.NoError(t, err)

	var price, display string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT price FROM houses_data.list_am_houses WHERE external_id = $1`, id).Scan(&price))
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT p.display FROM houses_data.list_am_phones p
		JOIN houses_data.list_am_houses h ON h.id = p.house_id
		WHERE h.external_id = $1 AND p.source = 'direct'`, id).Scan(&display))

	assert.Equal(t, newPrice, price)
	assert.Equal(t, "091 000 000", display)
}

func TestUpsertBatch_RollsBackWholeBatch(t *testing.T) {
	adapter, pool := newTestAdapter(t)
	ctx := context.Background()

	okID, badID := uniqueExternalID(), uniqueExternalID()
	cleanup(t, pool, okID, badID)

	bad := sampleListing(badID)
	broken := "bad\x00title"
	bad.Title = &broken

	saved, err := adapter.UpsertBatch(ctx, []domain.HouseListing{sampleListing(okID), bad})
	require.Error(t, err)
	assert.Equal(t, 0, saved)

	var n int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM houses_data.list_am_houses WHERE external_id = ANY($1)`,
		[]string{okID, badID}).Scan(&n))
	assert.Zero(t, n)
}

func TestUpsertBatch_Empty(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	saved, err := adapter.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, saved)
}

func TestMarkHousesAsDeleted_AndRevive(t *testing.T) {
	adapter, pool := newTestAdapter(t)
	ctx := context.Background()

	id := uniqueExternalID()
	cleanup(t, pool, id)

	_, err := adapter.UpsertBatch(ctx, []domain.HouseListing{sampleListing(id)})
	require.NoError(t, err)

	var houseID int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT id FROM houses_data.list_am_houses WHERE external_id = $1`, id).Scan(&houseID))

	affected, err := adapter.MarkHousesAsDeleted(ctx, []int64{houseID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = adapter.MarkHousesAsDeleted(ctx, []int64{houseID})
	require.NoError(t, err)
	assert.Zero(t, affected)

	var deleted bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT is_deleted FROM houses_data.list_am_houses WHERE id = $1`, houseID).Scan(&deleted))
	assert.True(t, deleted)

	_, err = adapter.UpsertBatch(ctx, []domain.HouseListing{sampleListing(id)})
	require.NoError(t, err)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT is_deleted FROM houses_data.list_am_houses WHERE id = $1`, houseID).Scan(&deleted))
	assert.False(t, deleted)
}

func TestFetchActiveHousesBatch_SkipsDeleted(t *testing.T) {
	adapter, pool := newTestAdapter(t)
	ctx := context.Background()

	ids := []string{uniqueExternalID(), uniqueExternalID()}
	cleanup(t, pool, ids...)

	_, err := adapter.UpsertBatch(ctx, []domain.HouseListing{sampleListing(ids[0]), sampleListing(ids[1])})
	require.NoError(t, err)

	var deletedID int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT id FROM houses_data.list_am_houses WHERE external_id = $1`, ids[0]).Scan(&deletedID))
	_, err = adapter.MarkHousesAsDeleted(ctx, []int64{deletedID})
	require.NoError(t, err)

	seen := make(map[int64]string)
	for offset := 0; ; offset += 100 {
		batch, err := adapter.FetchActiveHousesBatch(ctx, 100, offset)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		for _, h := range batch {
			seen[h.ID] = h.URL
		}
	}

	assert.NotContains(t, seen, deletedID)
	assert.Contains(t, seen, func() int64 {
		var id int64
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT id FROM houses_data.list_am_houses WHERE external_id = $1`, ids[1]).Scan(&id))
		return id
	}())
}

func TestNewPostgresHouseStorageAdapter_NilPool(t *testing.T) {
	_, err := NewPostgresHouseStorageAdapter(nil)
	assert.Error(t, err)
}

func TestHistoryDate(t *testing.T) {
	parsed := historyDate("2025-12-07T00:00:00Z")
	require.NotNil(t, parsed)
	assert.True(t, parsed.Equal(time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, historyDate("07 Dec"))
}

func TestBuildChildBatch(t *testing.T) {
	listing := sampleListing("1")
	batch := buildChildBatch(42, &listing)
	// 2 телефона, 2 записи истории, 2 картинки, 3 тега
	assert.Equal(t, 9, batch.Len())

	empty := buildChildBatch(42, &domain.HouseListing{})
	assert.Zero(t, empty.Len())
}
