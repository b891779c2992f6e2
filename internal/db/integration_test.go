package db

import (
	"context"
	"os"
	"testing"

	"travel-crm/internal/config"
	"travel-crm/internal/matching"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDatabase migrates and connects to DATABASE_URL, skipping when unset
func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping database test")
	}

	cfg := config.TestConfig()
	cfg.Database.URL = databaseURL

	require.NoError(t, RunMigrations(databaseURL, cfg.Database.MigrationsPath))

	database, err := NewDatabase(context.Background(), cfg.Database)
	if err != nil {
		t.Skipf("Could not connect to database: %v", err)
	}
	t.Cleanup(database.Close)
	return database
}

func TestMigrations(t *testing.T) {
	database := openTestDatabase(t)
	ctx := context.Background()

	t.Run("pg_trgm extension is enabled", func(t *testing.T) {
		var extname string
		err := database.Pool.QueryRow(ctx,
			`SELECT extname FROM pg_extension WHERE extname = 'pg_trgm'`,
		).Scan(&extname)

		require.NoError(t, err, "pg_trgm extension should be installed")
		assert.Equal(t, "pg_trgm", extname)
	})

	indexes := []struct {
		table string
		index string
	}{
		{"partner_customers", "idx_partner_customers_email_normalized"},
		{"partner_customers", "idx_partner_customers_phone_normalized"},
		{"partner_customers", "idx_partner_customers_name_trgm"},
		{"bookings", "idx_bookings_customer_email_normalized"},
		{"bookings", "idx_bookings_customer_phone_normalized"},
		{"bookings", "idx_bookings_customer_name_trgm"},
	}
	for _, tt := range indexes {
		t.Run(tt.index, func(t *testing.T) {
			var indexname string
			err := database.Pool.QueryRow(ctx,
				`SELECT indexname FROM pg_indexes WHERE tablename = $1 AND indexname = $2`,
				tt.table, tt.index,
			).Scan(&indexname)

			require.NoError(t, err, "%s index should exist", tt.index)
			assert.Equal(t, tt.index, indexname)
		})
	}

	t.Run("merged status is accepted", func(t *testing.T) {
		var constraint string
		err := database.Pool.QueryRow(ctx,
			`SELECT pg_get_constraintdef(oid) FROM pg_constraint
			 WHERE conrelid = 'bookings'::regclass AND contype = 'c'`,
		).Scan(&constraint)

		require.NoError(t, err)
		assert.Contains(t, constraint, "merged")
	})
}

func TestInTx_RollsBackOnError(t *testing.T) {
	database := openTestDatabase(t)
	ctx := context.Background()

	partnerID := uuid.New()
	err := database.InTx(ctx, func(q *Queries) error {
		if _, err := q.db.Exec(ctx, `INSERT INTO partners (id, name) VALUES ($1, 'Rollback Travel')`, partnerID); err != nil {
			return err
		}
		return ErrNotFound
	})
	require.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, database.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM partners WHERE id = $1`, partnerID).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestNormalizationFunctionsAgreeWithGo(t *testing.T) {
	database := openTestDatabase(t)
	ctx := context.Background()

	phones := []string{"0812-345-678", "+62 812 345 678", "+62 (0)812 345 678", "6281234 5678", "812345678", "", "n/a", "0062812"}
	for _, phone := range phones {
		var got string
		require.NoError(t, database.Pool.QueryRow(ctx, `SELECT normalize_contact_phone($1)`, phone).Scan(&got))
		assert.Equal(t, matching.NormalizePhone(phone), got, "phone %q", phone)
	}

	emails := []string{"Ani@Example.COM", "  budi@example.com\t", "", "plain"}
	for _, email := range emails {
		var got string
		require.NoError(t, database.Pool.QueryRow(ctx, `SELECT normalize_contact_email($1)`, email).Scan(&got))
		assert.Equal(t, matching.NormalizeEmail(email), got, "email %q", email)
	}
}

func TestNormalizedColumnsFollowWrites(t *testing.T) {
	database := openTestDatabase(t)
	ctx := context.Background()

	partnerID, customerID, bookingID := uuid.New(), uuid.New(), uuid.New()
	code := "trg-" + bookingID.String()[:8]
	_, err := database.Pool.Exec(ctx, `INSERT INTO partners (id, name) VALUES ($1, 'Trigger Travel')`, partnerID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = database.Pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
		_, _ = database.Pool.Exec(ctx, `DELETE FROM partners WHERE id = $1`, partnerID)
	})

	_, err = database.Pool.Exec(ctx,
		`INSERT INTO partner_customers (id, partner_id, name, email, phone) VALUES ($1, $2, 'Rina', ' Rina@Example.com', '+62 813-111')`,
		customerID, partnerID)
	require.NoError(t, err)
	_, err = database.Pool.Exec(ctx,
		`INSERT INTO bookings (id, booking_code, partner_id, customer_name, customer_email, customer_phone)
		 VALUES ($1, $2, $3, 'Rina', 'RINA@example.com', '0813 111')`,
		bookingID, code, partnerID)
	require.NoError(t, err)

	customerColumns := func() (PartnerCustomer, error) {
		var row PartnerCustomer
		err := database.Pool.QueryRow(ctx,
			`SELECT email_normalized, phone_normalized FROM partner_customers WHERE id = $1`, customerID,
		).Scan(&row.EmailNormalized, &row.PhoneNormalized)
		return row, err
	}
	bookingColumns := func() (Booking, error) {
		var row Booking
		err := database.Pool.QueryRow(ctx,
			`SELECT customer_email_normalized, customer_phone_normalized FROM bookings WHERE id = $1`, bookingID,
		).Scan(&row.CustomerEmailNormalized, &row.CustomerPhoneNormalized)
		return row, err
	}

	t.Run("filled on insert", func(t *testing.T) {
		pc, err := customerColumns()
		require.NoError(t, err)
		assert.Equal(t, "rina@example.com", pc.EmailNormalized.String)
		assert.Equal(t, "813111", pc.PhoneNormalized.String)

		b, err := bookingColumns()
		require.NoError(t, err)
		assert.Equal(t, "rina@example.com", b.CustomerEmailNormalized.String)
		assert.Equal(t, "813111", b.CustomerPhoneNormalized.String)
	})

	t.Run("recomputed on edit", func(t *testing.T) {
		_, err := database.Pool.Exec(ctx, `UPDATE partner_customers SET email = NULL, phone = '0857 000' WHERE id = $1`, customerID)
		require.NoError(t, err)
		_, err = database.Pool.Exec(ctx, `UPDATE bookings SET customer_email = 'rina.b@example.com' WHERE id = $1`, bookingID)
		require.NoError(t, err)

		pc, err := customerColumns()
		require.NoError(t, err)
		assert.False(t, pc.EmailNormalized.Valid)
		assert.Equal(t, "857000", pc.PhoneNormalized.String)

		b, err := bookingColumns()
		require.NoError(t, err)
		assert.Equal(t, "rina.b@example.com", b.CustomerEmailNormalized.String)
		assert.Equal(t, "813111", b.CustomerPhoneNormalized.String)
	})
}
