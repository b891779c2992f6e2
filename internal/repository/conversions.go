package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Table names, used in row validation errors and log context.
const (
	TablePartnerCustomers = "partner_customers"
	TableBookings         = "bookings"
)

// ErrInvalidRow marks a database row missing a field the domain type requires.
var ErrInvalidRow = errors.New("invalid row")

func invalidRow(table, field string) error {
	return fmt.Errorf("%w: %s.%s is missing", ErrInvalidRow, table, field)
}

func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func optionalPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return uuidToPgUUID(*id)
}

func pgUUIDPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// normalizedText applies normalize to a nullable column value. NULL stays NULL;
// a present value always yields a non-NULL result so the row is not revisited.
func normalizedText(raw pgtype.Text, normalize func(string) string) pgtype.Text {
	if !raw.Valid {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: normalize(raw.String), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

func dateToTimePtr(d pgtype.Date) *time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return nil
	}
	t := d.Time
	return &t
}

func timestamptzValue(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
