package db

import "github.com/jackc/pgx/v5/pgtype"

// Field order matches the column lists in the query files; rows are scanned by position.

type PartnerCustomer struct {
	ID              pgtype.UUID
	PartnerID       pgtype.UUID
	CustomerID      pgtype.UUID
	Name            pgtype.Text
	Email           pgtype.Text
	Phone           pgtype.Text
	EmailNormalized pgtype.Text
	PhoneNormalized pgtype.Text
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type Booking struct {
	ID                      pgtype.UUID
	BookingCode             pgtype.Text
	PartnerID               pgtype.UUID
	CustomerID              pgtype.UUID
	CustomerName            pgtype.Text
	CustomerEmail           pgtype.Text
	CustomerPhone           pgtype.Text
	CustomerEmailNormalized pgtype.Text
	CustomerPhoneNormalized pgtype.Text
	PackageID               pgtype.UUID
	PackageName             pgtype.Text
	TripDate                pgtype.Date
	TotalAmount             pgtype.Numeric
	Status                  pgtype.Text
	MergedIntoID            pgtype.UUID
	CreatedAt               pgtype.Timestamptz
	UpdatedAt               pgtype.Timestamptz
}
