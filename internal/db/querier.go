package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	// Partner customers
	FindPartnerCustomersByEmail(ctx context.Context, arg FindPartnerCustomersByEmailParams) ([]*PartnerCustomer, error)
	FindPartnerCustomersByPhone(ctx context.Context, arg FindPartnerCustomersByPhoneParams) ([]*PartnerCustomer, error)
	ListPartnerCustomersPage(ctx context.Context, arg ListPartnerCustomersPageParams) ([]*PartnerCustomer, error)
	SearchPartnerCustomersByName(ctx context.Context, arg SearchPartnerCustomersByNameParams) ([]*PartnerCustomer, error)
	ListPartnerCustomersByIdentity(ctx context.Context, arg ListPartnerCustomersByIdentityParams) ([]*PartnerCustomer, error)
	ListPartnerCustomersMissingNormalized(ctx context.Context, limit int32) ([]*PartnerCustomer, error)
	UpdatePartnerCustomerNormalized(ctx context.Context, arg UpdatePartnerCustomerNormalizedParams) error

	// Bookings
	GetBooking(ctx context.Context, id pgtype.UUID) (*Booking, error)
	GetBookingForUpdate(ctx context.Context, id pgtype.UUID) (*Booking, error)
	FindBookingsByEmail(ctx context.Context, arg FindBookingsByEmailParams) ([]*Booking, error)
	FindBookingsByPhone(ctx context.Context, arg FindBookingsByPhoneParams) ([]*Booking, error)
	ListBookingsPage(ctx context.Context, arg ListBookingsPageParams) ([]*Booking, error)
	SearchBookingsByName(ctx context.Context, arg SearchBookingsByNameParams) ([]*Booking, error)
	ListBookingsByCustomer(ctx context.Context, arg ListBookingsByCustomerParams) ([]*Booking, error)
	ListBookingsByEmail(ctx context.Context, arg ListBookingsByEmailParams) ([]*Booking, error)
	ListBookingsByPhone(ctx context.Context, arg ListBookingsByPhoneParams) ([]*Booking, error)
	MarkBookingMerged(ctx context.Context, arg MarkBookingMergedParams) (*Booking, error)
	SetBookingCustomer(ctx context.Context, arg SetBookingCustomerParams) (*Booking, error)
	LinkBookingsToCustomer(ctx context.Context, arg LinkBookingsToCustomerParams) (int64, error)
	ListBookingsMissingNormalized(ctx context.Context, limit int32) ([]*Booking, error)
	UpdateBookingNormalized(ctx context.Context, arg UpdateBookingNormalizedParams) error
}
