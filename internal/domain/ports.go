package domain

import (
	"context"
	"time"
)

// SupplierClient is the canonical typed interface over the supplier protocol,
// regardless of which wire dialect (XML or JSON) is configured.
type SupplierClient interface {
	ListCities(ctx context.Context) ([]City, error)
	ListHotels(ctx context.Context, cityID int64) ([]Hotel, error)
	Search(ctx context.Context, q SearchQuery) (SearchResult, error)
	// CreateBooking is non-idempotent: the transport never retries it.
	CreateBooking(ctx context.Context, token string, customer Customer, selections []RoomSelection, preBooking bool) (BookingResult, error)
	CreditCheck(ctx context.Context) (CreditBalance, error)
	// ListReference fetches one of the read-only reference lists
	// (ListCountry, ListCategorie, ListBoarding, ListTag, ListLanguage,
	// ListCurrency).
	ListReference(ctx context.Context, service string) ([]ReferenceItem, error)
}

// ReferenceItem is one row of a generic supplier reference list.
type ReferenceItem struct {
	ID    int64          `json:"id"`
	Title string         `json:"title"`
	Code  *string        `json:"code,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// PreAuth describes a pre-authorization to register with the gateway.
type PreAuth struct {
	OrderNumber string
	Amount      int64 // minor units
	Currency    string
	Description string
	ReturnURL   string
}

// PreAuthOrder is the gateway's answer to a registration.
type PreAuthOrder struct {
	OrderID string
	FormURL string
}

// OrderState is the gateway's extended status for an order.
type OrderState struct {
	OrderStatus  int
	ActionCode   int
	Amount       int64
	ApprovalCode *string
	MaskedCard   *string
}

// PaymentGateway registers and settles pre-authorizations. None of these
// calls is ever retried automatically.
type PaymentGateway interface {
	RegisterPreAuth(ctx context.Context, p PreAuth) (PreAuthOrder, error)
	GetOrderStatus(ctx context.Context, orderID string) (OrderState, error)
	Deposit(ctx context.Context, orderID string, amount int64) error
	Reverse(ctx context.Context, orderID string) error
	// VerifyCallback is pure: it recomputes the HMAC over the callback fields
	// and compares it byte-for-byte against the carried signature.
	VerifyCallback(cb PaymentCallback) error
}

// PaymentCallback is the gateway's asynchronous notification. Fields holds
// every received field except the signature, keyed as received, for HMAC
// recomputation.
type PaymentCallback struct {
	OrderID      string
	OrderNumber  string
	OrderStatus  int
	ActionCode   int
	Amount       int64
	Currency     string
	ApprovalCode *string
	MaskedCard   *string
	Signature    string
	Fields       map[string]string
}

// Cache is a JSON-value cache with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// BookingRepository persists bookings and payments. Booking rows are never
// deleted.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBookingState(ctx context.Context, id string, status BookingStatus, supplierState *string) error
	CreatePayment(ctx context.Context, p Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (Payment, error)
	// ApplyCallback updates the payment and its booking together; if either
	// write fails the whole reconciliation fails and no state changes.
	ApplyCallback(ctx context.Context, orderID string, ps PaymentStatus, bs BookingStatus, approvalCode, maskedCard *string) error
}

// ReferenceRepository persists supplier reference data.
type ReferenceRepository interface {
	ReplaceCities(ctx context.Context, cs []City) error
	UpsertHotels(ctx context.Context, hs []Hotel) error
	ListCities(ctx context.Context) ([]City, error)
	ListHotels(ctx context.Context, cityID int64) ([]Hotel, error)
}

// RateLimitStore implements a fixed-window counter with
// read-then-conditional-write semantics in the shared persistence layer.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
