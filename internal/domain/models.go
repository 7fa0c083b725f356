package domain

import "time"

// City is supplier reference data, replaced wholesale on each sync.
type City struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Region *string `json:"region,omitempty"`
}

// Hotel is supplier reference data keyed by the supplier-assigned id.
// CityID falls back to the requested city when the supplier omits or zeroes it.
type Hotel struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	CityID        int64    `json:"cityId"`
	Star          *int     `json:"star,omitempty"`
	CategoryTitle *string  `json:"categoryTitle,omitempty"`
	Address       *string  `json:"address,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	Image         *string  `json:"image,omitempty"`
	Note          *string  `json:"note,omitempty"`
}

// RoomQuery is one requested room in a search.
type RoomQuery struct {
	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"childrenAges,omitempty"`
}

// SearchQuery is the canonical, token-free identity of an availability
// request. Fingerprint() in the app layer serializes it deterministically so
// it can serve as a cache key.
type SearchQuery struct {
	CityID   int64       `json:"cityId"`
	CheckIn  string      `json:"checkIn"`  // YYYY-MM-DD
	CheckOut string      `json:"checkOut"` // YYYY-MM-DD
	Rooms    []RoomQuery `json:"rooms"`
	Currency string      `json:"currency,omitempty"`
}

// RoomOffer is one flattened priced room. OnRequest means the supplier
// cannot confirm instantly; such rooms are never presented as bookable.
type RoomOffer struct {
	RoomID             int64          `json:"roomId"`
	RoomName           *string        `json:"roomName,omitempty"`
	BoardCode          *string        `json:"boardCode,omitempty"`
	BoardName          *string        `json:"boardName,omitempty"`
	Price              float64        `json:"price"`
	BasePrice          *float64       `json:"basePrice,omitempty"`
	PriceWithMarkup    *float64       `json:"priceWithMarkup,omitempty"`
	OnRequest          bool           `json:"onRequest"`
	Adults             *int           `json:"adults,omitempty"`
	ChildrenAges       []int          `json:"childrenAges,omitempty"`
	CancellationPolicy *string        `json:"cancellationPolicy,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// HotelSearchResult is one hotel with its flattened offers.
// Available and HasInstantConfirmation are derived: true iff at least one
// room has OnRequest == false.
type HotelSearchResult struct {
	HotelID                int64          `json:"hotelId"`
	Name                   string         `json:"name"`
	Available              bool           `json:"available"`
	Rooms                  []RoomOffer    `json:"rooms"`
	HasInstantConfirmation bool           `json:"hasInstantConfirmation"`
	Extra                  map[string]any `json:"extra,omitempty"`
}

// SearchResult pairs the supplier's short-lived search token with the decoded
// hotels. The token is a secret: it never reaches caches, logs or clients.
type SearchResult struct {
	Token  string
	Hotels []HotelSearchResult
}

// Customer is the booking contact. Card data never lives here.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country,omitempty"`
}

// RoomSelection identifies one priced room chosen out of a search result.
type RoomSelection struct {
	HotelID      int64   `json:"hotelId"`
	RoomID       int64   `json:"roomId"`
	BoardCode    *string `json:"boardCode,omitempty"`
	Adults       int     `json:"adults"`
	ChildrenAges []int   `json:"childrenAges,omitempty"`
	Price        float64 `json:"price"`
}

// Booking status values. A booking row is never deleted.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentFailed     PaymentStatus = "failed"
	PaymentReversed   PaymentStatus = "reversed"
)

// Supplier booking states we reason about. Anything else is carried verbatim.
const (
	SupplierStateConfirmed = "Confirmed"
	SupplierStateOnRequest = "OnRequest"
)

type BookingMode string

const (
	ModeWithAccount BookingMode = "withAccount"
	ModeGuest       BookingMode = "guest"
)

type Booking struct {
	ID                string        `json:"id"`
	Mode              BookingMode   `json:"mode"`
	SupplierBookingID *string       `json:"supplierBookingId,omitempty"`
	SupplierState     *string       `json:"supplierState,omitempty"`
	HotelID           int64         `json:"hotelId"`
	CheckIn           string        `json:"checkIn"`
	CheckOut          string        `json:"checkOut"`
	RoomCount         int           `json:"roomCount"`
	Adults            int           `json:"adults"`
	Children          int           `json:"children"`
	TotalPrice        float64       `json:"totalPrice"`
	Currency          string        `json:"currency"`
	Status            BookingStatus `json:"status"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	Customer          Customer      `json:"customer"`
	// TokenHash is the salted hash of the search token used to create the
	// booking, kept for audit linkage only. The plaintext token is never
	// stored anywhere.
	TokenHash *string   `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payment is one checkout attempt against the gateway. OrderNumber must be
// globally unique to avoid gateway collisions.
type Payment struct {
	ID           string        `json:"id"`
	BookingID    string        `json:"bookingId"`
	OrderID      string        `json:"orderId"`
	OrderNumber  string        `json:"orderNumber"`
	Amount       int64         `json:"amount"` // gateway minor units
	Currency     string        `json:"currency"`
	Status       PaymentStatus `json:"status"`
	ApprovalCode *string       `json:"approvalCode,omitempty"`
	MaskedCard   *string       `json:"maskedCard,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// BookingResult is the decoded supplier BookingCreation response. Extra keeps
// passthrough fields untouched for round-tripping.
type BookingResult struct {
	BookingID  *string        `json:"bookingId,omitempty"`
	State      *string        `json:"state,omitempty"`
	TotalPrice *float64       `json:"totalPrice,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// CreditBalance is the supplier deposit balance returned by CreditCheck.
type CreditBalance struct {
	Remaining float64 `json:"remaining"`
	Currency  string  `json:"currency,omitempty"`
}
