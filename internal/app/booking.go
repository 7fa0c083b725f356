package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/observability"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// BookingService drives the pre-booking -> checkout-policy -> pre-auth ->
// callback-reconciliation lifecycle and owns the booking state machine.
type BookingService struct {
	supplier  domain.SupplierClient
	gateway   domain.PaymentGateway
	repo      domain.BookingRepository
	search    *SearchService
	policy    domain.CheckoutPolicy
	tokenSalt string
	returnURL string

	now   func() time.Time
	newID func() string
}

func NewBookingService(
	sc domain.SupplierClient,
	gw domain.PaymentGateway,
	repo domain.BookingRepository,
	search *SearchService,
	policy domain.CheckoutPolicy,
	tokenSalt, returnURL string,
) *BookingService {
	return &BookingService{
		supplier:  sc,
		gateway:   gw,
		repo:      repo,
		search:    search,
		policy:    policy,
		tokenSalt: tokenSalt,
		returnURL: returnURL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CreateBookingInput is the caller's side of booking creation. Token is
// optional: when empty, the service re-runs the search server-side and uses
// the fresh token, so the secret never has to round-trip through the client.
type CreateBookingInput struct {
	Mode       domain.BookingMode     `json:"mode"`
	Query      domain.SearchQuery     `json:"query"`
	Selections []domain.RoomSelection `json:"selections"`
	Customer   domain.Customer        `json:"customer"`
	Token      string                 `json:"token,omitempty"`
	PreBooking *bool                  `json:"preBooking,omitempty"`
}

func validateCreate(in CreateBookingInput) error {
	if in.Mode != domain.ModeWithAccount && in.Mode != domain.ModeGuest {
		return &domain.ValidationError{Field: "mode", Reason: "must be withAccount or guest"}
	}
	if len(in.Selections) == 0 {
		return &domain.ValidationError{Field: "selections", Reason: "at least one room required"}
	}
	if in.Customer.FirstName == "" || in.Customer.LastName == "" || in.Customer.Email == "" {
		return &domain.ValidationError{Field: "customer", Reason: "firstName, lastName and email are required"}
	}
	return validateQuery(in.Query)
}

// Create turns an ephemeral search into a durable booking. The supplier call
// uses preBooking=true unless the caller explicitly opts out. A supplier
// state of OnRequest always maps to status pending, whatever the caller
// asked for: an on-request room can never be instantly confirmed.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if err := validateCreate(in); err != nil {
		return domain.Booking{}, err
	}

	token := in.Token
	if token == "" {
		res, err := s.search.searchLive(ctx, in.Query)
		if err != nil {
			return domain.Booking{}, err
		}
		if err := matchSelections(res.Hotels, in.Selections); err != nil {
			return domain.Booking{}, err
		}
		token = res.Token
	}
	if token == "" {
		return domain.Booking{}, &domain.ValidationError{Field: "token", Reason: "supplier issued no search token"}
	}

	preBooking := true
	if in.PreBooking != nil {
		preBooking = *in.PreBooking
	}

	adults, children, total := 0, 0, 0.0
	for _, sel := range in.Selections {
		adults += sel.Adults
		children += len(sel.ChildrenAges)
		total += sel.Price
	}
	q := Normalize(in.Query)

	b := domain.Booking{
		ID:            s.newID(),
		Mode:          in.Mode,
		HotelID:       in.Selections[0].HotelID,
		CheckIn:       q.CheckIn,
		CheckOut:      q.CheckOut,
		RoomCount:     len(in.Selections),
		Adults:        adults,
		Children:      children,
		TotalPrice:    total,
		Currency:      q.Currency,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentPending,
		Customer:      in.Customer,
	}
	hash := HashToken(s.tokenSalt, token)
	b.TokenHash = &hash

	res, supErr := s.supplier.CreateBooking(ctx, token, in.Customer, in.Selections, preBooking)
	if supErr != nil {
		// Keep an audit row anyway; the supplier outcome and the storage
		// outcome are reported separately.
		storeErr := s.repo.CreateBooking(ctx, b)
		if storeErr != nil {
			log.Error().Err(storeErr).Str("booking", b.ID).Msg("audit write after supplier failure also failed")
		}
		return domain.Booking{}, &domain.SupplierBookingError{Err: supErr, StoredForAudit: storeErr == nil}
	}

	b.SupplierBookingID = res.BookingID
	b.SupplierState = res.State
	if res.TotalPrice != nil {
		b.TotalPrice = *res.TotalPrice
	}
	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return domain.Booking{}, fmt.Errorf("persist booking: %w", err)
	}
	log.Info().Str("booking", b.ID).Str("supplier_state", strOrEmpty(res.State)).
		Bool("pre_booking", preBooking).Msg("booking created")
	return b, nil
}

// matchSelections rejects selections that do not correspond to a bookable
// offer in the fresh search, before any non-idempotent supplier call.
func matchSelections(hotels []domain.HotelSearchResult, sels []domain.RoomSelection) error {
	bookable := BookableView(hotels)
	for _, sel := range sels {
		found := false
		for _, h := range bookable {
			if h.HotelID != sel.HotelID {
				continue
			}
			for _, r := range h.Rooms {
				if r.RoomID == sel.RoomID {
					found = true
					break
				}
			}
		}
		if !found {
			return &domain.ValidationError{
				Field:  "selections",
				Reason: fmt.Sprintf("room %d at hotel %d is not instantly bookable for this stay", sel.RoomID, sel.HotelID),
			}
		}
	}
	return nil
}

func (s *BookingService) Get(ctx context.Context, id string) (domain.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// Checkout applies the configured policy and registers a pre-authorization.
func (s *BookingService) Checkout(ctx context.Context, bookingID string) (domain.CheckoutResult, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	if b.Status != domain.BookingPending {
		return domain.CheckoutResult{}, &domain.ValidationError{Field: "booking", Reason: "booking is not pending"}
	}
	if b.PaymentStatus != domain.PaymentPending {
		return domain.CheckoutResult{}, &domain.ValidationError{Field: "booking", Reason: "payment already in progress"}
	}

	if s.policy == domain.PolicyStrict {
		bal, err := s.supplier.CreditCheck(ctx)
		if err != nil {
			observability.ObserveCheckout(string(s.policy), "error")
			return domain.CheckoutResult{}, err
		}
		if bal.Remaining < b.TotalPrice {
			// A short wallet is a business outcome, not a failure: the
			// booking falls back to on-request and no hold is placed.
			state := domain.SupplierStateOnRequest
			if err := s.repo.UpdateBookingState(ctx, b.ID, domain.BookingPending, &state); err != nil {
				return domain.CheckoutResult{}, err
			}
			b.SupplierState = &state
			observability.ObserveCheckout(string(s.policy), "blocked")
			return domain.CheckoutResult{
				Booking: &b,
				Blocked: true,
				Reason:  "wallet_insufficient",
				Deficit: b.TotalPrice - bal.Remaining,
			}, nil
		}
	}

	amount := MinorUnits(b.TotalPrice, b.Currency)
	orderNumber := fmt.Sprintf("%s-%d", b.ID, s.now().UnixNano())

	order, err := s.gateway.RegisterPreAuth(ctx, domain.PreAuth{
		OrderNumber: orderNumber,
		Amount:      amount,
		Currency:    CurrencyNumeric(b.Currency),
		Description: fmt.Sprintf("hotel booking %s", b.ID),
		ReturnURL:   s.returnURL,
	})
	if err != nil {
		observability.ObserveCheckout(string(s.policy), "error")
		return domain.CheckoutResult{}, err
	}

	p := domain.Payment{
		ID:          s.newID(),
		BookingID:   b.ID,
		OrderID:     order.OrderID,
		OrderNumber: orderNumber,
		Amount:      amount,
		Currency:    b.Currency,
		Status:      domain.PaymentPending,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("persist payment: %w", err)
	}
	observability.ObserveCheckout(string(s.policy), "ok")
	log.Info().Str("booking", b.ID).Str("order", order.OrderID).
		Int64("amount_minor", amount).Msg("pre-authorization registered")
	return domain.CheckoutResult{Booking: &b, Payment: &p, PaymentURL: order.FormURL}, nil
}

// HandleCallback reconciles an asynchronous gateway notification. Signature
// verification happens before anything else; a rejected callback changes no
// state.
func (s *BookingService) HandleCallback(ctx context.Context, cb domain.PaymentCallback) error {
	if err := s.gateway.VerifyCallback(cb); err != nil {
		observability.ObserveCallback("rejected")
		return err
	}

	ps, bs, err := MapCallback(cb.OrderStatus, cb.ActionCode)
	if err != nil {
		observability.ObserveCallback("error")
		return err
	}
	if err := s.repo.ApplyCallback(ctx, cb.OrderID, ps, bs, cb.ApprovalCode, cb.MaskedCard); err != nil {
		observability.ObserveCallback("error")
		return fmt.Errorf("apply callback for order %s: %w", cb.OrderID, err)
	}
	observability.ObserveCallback("applied")
	log.Info().Str("order", cb.OrderID).Str("payment_status", string(ps)).
		Str("booking_status", string(bs)).Msg("payment callback reconciled")
	return nil
}

// Gateway order statuses.
const (
	orderStatusApproved = 1 // funds held
	orderStatusCaptured = 2 // funds deposited
	orderStatusReversed = 3
	orderStatusRefunded = 4
	orderStatusDeclined = 6
)

// MapCallback maps the gateway's (orderStatus, actionCode) pair onto the
// orthogonal payment/booking state pair.
func MapCallback(orderStatus, actionCode int) (domain.PaymentStatus, domain.BookingStatus, error) {
	if actionCode != 0 {
		return domain.PaymentFailed, domain.BookingCancelled, nil
	}
	switch orderStatus {
	case orderStatusApproved:
		return domain.PaymentAuthorized, domain.BookingConfirmed, nil
	case orderStatusCaptured:
		return domain.PaymentCaptured, domain.BookingConfirmed, nil
	case orderStatusReversed, orderStatusRefunded:
		return domain.PaymentReversed, domain.BookingCancelled, nil
	case orderStatusDeclined:
		return domain.PaymentFailed, domain.BookingCancelled, nil
	}
	return "", "", &domain.BusinessError{
		Service: "callback",
		Code:    fmt.Sprintf("order_status_%d", orderStatus),
		Message: "unrecognized gateway order status",
	}
}

// minorUnitFactors maps ISO currency codes to their minor-unit factor. The
// Tunisian dinar settles in millimes.
var minorUnitFactors = map[string]int64{
	"TND": 1000,
	"KWD": 1000,
	"BHD": 1000,
	"JPY": 1,
}

// MinorUnits converts a decimal amount to the gateway's integer
// representation.
func MinorUnits(amount float64, currency string) int64 {
	factor, ok := minorUnitFactors[currency]
	if !ok {
		factor = 100
	}
	return int64(math.Round(amount * float64(factor)))
}

var currencyNumeric = map[string]string{
	"TND": "788",
	"EUR": "978",
	"USD": "840",
}

// CurrencyNumeric returns the ISO 4217 numeric code the gateway expects,
// falling back to the alphabetic code for currencies we do not map.
func CurrencyNumeric(code string) string {
	if n, ok := currencyNumeric[code]; ok {
		return n
	}
	return code
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
