package supplier

import (
	"context"
	"fmt"
	"time"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// Client implements domain.SupplierClient over one configured dialect.
type Client struct {
	t    *transport
	c    codec
	cred Credential
}

// Options tune the client beyond base URL and credentials.
type Options struct {
	// Dialect selects the wire format: "json" (canonical) or "xml" (legacy).
	Dialect string
	Timeout time.Duration
	RPS     int
}

func New(base string, cred Credential, opts Options) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("supplier: base URL is required")
	}
	if cred.Login == "" || cred.Password == "" {
		return nil, fmt.Errorf("supplier: credentials are required")
	}
	var c codec
	switch opts.Dialect {
	case "", "json":
		c = jsonCodec{}
	case "xml":
		c = xmlCodec{}
	default:
		return nil, fmt.Errorf("supplier: unknown dialect %q", opts.Dialect)
	}
	return &Client{
		t:    newTransport(base, opts.Timeout, opts.RPS),
		c:    c,
		cred: cred,
	}, nil
}

func (cl *Client) ListCities(ctx context.Context) ([]domain.City, error) {
	body, err := cl.c.encodeList(SvcListCity, cl.cred)
	if err != nil {
		return nil, err
	}
	raw, err := cl.t.call(ctx, SvcListCity, cl.c.contentType(), body, true)
	if err != nil {
		return nil, err
	}
	return cl.c.decodeCities(raw)
}

func (cl *Client) ListHotels(ctx context.Context, cityID int64) ([]domain.Hotel, error) {
	body, err := cl.c.encodeListHotels(cl.cred, cityID)
	if err != nil {
		return nil, err
	}
	raw, err := cl.t.call(ctx, SvcListHotel, cl.c.contentType(), body, true)
	if err != nil {
		return nil, err
	}
	return cl.c.decodeHotels(raw, cityID)
}

func (cl *Client) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	body, err := cl.c.encodeSearch(cl.cred, q)
	if err != nil {
		return domain.SearchResult{}, err
	}
	raw, err := cl.t.call(ctx, SvcHotelSearch, cl.c.contentType(), body, true)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return cl.c.decodeSearch(raw)
}

// CreateBooking is non-idempotent: a retried call could create a duplicate
// reservation with the supplier. The transport therefore makes exactly one
// attempt; resilience belongs to manual reconciliation, not blind retry.
func (cl *Client) CreateBooking(ctx context.Context, token string, c domain.Customer, sels []domain.RoomSelection, preBooking bool) (domain.BookingResult, error) {
	body, err := cl.c.encodeBooking(cl.cred, token, c, sels, preBooking)
	if err != nil {
		return domain.BookingResult{}, err
	}
	raw, err := cl.t.call(ctx, SvcBookingCreation, cl.c.contentType(), body, false)
	if err != nil {
		return domain.BookingResult{}, err
	}
	return cl.c.decodeBooking(raw)
}

func (cl *Client) CreditCheck(ctx context.Context) (domain.CreditBalance, error) {
	body, err := cl.c.encodeList(SvcCreditCheck, cl.cred)
	if err != nil {
		return domain.CreditBalance{}, err
	}
	raw, err := cl.t.call(ctx, SvcCreditCheck, cl.c.contentType(), body, true)
	if err != nil {
		return domain.CreditBalance{}, err
	}
	return cl.c.decodeCredit(raw)
}

func (cl *Client) ListReference(ctx context.Context, service string) ([]domain.ReferenceItem, error) {
	ok := false
	for _, s := range ReferenceServices {
		if s == service {
			ok = true
			break
		}
	}
	if !ok {
		return nil, &domain.ValidationError{Field: "service", Reason: "unknown reference list " + service}
	}
	body, err := cl.c.encodeList(service, cl.cred)
	if err != nil {
		return nil, err
	}
	raw, err := cl.t.call(ctx, service, cl.c.contentType(), body, true)
	if err != nil {
		return nil, err
	}
	return cl.c.decodeReference(service, raw)
}
