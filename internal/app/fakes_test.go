package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// ---- fakes ----

type fakeSupplier struct {
	mu sync.Mutex

	searchRes domain.SearchResult
	searchErr error
	searches  int

	bookingRes domain.BookingResult
	bookingErr error
	bookings   int

	credit    domain.CreditBalance
	creditErr error
	credits   int

	cities    []domain.City
	citiesErr error

	hotelsByCity map[int64][]domain.Hotel
	hotelsErr    error
	hotelCalls   int

	refItems map[string][]domain.ReferenceItem
	refErr   error
}

func (f *fakeSupplier) ListCities(ctx context.Context) ([]domain.City, error) {
	return f.cities, f.citiesErr
}

func (f *fakeSupplier) ListHotels(ctx context.Context, cityID int64) ([]domain.Hotel, error) {
	f.mu.Lock()
	f.hotelCalls++
	f.mu.Unlock()
	if f.hotelsErr != nil {
		return nil, f.hotelsErr
	}
	return f.hotelsByCity[cityID], nil
}

func (f *fakeSupplier) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()
	return f.searchRes, f.searchErr
}

func (f *fakeSupplier) CreateBooking(ctx context.Context, token string, c domain.Customer, sels []domain.RoomSelection, preBooking bool) (domain.BookingResult, error) {
	f.mu.Lock()
	f.bookings++
	f.mu.Unlock()
	return f.bookingRes, f.bookingErr
}

func (f *fakeSupplier) CreditCheck(ctx context.Context) (domain.CreditBalance, error) {
	f.mu.Lock()
	f.credits++
	f.mu.Unlock()
	return f.credit, f.creditErr
}

func (f *fakeSupplier) ListReference(ctx context.Context, service string) ([]domain.ReferenceItem, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.refItems[service], nil
}

type fakeRefRepo struct {
	mu     sync.Mutex
	cities []domain.City
	hotels map[int64][]domain.Hotel

	replaceCalls int
	upsertCalls  int
	listErr      error
}

func newFakeRefRepo() *fakeRefRepo {
	return &fakeRefRepo{hotels: map[int64][]domain.Hotel{}}
}

func (r *fakeRefRepo) ReplaceCities(ctx context.Context, cs []domain.City) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	r.cities = append([]domain.City(nil), cs...)
	return nil
}

func (r *fakeRefRepo) UpsertHotels(ctx context.Context, hs []domain.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	for _, h := range hs {
		r.hotels[h.CityID] = append(r.hotels[h.CityID], h)
	}
	return nil
}

func (r *fakeRefRepo) ListCities(ctx context.Context) ([]domain.City, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.cities, nil
}

func (r *fakeRefRepo) ListHotels(ctx context.Context, cityID int64) ([]domain.Hotel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.hotels[cityID], nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
	payments map[string]domain.Payment // by order id

	applyErr error
	applied  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: map[string]domain.Booking{},
		payments: map[string]domain.Payment{},
	}
}

func (r *fakeRepo) CreateBooking(ctx context.Context, b domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = b
	return nil
}

func (r *fakeRepo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (r *fakeRepo) UpdateBookingState(ctx context.Context, id string, status domain.BookingStatus, supplierState *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	if supplierState != nil {
		b.SupplierState = supplierState
	}
	r.bookings[id] = b
	return nil
}

func (r *fakeRepo) CreatePayment(ctx context.Context, p domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.OrderID] = p
	return nil
}

func (r *fakeRepo) GetPaymentByOrderID(ctx context.Context, orderID string) (domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return domain.Payment{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) ApplyCallback(ctx context.Context, orderID string, ps domain.PaymentStatus, bs domain.BookingStatus, approvalCode, maskedCard *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return r.applyErr
	}
	p, ok := r.payments[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = ps
	p.ApprovalCode = approvalCode
	p.MaskedCard = maskedCard
	r.payments[orderID] = p
	b := r.bookings[p.BookingID]
	b.Status = bs
	b.PaymentStatus = ps
	r.bookings[p.BookingID] = b
	r.applied++
	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	order     domain.PreAuthOrder
	regErr    error
	registers int
	lastPre   domain.PreAuth

	verifyErr error
}

func (g *fakeGateway) RegisterPreAuth(ctx context.Context, p domain.PreAuth) (domain.PreAuthOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registers++
	g.lastPre = p
	return g.order, g.regErr
}

func (g *fakeGateway) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderState, error) {
	return domain.OrderState{}, errors.New("not implemented")
}

func (g *fakeGateway) Deposit(ctx context.Context, orderID string, amount int64) error { return nil }

func (g *fakeGateway) Reverse(ctx context.Context, orderID string) error { return nil }

func (g *fakeGateway) VerifyCallback(cb domain.PaymentCallback) error { return g.verifyErr }
