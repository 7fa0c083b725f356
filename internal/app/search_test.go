package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/app"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func baseQuery() domain.SearchQuery {
	return domain.SearchQuery{
		CityID:   1,
		CheckIn:  "2026-03-01",
		CheckOut: "2026-03-05",
		Rooms:    []domain.RoomQuery{{Adults: 2}},
	}
}

func oneHotelResult(token string) domain.SearchResult {
	return domain.SearchResult{
		Token: token,
		Hotels: []domain.HotelSearchResult{{
			HotelID:                11,
			Name:                   "Dar El Medina",
			Available:              true,
			HasInstantConfirmation: true,
			Rooms: []domain.RoomOffer{
				{RoomID: 5, Price: 150.5, OnRequest: false},
			},
		}},
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := baseQuery()
	b := baseQuery()
	b.Currency = "TND" // explicit default must hash like the implicit one
	if app.Fingerprint(a) != app.Fingerprint(b) {
		t.Fatal("equal queries must produce equal cache keys")
	}

	c := baseQuery()
	c.CheckOut = "2026-03-06"
	if app.Fingerprint(a) == app.Fingerprint(c) {
		t.Fatal("different queries must not collide")
	}
}

func TestSearch_CacheMissThenHit(t *testing.T) {
	sup := &fakeSupplier{searchRes: oneHotelResult("tok-1")}
	cache := &fakeCache{}
	svc := app.NewSearchService(sup, cache, 2*time.Minute)

	hotels, err := svc.Search(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hotels) != 1 || hotels[0].HotelID != 11 {
		t.Fatalf("hotels = %+v", hotels)
	}
	if !hotels[0].Available || !hotels[0].HasInstantConfirmation {
		t.Fatalf("flags = %+v", hotels[0])
	}

	// Make the supplier answer differently; a cache hit must shield us.
	sup.searchRes = domain.SearchResult{Token: "tok-2"}
	hotels2, err := svc.Search(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hotels2) != 1 || hotels2[0].HotelID != 11 {
		t.Fatalf("expected cached result, got %+v", hotels2)
	}
	if sup.searches != 1 {
		t.Fatalf("supplier called %d times, want 1", sup.searches)
	}
}

func TestSearch_TokenNeverCachedOrReturned(t *testing.T) {
	sup := &fakeSupplier{searchRes: oneHotelResult("secret-token")}
	cache := &fakeCache{}
	svc := app.NewSearchService(sup, cache, 2*time.Minute)

	_, err := svc.Search(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for key, raw := range cache.store {
		if containsToken(t, raw, "secret-token") {
			t.Fatalf("cache entry %s carries the search token", key)
		}
	}
}

func containsToken(t *testing.T, raw []byte, token string) bool {
	t.Helper()
	return len(raw) > 0 && (stringContains(string(raw), token))
}

func stringContains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestSearch_TokenShapedFieldRejectedNotStripped(t *testing.T) {
	res := oneHotelResult("tok")
	// A passthrough field carrying a token must fail the cache write loudly.
	res.Hotels[0].Extra = map[string]any{"SearchToken": "tok"}
	sup := &fakeSupplier{searchRes: res}
	cache := &fakeCache{}
	svc := app.NewSearchService(sup, cache, 2*time.Minute)

	_, err := svc.Search(context.Background(), baseQuery())
	if !errors.Is(err, domain.ErrTokenLeak) {
		t.Fatalf("expected ErrTokenLeak, got %v", err)
	}
	if len(cache.store) != 0 {
		t.Fatal("nothing may be cached after a token-leak violation")
	}
}

func TestSearch_ValidationBeforeSupplierCall(t *testing.T) {
	sup := &fakeSupplier{}
	svc := app.NewSearchService(sup, &fakeCache{}, time.Minute)

	bad := baseQuery()
	bad.CheckOut = "2026-02-28" // before check-in
	_, err := svc.Search(context.Background(), bad)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if sup.searches != 0 {
		t.Fatal("no supplier call may happen for invalid input")
	}
}

func TestViews(t *testing.T) {
	in := []domain.HotelSearchResult{
		{
			HotelID: 1,
			Rooms: []domain.RoomOffer{
				{RoomID: 1, Price: 100, OnRequest: false},
				{RoomID: 2, Price: 0, OnRequest: false},   // priceless: dropped everywhere
				{RoomID: 3, Price: 120, OnRequest: true},  // on-request: visible only
			},
		},
		{
			HotelID: 2,
			Rooms: []domain.RoomOffer{
				{RoomID: 4, Price: 80, OnRequest: true},
			},
		},
	}

	visible := app.VisibleView(in)
	if len(visible) != 2 {
		t.Fatalf("visible hotels = %d", len(visible))
	}
	if len(visible[0].Rooms) != 2 {
		t.Fatalf("visible rooms for hotel 1 = %d", len(visible[0].Rooms))
	}
	if !visible[0].Available || visible[1].Available {
		t.Fatalf("availability flags wrong: %+v", visible)
	}
	if visible[1].HasInstantConfirmation {
		t.Fatal("all-on-request hotel cannot have instant confirmation")
	}

	bookable := app.BookableView(in)
	if len(bookable) != 1 || bookable[0].HotelID != 1 {
		t.Fatalf("bookable = %+v", bookable)
	}
	if len(bookable[0].Rooms) != 1 || bookable[0].Rooms[0].RoomID != 1 {
		t.Fatalf("bookable rooms = %+v", bookable[0].Rooms)
	}
}

func TestAvailableIffSomeInstantRoom(t *testing.T) {
	for _, tc := range []struct {
		name      string
		onRequest []bool
		want      bool
	}{
		{"all instant", []bool{false, false}, true},
		{"mixed", []bool{true, false}, true},
		{"all on-request", []bool{true, true}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := domain.HotelSearchResult{HotelID: 1}
			for i, or := range tc.onRequest {
				h.Rooms = append(h.Rooms, domain.RoomOffer{RoomID: int64(i), Price: 10, OnRequest: or})
			}
			out := app.VisibleView([]domain.HotelSearchResult{h})
			if out[0].Available != tc.want || out[0].HasInstantConfirmation != tc.want {
				t.Fatalf("available = %v, want %v", out[0].Available, tc.want)
			}
		})
	}
}

func TestHashToken_SaltedAndStable(t *testing.T) {
	a := app.HashToken("salt", "tok")
	if a != app.HashToken("salt", "tok") {
		t.Fatal("hash must be stable")
	}
	if a == app.HashToken("other", "tok") {
		t.Fatal("salt must matter")
	}
	if a == "tok" || stringContains(a, "tok") {
		t.Fatal("hash must not embed the token")
	}
}
