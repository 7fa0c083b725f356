package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// SearchService resolves availability queries: cache first, supplier on miss.
// The supplier's search token stays inside this service; callers only ever
// see token-free hotel lists.
type SearchService struct {
	supplier domain.SupplierClient
	cache    domain.Cache
	ttl      time.Duration
}

func NewSearchService(sc domain.SupplierClient, cache domain.Cache, ttl time.Duration) *SearchService {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &SearchService{supplier: sc, cache: cache, ttl: ttl}
}

// Normalize fills defaults so equal queries hash equally.
func Normalize(q domain.SearchQuery) domain.SearchQuery {
	if q.Currency == "" {
		q.Currency = "TND"
	}
	return q
}

// Fingerprint is the deterministic, token-free cache identity of a query.
// SearchQuery is a struct, so encoding/json emits its fields in declaration
// order; together with Normalize that makes the key stable across callers.
func Fingerprint(q domain.SearchQuery) string {
	b, err := json.Marshal(Normalize(q))
	if err != nil {
		// A SearchQuery is plain data; this cannot fail for valid input.
		panic(fmt.Sprintf("fingerprint: %v", err))
	}
	sum := sha256.Sum256(b)
	return "search:" + hex.EncodeToString(sum[:16])
}

func validateQuery(q domain.SearchQuery) error {
	if q.CityID <= 0 {
		return &domain.ValidationError{Field: "cityId", Reason: "must be positive"}
	}
	ci, err := time.Parse("2006-01-02", q.CheckIn)
	if err != nil {
		return &domain.ValidationError{Field: "checkIn", Reason: "must be YYYY-MM-DD"}
	}
	co, err := time.Parse("2006-01-02", q.CheckOut)
	if err != nil {
		return &domain.ValidationError{Field: "checkOut", Reason: "must be YYYY-MM-DD"}
	}
	if !co.After(ci) {
		return &domain.ValidationError{Field: "checkOut", Reason: "must be after checkIn"}
	}
	if len(q.Rooms) == 0 {
		return &domain.ValidationError{Field: "rooms", Reason: "at least one room required"}
	}
	for _, r := range q.Rooms {
		if r.Adults <= 0 {
			return &domain.ValidationError{Field: "rooms.adults", Reason: "must be positive"}
		}
	}
	return nil
}

// Search returns the visible view: every hotel, rooms without a price
// dropped, availability flags derived. The result never carries the token.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.HotelSearchResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	q = Normalize(q)
	key := Fingerprint(q)

	var cached []domain.HotelSearchResult
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	res, err := s.supplier.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	hotels := VisibleView(res.Hotels)

	if err := guardTokenFree(hotels, res.Token); err != nil {
		// Invariant violation: never cache a payload carrying the token.
		return nil, err
	}
	if err := s.cache.Set(ctx, key, hotels, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("search cache write failed")
	}
	return hotels, nil
}

// searchLive always calls the supplier and keeps the token, for booking paths
// that need a fresh priced search. Results from this path are never cached.
func (s *SearchService) searchLive(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if err := validateQuery(q); err != nil {
		return domain.SearchResult{}, err
	}
	return s.supplier.Search(ctx, Normalize(q))
}

// VisibleView keeps all hotels for browsing: rooms without a price are
// dropped, per-hotel flags recomputed.
func VisibleView(in []domain.HotelSearchResult) []domain.HotelSearchResult {
	out := make([]domain.HotelSearchResult, 0, len(in))
	for _, h := range in {
		rooms := make([]domain.RoomOffer, 0, len(h.Rooms))
		for _, r := range h.Rooms {
			if r.Price <= 0 {
				continue
			}
			rooms = append(rooms, r)
		}
		h.Rooms = rooms
		deriveFlags(&h)
		out = append(out, h)
	}
	return out
}

// BookableView keeps only what can be booked right now: on-request rooms are
// dropped, then hotels left without rooms are dropped.
func BookableView(in []domain.HotelSearchResult) []domain.HotelSearchResult {
	var out []domain.HotelSearchResult
	for _, h := range in {
		rooms := make([]domain.RoomOffer, 0, len(h.Rooms))
		for _, r := range h.Rooms {
			if r.OnRequest || r.Price <= 0 {
				continue
			}
			rooms = append(rooms, r)
		}
		if len(rooms) == 0 {
			continue
		}
		h.Rooms = rooms
		deriveFlags(&h)
		out = append(out, h)
	}
	return out
}

func deriveFlags(h *domain.HotelSearchResult) {
	instant := false
	for _, r := range h.Rooms {
		if !r.OnRequest {
			instant = true
			break
		}
	}
	h.Available = instant
	h.HasInstantConfirmation = instant
}

// tokenKeyNames are field names that would smuggle a token into the cache.
var tokenKeyNames = map[string]struct{}{
	"token":        {},
	"searchtoken":  {},
	"search_token": {},
}

// guardTokenFree walks the serialized value and fails hard if any field name
// is token-shaped or any string value equals the live token. Raising here is
// deliberate: silently stripping would hide the bug that put the token there.
func guardTokenFree(v any, token string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return err
	}
	if leak := findTokenShape(tree, token); leak != "" {
		return fmt.Errorf("cache value %s: %w", leak, domain.ErrTokenLeak)
	}
	return nil
}

func findTokenShape(v any, token string) string {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if _, bad := tokenKeyNames[strings.ToLower(k)]; bad {
				return "carries field " + k
			}
			if leak := findTokenShape(val, token); leak != "" {
				return leak
			}
		}
	case []any:
		for _, val := range t {
			if leak := findTokenShape(val, token); leak != "" {
				return leak
			}
		}
	case string:
		if token != "" && t == token {
			return "carries the search token as a value"
		}
	}
	return ""
}

// HashToken produces the salted audit form of a search token. The plaintext
// is never persisted.
func HashToken(salt, token string) string {
	sum := sha256.Sum256([]byte(salt + ":" + token))
	return hex.EncodeToString(sum[:])
}
