package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// RefService serves supplier reference data (cities, hotels, misc lists).
// Correctness never depends on the cache being warm: a miss falls through to
// the supplier, and a supplier failure degrades to the last-known-good copy,
// then the database, then the static built-in dataset. The availability and
// booking paths have no such fallback on purpose.
type RefService struct {
	supplier domain.SupplierClient
	repo     domain.ReferenceRepository
	cache    domain.Cache
	ttl      time.Duration
}

func NewRefService(sc domain.SupplierClient, repo domain.ReferenceRepository, cache domain.Cache, ttl time.Duration) *RefService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RefService{supplier: sc, repo: repo, cache: cache, ttl: ttl}
}

const (
	cityCacheKey    = "ref:cities"
	cityCacheKeyLKG = "ref:cities:lkg" // last known good, no expiry
)

func (s *RefService) Cities(ctx context.Context) ([]domain.City, error) {
	var cached []domain.City
	if ok, err := s.cache.Get(ctx, cityCacheKey, &cached); err == nil && ok {
		return cached, nil
	}

	cities, err := s.supplier.ListCities(ctx)
	if err == nil {
		_ = s.cache.Set(ctx, cityCacheKey, cities, s.ttl)
		_ = s.cache.Set(ctx, cityCacheKeyLKG, cities, 0)
		return cities, nil
	}
	log.Warn().Err(err).Msg("ListCity failed, falling back")

	if ok, cerr := s.cache.Get(ctx, cityCacheKeyLKG, &cached); cerr == nil && ok && len(cached) > 0 {
		return cached, nil
	}
	if fromDB, derr := s.repo.ListCities(ctx); derr == nil && len(fromDB) > 0 {
		return fromDB, nil
	}
	return fallbackCities, nil
}

// HotelsByCity reads from the synced database first and asks the supplier
// only when the sync has not covered the city yet.
func (s *RefService) HotelsByCity(ctx context.Context, cityID int64) ([]domain.Hotel, error) {
	if hs, err := s.repo.ListHotels(ctx, cityID); err == nil && len(hs) > 0 {
		return hs, nil
	}
	hs, err := s.supplier.ListHotels(ctx, cityID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertHotels(ctx, hs); err != nil {
		log.Warn().Err(err).Int64("city", cityID).Msg("hotel upsert after live fetch failed")
	}
	return hs, nil
}

// Reference serves one of the read-only supplier lists with the same
// degrade-to-last-known-good behavior as Cities.
func (s *RefService) Reference(ctx context.Context, service string) ([]domain.ReferenceItem, error) {
	key := "ref:list:" + service
	var cached []domain.ReferenceItem
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	items, err := s.supplier.ListReference(ctx, service)
	if err == nil {
		_ = s.cache.Set(ctx, key, items, s.ttl)
		_ = s.cache.Set(ctx, key+":lkg", items, 0)
		return items, nil
	}
	log.Warn().Err(err).Str("service", service).Msg("reference list failed, falling back")

	if ok, cerr := s.cache.Get(ctx, key+":lkg", &cached); cerr == nil && ok && len(cached) > 0 {
		return cached, nil
	}
	if fb, ok := fallbackReference[service]; ok {
		return fb, nil
	}
	return nil, err
}
