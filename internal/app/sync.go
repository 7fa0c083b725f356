package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// SyncService refreshes the local reference tables from the supplier. Cities
// are replaced wholesale; hotels are fetched per city with a bounded worker
// fan-out and upserted.
type SyncService struct {
	supplier domain.SupplierClient
	repo     domain.ReferenceRepository
	cache    domain.Cache
}

func NewSyncService(sc domain.SupplierClient, repo domain.ReferenceRepository, cache domain.Cache) *SyncService {
	return &SyncService{supplier: sc, repo: repo, cache: cache}
}

// SyncAll fetches cities then fans out over them to sync hotels. A failed
// city leaves the previous rows for that city in place; the sync keeps going.
func (s *SyncService) SyncAll(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 4
	}

	cities, err := s.supplier.ListCities(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceCities(ctx, cities); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cityCacheKey)
	}
	log.Info().Int("cities", len(cities)).Msg("city list replaced")

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for _, c := range cities {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(city domain.City) {
			defer wg.Done()
			defer sem.Release(1)
			if err := s.syncCity(ctx, city); err != nil {
				log.Warn().Int64("city", city.ID).Err(err).Msg("hotel sync failed")
				return
			}
			log.Info().Int64("city", city.ID).Str("name", city.Name).Msg("hotel sync ok")
		}(c)
	}
	wg.Wait()
	return nil
}

func (s *SyncService) syncCity(ctx context.Context, city domain.City) error {
	hotels, err := s.supplier.ListHotels(ctx, city.ID)
	if err != nil {
		return err
	}
	if len(hotels) == 0 {
		return nil
	}
	return s.repo.UpsertHotels(ctx, hotels)
}
