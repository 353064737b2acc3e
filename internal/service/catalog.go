package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	placeCacheKey = "catalog:places"
	placeCacheTTL = time.Minute
)

// Catalog serves the reference data: bookable places and the period universe
// per place. The place list goes through a short-TTL redis cache when a
// client is configured; the cache is never consulted on the commit path.
type Catalog struct {
	places  repository.PlaceStore
	periods repository.PeriodStore
	cache   *redis.Client
	logger  *zap.Logger
}

func NewCatalog(places repository.PlaceStore, periods repository.PeriodStore, cache *redis.Client, logger *zap.Logger) *Catalog {
	return &Catalog{places: places, periods: periods, cache: cache, logger: logger}
}

func (c *Catalog) ListActivePlaces(ctx context.Context) ([]models.Place, error) {
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, placeCacheKey).Bytes(); err == nil {
			var out []models.Place
			if json.Unmarshal(cached, &out) == nil {
				return out, nil
			}
		}
	}

	out, err := c.places.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := c.cache.Set(ctx, placeCacheKey, data, placeCacheTTL).Err(); err != nil {
				c.logger.Debug("place cache write failed", zap.Error(err))
			}
		}
	}
	return out, nil
}

func (c *Catalog) ListPeriods(ctx context.Context, placeID string) ([]models.Period, error) {
	return c.periods.ListForPlace(ctx, placeID)
}
