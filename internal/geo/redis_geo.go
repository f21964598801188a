package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-hail/internal/models"
)

// RedisIndex implements Index over Redis GEO commands. The consumer
// pipeline (cmd/consumer) keeps the same key current from Kafka.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(client *redis.Client, key string) *RedisIndex {
	return &RedisIndex{client: client, key: key}
}

func (r *RedisIndex) Upsert(ctx context.Context, driverID string, loc models.Coord) error {
	return r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      driverID,
		Longitude: loc.Lon,
		Latitude:  loc.Lat,
	}).Err()
}

func (r *RedisIndex) Remove(ctx context.Context, driverID string) error {
	return r.client.ZRem(ctx, r.key, driverID).Err()
}

func (r *RedisIndex) FindNearby(ctx context.Context, center models.Coord, radiusKm float64) ([]string, error) {
	res, err := r.client.GeoSearch(ctx, r.key, &redis.GeoSearchQuery{
		Longitude:  center.Lon,
		Latitude:   center.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	return res, nil
}
