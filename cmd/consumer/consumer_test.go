package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-hail/internal/models"
)

type fakeRedis struct {
	geoFailures  int
	hsetFailures int
	geoCalls     int
	hsetCalls    int
	lastLoc      *redis.GeoLocation
}

func (f *fakeRedis) GeoAdd(_ context.Context, _ string, loc *redis.GeoLocation) error {
	f.geoCalls++
	if f.geoCalls <= f.geoFailures {
		return errors.New("geoadd down")
	}
	f.lastLoc = loc
	return nil
}

func (f *fakeRedis) HSet(_ context.Context, _ string, _ map[string]interface{}) error {
	f.hsetCalls++
	if f.hsetCalls <= f.hsetFailures {
		return errors.New("hset down")
	}
	return nil
}

func TestUpdateRedisWithRetrySucceedsFirstTry(t *testing.T) {
	f := &fakeRedis{}
	u := &models.LocationUpdate{DriverID: "d1", Loc: models.Coord{Lat: 12.9, Lon: 77.6}, At: time.Now()}
	if err := updateRedisWithRetry(context.Background(), f, "drivers_geo", u, 3, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.geoCalls != 1 {
		t.Fatalf("expected 1 geoadd call, got %d", f.geoCalls)
	}
	if f.lastLoc == nil || f.lastLoc.Name != "d1" || f.lastLoc.Latitude != 12.9 {
		t.Fatalf("wrong location written: %+v", f.lastLoc)
	}
}

func TestUpdateRedisWithRetryRecovers(t *testing.T) {
	f := &fakeRedis{geoFailures: 2}
	u := &models.LocationUpdate{DriverID: "d1", Loc: models.Coord{Lat: 1, Lon: 2}, At: time.Now()}
	if err := updateRedisWithRetry(context.Background(), f, "drivers_geo", u, 3, time.Millisecond); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if f.geoCalls != 3 {
		t.Fatalf("expected 3 geoadd calls, got %d", f.geoCalls)
	}
}

func TestUpdateRedisWithRetryGivesUp(t *testing.T) {
	f := &fakeRedis{geoFailures: 10}
	u := &models.LocationUpdate{DriverID: "d1", Loc: models.Coord{Lat: 1, Lon: 2}, At: time.Now()}
	if err := updateRedisWithRetry(context.Background(), f, "drivers_geo", u, 3, time.Millisecond); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
}
