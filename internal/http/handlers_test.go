package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/presence"
	"github.com/example/ride-hail/internal/ride"
	"github.com/example/ride-hail/internal/storage"
)

const testSecret = "test-secret"

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, address string) (models.Coord, error) {
	if address == "B" {
		return models.Coord{Lat: 0, Lon: 0.2}, nil
	}
	return models.Coord{Lat: 0, Lon: 0}, nil
}

func (staticResolver) Suggest(_ context.Context, input string) ([]string, error) {
	return []string{input + " Road"}, nil
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.PutRider(context.Background(), &models.Rider{ID: "rider-1", Name: "Asha"})
	store.PutDriver(context.Background(), &models.Driver{ID: "driver-1", Name: "Ravi", Status: models.DriverInactive})

	idx := geo.NewMemoryIndex()
	reg := presence.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := staticResolver{}
	notifier := dispatch.NewNotifier(idx, resolver, reg, logger)
	rides := ride.NewService(store, store, resolver, notifier, logger)

	return NewServer(Deps{
		Rides:     rides,
		Parties:   store,
		Store:     store,
		Resolver:  resolver,
		Presence:  reg,
		Geo:       idx,
		Logger:    logger,
		JWTSecret: testSecret,
	}), store
}

func makeToken(t *testing.T, id string, role models.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  id,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/rides", "", requestRideBody{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequestRideWrongRole(t *testing.T) {
	s, _ := newTestServer(t)
	tok := makeToken(t, "driver-1", models.RoleDriver)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/rides", tok, requestRideBody{
		Pickup: "A", Destination: "B", Class: models.ClassMini,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequestRideReturnsOTPOnce(t *testing.T) {
	s, _ := newTestServer(t)
	tok := makeToken(t, "rider-1", models.RoleRider)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/rides", tok, requestRideBody{
		Pickup: "A", Destination: "B", Class: models.ClassMini,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Ride
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Status != models.StatusRequested || created.OTP == "" {
		t.Fatalf("bad create response: %+v", created)
	}
}

func TestConfirmRaceMapsToConflict(t *testing.T) {
	s, _ := newTestServer(t)
	riderTok := makeToken(t, "rider-1", models.RoleRider)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/rides", riderTok, requestRideBody{
		Pickup: "A", Destination: "B", Class: models.ClassMini,
	})
	var created models.Ride
	json.Unmarshal(rec.Body.Bytes(), &created)

	d1 := makeToken(t, "driver-1", models.RoleDriver)
	if rec := doJSON(t, s, http.MethodPost, "/api/v1/rides/confirm", d1, confirmRideBody{RideID: created.ID}); rec.Code != http.StatusOK {
		t.Fatalf("first confirm: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	d2 := makeToken(t, "driver-2", models.RoleDriver)
	if rec := doJSON(t, s, http.MethodPost, "/api/v1/rides/confirm", d2, confirmRideBody{RideID: created.ID}); rec.Code != http.StatusConflict {
		t.Fatalf("second confirm: expected 409, got %d", rec.Code)
	}
}

func TestStartWrongOTP(t *testing.T) {
	s, _ := newTestServer(t)
	riderTok := makeToken(t, "rider-1", models.RoleRider)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/rides", riderTok, requestRideBody{
		Pickup: "A", Destination: "B", Class: models.ClassMini,
	})
	var created models.Ride
	json.Unmarshal(rec.Body.Bytes(), &created)

	d1 := makeToken(t, "driver-1", models.RoleDriver)
	doJSON(t, s, http.MethodPost, "/api/v1/rides/confirm", d1, confirmRideBody{RideID: created.ID})

	if rec := doJSON(t, s, http.MethodPost, "/api/v1/rides/start", d1, startRideBody{RideID: created.ID, OTP: "000000"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong otp, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/v1/rides/start", d1, startRideBody{RideID: created.ID, OTP: created.OTP}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for correct otp, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFareQuoteEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	tok := makeToken(t, "rider-1", models.RoleRider)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/rides/fare?pickup=A&destination=B", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var quotes map[models.VehicleClass]models.FareQuote
	if err := json.Unmarshal(rec.Body.Bytes(), &quotes); err != nil {
		t.Fatal(err)
	}
	if _, ok := quotes[models.ClassMini]; !ok {
		t.Fatalf("expected a mini quote, got %v", quotes)
	}
}

func TestDriverStatusUpdate(t *testing.T) {
	s, _ := newTestServer(t)
	tok := makeToken(t, "driver-1", models.RoleDriver)

	rec := doJSON(t, s, http.MethodPatch, "/api/v1/drivers/status", tok, driverStatusBody{Status: models.DriverActive})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPatch, "/api/v1/drivers/status", tok, driverStatusBody{Status: "asleep"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", rec.Code)
	}
}

func TestEndRideEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	riderTok := makeToken(t, "rider-1", models.RoleRider)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/rides", riderTok, requestRideBody{
		Pickup: "A", Destination: "B", Class: models.ClassSedan,
	})
	var created models.Ride
	json.Unmarshal(rec.Body.Bytes(), &created)

	d1 := makeToken(t, "driver-1", models.RoleDriver)
	doJSON(t, s, http.MethodPost, "/api/v1/rides/confirm", d1, confirmRideBody{RideID: created.ID})
	doJSON(t, s, http.MethodPost, "/api/v1/rides/start", d1, startRideBody{RideID: created.ID, OTP: created.OTP})

	rec = doJSON(t, s, http.MethodPost, "/api/v1/rides/"+created.ID+"/end", d1, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ended models.Ride
	if err := json.Unmarshal(rec.Body.Bytes(), &ended); err != nil {
		t.Fatal(err)
	}
	if ended.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", ended.Status)
	}
	if ended.OTP != "" {
		t.Fatal("end response leaked the OTP")
	}
}
