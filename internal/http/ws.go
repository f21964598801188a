package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
	"github.com/example/ride-hail/internal/presence"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleWS is the live channel. The connection is authenticated up front,
// bound into the presence registry, and read for location updates until
// the client goes away. Unbind on exit is idempotent, so a racing
// reconnect is never evicted by the old connection's teardown.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{"missing credentials"})
		return
	}
	p, err := s.parseToken(tok)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{"invalid credentials"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sess := presence.NewSession(conn)
	s.Presence.Bind(p.ID, sess)
	if p.Role == models.RoleDriver {
		observability.DriversConnected.Inc()
	}
	s.logger.Info("party connected", "party_id", p.ID, "role", p.Role)

	defer func() {
		s.Presence.Unbind(sess)
		if p.Role == models.RoleDriver {
			observability.DriversConnected.Dec()
		}
		conn.Close()
		s.logger.Info("party disconnected", "party_id", p.ID)
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Event {
		case "location-update":
			if p.Role == models.RoleDriver {
				s.handleLocationUpdate(r, p.ID, msg.Data)
			}
		case "ping":
			_ = sess.Send("pong", time.Now().Unix())
		}
	}
}

// handleLocationUpdate keeps the driver's position current everywhere it
// matters: the geo index for dispatch, the party store for profile reads,
// and Kafka for the consumer pipeline when configured. Each write is
// best-effort and independent.
func (s *Server) handleLocationUpdate(r *http.Request, driverID string, data json.RawMessage) {
	var loc models.Coord
	if err := json.Unmarshal(data, &loc); err != nil {
		s.logger.Warn("malformed location update", "driver_id", driverID, "error", err)
		return
	}
	update := models.LocationUpdate{DriverID: driverID, Loc: loc, At: time.Now()}

	if s.Kafka != nil {
		if err := s.Kafka.PublishLocation(update); err != nil {
			s.logger.Warn("location publish failed", "driver_id", driverID, "error", err)
		}
	}
	if err := s.Geo.Upsert(r.Context(), driverID, loc); err != nil {
		s.logger.Warn("geo upsert failed", "driver_id", driverID, "error", err)
	}
	if err := s.Parties.UpdateDriverLocation(r.Context(), driverID, loc); err != nil {
		s.logger.Warn("driver location persist failed", "driver_id", driverID, "error", err)
	}
}
