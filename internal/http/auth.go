package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/ride-hail/internal/models"
)

const (
	roleRider  = models.RoleRider
	roleDriver = models.RoleDriver
)

const principalKey contextKey = "principal"

// identityClaims is what the identity service puts in its tokens. The
// core trusts the token fully once the signature checks out.
type identityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) parseToken(tokenString string) (models.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &identityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return models.Principal{}, err
	}
	claims, ok := token.Claims.(*identityClaims)
	if !ok || claims.Subject == "" {
		return models.Principal{}, fmt.Errorf("malformed claims")
	}
	role := models.Role(claims.Role)
	if role != models.RoleRider && role != models.RoleDriver {
		return models.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return models.Principal{ID: claims.Subject, Role: role}, nil
}

// bearerToken pulls the token from the Authorization header, falling back
// to the token query parameter for websocket clients that cannot set
// headers.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// requireRole guards a handler behind a specific party role.
func (s *Server) requireRole(role models.Role, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{"missing credentials"})
			return
		}
		if p.Role != role {
			writeJSON(w, http.StatusForbidden, errorBody{"wrong role for this endpoint"})
			return
		}
		h(w, r)
	})
}
