// Package geocode resolves free-form addresses to coordinates via a
// Nominatim-compatible endpoint.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/ride-hail/internal/models"
)

// ErrNoMatch means the provider returned no result for the address.
var ErrNoMatch = errors.New("geocode: no match for address")

// Resolver turns address text into a coordinate and offers autocomplete
// suggestions.
type Resolver interface {
	Resolve(ctx context.Context, address string) (models.Coord, error)
	Suggest(ctx context.Context, input string) ([]string, error)
}

// Client queries a Nominatim search endpoint. Calls carry the client's
// HTTP timeout so a slow provider degrades ride creation gracefully
// instead of blocking it.
type Client struct {
	Endpoint  string
	UserAgent string
	HTTP      *http.Client
}

func NewClient(endpoint, userAgent string, timeout time.Duration) *Client {
	return &Client{
		Endpoint:  endpoint,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]searchResult, error) {
	u := fmt.Sprintf("%s/search?format=json&q=%s&limit=%d",
		c.Endpoint, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	var out []searchResult
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Resolve(ctx context.Context, address string) (models.Coord, error) {
	results, err := c.search(ctx, address, 1)
	if err != nil {
		return models.Coord{}, err
	}
	if len(results) == 0 {
		return models.Coord{}, ErrNoMatch
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coord{}, fmt.Errorf("geocode: bad latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coord{}, fmt.Errorf("geocode: bad longitude %q", results[0].Lon)
	}
	return models.Coord{Lat: lat, Lon: lon}, nil
}

// ErrShortInput rejects autocomplete inputs under three characters.
var ErrShortInput = errors.New("geocode: input must be at least 3 characters")

func (c *Client) Suggest(ctx context.Context, input string) ([]string, error) {
	if len(input) < 3 {
		return nil, ErrShortInput
	}
	results, err := c.search(ctx, input, 5)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r.DisplayName != "" {
			names = append(names, r.DisplayName)
		}
	}
	return names, nil
}
