package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/httpx"
)

// Candidate is one reverse-geocoding match. PlaceName is a single
// comma-delimited string; candidates are ordered by relevance.
type Candidate struct {
	PlaceName string `json:"place_name"`
}

// Client talks to the Mapbox places API.
type Client struct {
	baseURL string
	apiKey  string
	doer    *httpx.Doer
}

func NewClient(client *http.Client, apiKey string) *Client {
	return &Client{
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		apiKey:  apiKey,
		doer:    httpx.NewDoer(client, "mapbox"),
	}
}

// GetAddress reverse-geocodes a coordinate pair into an ordered list of
// candidate place names. Mapbox expects longitude before latitude.
func (c *Client) GetAddress(ctx context.Context, latitude, longitude float64) ([]Candidate, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("access_token", c.apiKey)

		u := fmt.Sprintf("%s/%f,%f.json?%s", c.baseURL, longitude, latitude, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("mapbox geocode: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Features []Candidate `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("mapbox geocode: %w", err)
	}
	return payload.Features, nil
}
