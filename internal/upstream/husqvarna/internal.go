package husqvarna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/httpx"
)

// InternalMower is a raw device payload from the undocumented internal API.
// The same physical mower appears in both listings, but the internal API
// assigns its own identifier.
type InternalMower struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Status struct {
		MowerStatus   string `json:"mowerStatus"`
		OperatingMode string `json:"operatingMode"`
	} `json:"status"`
}

// MowerStatus carries the GPS trail for one mower, most recent sample first.
type MowerStatus struct {
	LastLocations []Location `json:"lastLocations"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geofence is the virtual boundary configured for one mower.
type Geofence struct {
	Location    Location `json:"location"`
	Sensitivity struct {
		Level  int `json:"level"`
		Radius int `json:"radius"`
	} `json:"sensitivity"`
}

// Setting is one raw configuration entry; Value keeps its JSON encoding so
// the runtime type can be inspected downstream.
type Setting struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// InternalClient talks to the undocumented internal endpoints. These predate
// the public API and expose status, geofence, and settings data the public
// API does not.
type InternalClient struct {
	iamURL   string
	baseURL  string
	apiKey   string
	username string
	password string
	doer     *httpx.Doer
}

func NewInternalClient(client *http.Client, apiKey, username, password string) *InternalClient {
	return &InternalClient{
		iamURL:   "https://iam-api.dss.husqvarnagroup.net/api/v3",
		baseURL:  "https://amc-api.dss.husqvarnagroup.net/v1",
		apiKey:   apiKey,
		username: username,
		password: password,
		doer:     httpx.NewDoer(client, "husqvarna-internal"),
	}
}

// GetToken requests an access token from the internal IAM endpoint. The
// token doubles as the session identifier.
func (c *InternalClient) GetToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"type": "token",
			"attributes": map[string]string{
				"username": c.username,
				"password": c.password,
			},
		},
	})
	if err != nil {
		return "", err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.iamURL+"/token", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return "", fmt.Errorf("husqvarna internal token: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("husqvarna internal token: %w", err)
	}
	return payload.Data.ID, nil
}

// GetMowers lists all mowers known to the internal API. The list is expected
// to mirror the external listing in device order.
func (c *InternalClient) GetMowers(ctx context.Context, token string) ([]InternalMower, error) {
	var mowers []InternalMower
	if err := c.get(ctx, "/mowers", token, &mowers); err != nil {
		return nil, fmt.Errorf("husqvarna internal mowers: %w", err)
	}
	return mowers, nil
}

// GetStatus retrieves the GPS location history for one mower.
func (c *InternalClient) GetStatus(ctx context.Context, mowerID, token string) (MowerStatus, error) {
	var status MowerStatus
	if err := c.get(ctx, "/mowers/"+mowerID+"/status", token, &status); err != nil {
		return MowerStatus{}, fmt.Errorf("husqvarna internal status: %w", err)
	}
	return status, nil
}

// GetGeofence retrieves the geofence central point for one mower.
func (c *InternalClient) GetGeofence(ctx context.Context, mowerID, token string) (Geofence, error) {
	var payload struct {
		CentralPoint Geofence `json:"centralPoint"`
	}
	if err := c.get(ctx, "/mowers/"+mowerID+"/geofence", token, &payload); err != nil {
		return Geofence{}, fmt.Errorf("husqvarna internal geofence: %w", err)
	}
	return payload.CentralPoint, nil
}

// GetSettings retrieves the raw settings list for one mower.
func (c *InternalClient) GetSettings(ctx context.Context, mowerID, token string) ([]Setting, error) {
	var payload struct {
		Settings []Setting `json:"settings"`
	}
	if err := c.get(ctx, "/mowers/"+mowerID+"/settings", token, &payload); err != nil {
		return nil, fmt.Errorf("husqvarna internal settings: %w", err)
	}
	return payload.Settings, nil
}

func (c *InternalClient) get(ctx context.Context, path, token string, out any) error {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Authorization-Provider", "husqvarna")
		req.Header.Set("X-Api-Key", c.apiKey)
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
