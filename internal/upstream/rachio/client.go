package rachio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/httpx"
)

// Person is the account detail payload, including all paired controllers.
type Person struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Devices  []Device `json:"devices"`
}

// Device is a raw sprinkler-controller payload.
type Device struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Model         string         `json:"model"`
	SerialNumber  string         `json:"serialNumber"`
	Status        string         `json:"status"`
	On            bool           `json:"on"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	ScheduleRules []ScheduleRule `json:"scheduleRules"`
	Zones         []Zone         `json:"zones"`
}

// ScheduleRule is one watering schedule configured on a controller.
type ScheduleRule struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Summary       string `json:"summary"`
	Operator      string `json:"operator"`
	CycleSoak     bool   `json:"cycleSoak"`
	TotalDuration int    `json:"totalDuration"`
}

// Zone is one irrigation zone configuration.
type Zone struct {
	ZoneNumber         int     `json:"zoneNumber"`
	Name               string  `json:"name"`
	Enabled            bool    `json:"enabled"`
	YardAreaSquareFeet float64 `json:"yardAreaSquareFeet"`
	CustomNozzle       struct {
		Name string `json:"name"`
	} `json:"customNozzle"`
	CustomSoil struct {
		Name string `json:"name"`
	} `json:"customSoil"`
	CustomSlope struct {
		Name string `json:"name"`
	} `json:"customSlope"`
	CustomCrop struct {
		Name string `json:"name"`
	} `json:"customCrop"`
	CustomShade struct {
		Name string `json:"name"`
	} `json:"customShade"`
}

// Client talks to the Rachio public API. The API key authenticates every
// call; person info resolves the account identifier used by the rest of the
// API.
type Client struct {
	baseURL string
	apiKey  string
	doer    *httpx.Doer
}

func NewClient(client *http.Client, apiKey string) *Client {
	return &Client{
		baseURL: "https://api.rach.io/1/public",
		apiKey:  apiKey,
		doer:    httpx.NewDoer(client, "rachio"),
	}
}

// GetPersonInfo resolves the account identifier for the configured API key.
func (c *Client) GetPersonInfo(ctx context.Context) (string, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := c.get(ctx, "/person/info", &payload); err != nil {
		return "", fmt.Errorf("rachio person info: %w", err)
	}
	return payload.ID, nil
}

// GetPerson retrieves the account detail, including all controllers with
// their schedule rules and zones.
func (c *Client) GetPerson(ctx context.Context, personID string) (Person, error) {
	var person Person
	if err := c.get(ctx, "/person/"+personID, &person); err != nil {
		return Person{}, fmt.Errorf("rachio person: %w", err)
	}
	return person, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
