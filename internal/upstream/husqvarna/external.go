package husqvarna

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/httpx"
)

// Token is the response of the OAuth password-grant token request.
type Token struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	ExpiresIn   int    `json:"expires_in"`
}

// Mower is a raw device payload from the documented Automower Connect API.
type Mower struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		System struct {
			Name         string      `json:"name"`
			Model        string      `json:"model"`
			SerialNumber json.Number `json:"serialNumber"`
		} `json:"system"`
		Battery struct {
			BatteryPercent float64 `json:"batteryPercent"`
		} `json:"battery"`
		Mower struct {
			Mode               string `json:"mode"`
			Activity           string `json:"activity"`
			State              string `json:"state"`
			ErrorCode          int    `json:"errorCode"`
			ErrorCodeTimestamp int64  `json:"errorCodeTimestamp"`
		} `json:"mower"`
		Calendar struct {
			Tasks []CalendarTask `json:"tasks"`
		} `json:"calendar"`
		Planner struct {
			NextStartTimestamp int64 `json:"nextStartTimestamp"`
			Override           struct {
				Action string `json:"action"`
			} `json:"override"`
			RestrictedReason string `json:"restrictedReason"`
		} `json:"planner"`
		Metadata struct {
			Connected bool `json:"connected"`
		} `json:"metadata"`
	} `json:"attributes"`
}

// CalendarTask is one mowing-schedule slot: start is minutes after midnight,
// duration is in minutes, followed by one flag per weekday.
type CalendarTask struct {
	Start     int  `json:"start"`
	Duration  int  `json:"duration"`
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// ExternalClient talks to the documented Husqvarna Automower Connect API.
type ExternalClient struct {
	authURL  string
	baseURL  string
	apiKey   string
	username string
	password string
	doer     *httpx.Doer
}

func NewExternalClient(client *http.Client, apiKey, username, password string) *ExternalClient {
	return &ExternalClient{
		authURL:  "https://api.authentication.husqvarnagroup.dev/v1",
		baseURL:  "https://api.amc.husqvarna.dev/v1",
		apiKey:   apiKey,
		username: username,
		password: password,
		doer:     httpx.NewDoer(client, "husqvarna"),
	}
}

// GetToken requests an access token via the password grant.
func (c *ExternalClient) GetToken(ctx context.Context) (Token, error) {
	buildRequest := func() (*http.Request, error) {
		form := url.Values{}
		form.Set("grant_type", "password")
		form.Set("client_id", c.apiKey)
		form.Set("username", c.username)
		form.Set("password", c.password)

		req, err := http.NewRequest(http.MethodPost, c.authURL+"/oauth2/token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return Token{}, fmt.Errorf("husqvarna token: %w", err)
	}
	defer resp.Body.Close()

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Token{}, fmt.Errorf("husqvarna token: %w", err)
	}
	return token, nil
}

// GetMowers lists all mowers paired with the account.
func (c *ExternalClient) GetMowers(ctx context.Context, accessToken string) ([]Mower, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"/mowers", nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, accessToken)
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("husqvarna mowers: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data []Mower `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("husqvarna mowers: %w", err)
	}
	return payload.Data, nil
}

func (c *ExternalClient) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Authorization-Provider", "husqvarna")
	req.Header.Set("X-Api-Key", c.apiKey)
}
