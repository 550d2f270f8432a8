package darksky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/httpx"
)

// Forecast is the raw forecast payload, reduced to the current-conditions
// and daily blocks the pipeline consumes.
type Forecast struct {
	Currently CurrentConditions `json:"currently"`
	Daily     struct {
		Data []DailyConditions `json:"data"`
	} `json:"daily"`
}

// CurrentConditions describes the weather at the observation time. Storm
// distance and bearing are omitted by the API when no storm is nearby.
type CurrentConditions struct {
	Time                 int64    `json:"time"`
	Summary              string   `json:"summary"`
	NearestStormDistance *float64 `json:"nearestStormDistance"`
	NearestStormBearing  *float64 `json:"nearestStormBearing"`
	PrecipIntensity      float64  `json:"precipIntensity"`
	PrecipProbability    float64  `json:"precipProbability"`
	Temperature          float64  `json:"temperature"`
	DewPoint             float64  `json:"dewPoint"`
	Humidity             float64  `json:"humidity"`
	Pressure             float64  `json:"pressure"`
	WindSpeed            float64  `json:"windSpeed"`
	CloudCover           float64  `json:"cloudCover"`
	UvIndex              float64  `json:"uvIndex"`
	Visibility           float64  `json:"visibility"`
	Ozone                float64  `json:"ozone"`
}

// DailyConditions describes one forecast day. Precipitation accumulation and
// type are omitted by the API on dry days.
type DailyConditions struct {
	Time                int64    `json:"time"`
	Summary             string   `json:"summary"`
	SunriseTime         int64    `json:"sunriseTime"`
	SunsetTime          int64    `json:"sunsetTime"`
	PrecipAccumulation  *float64 `json:"precipAccumulation"`
	PrecipType          string   `json:"precipType"`
	PrecipIntensity     float64  `json:"precipIntensity"`
	PrecipProbability   float64  `json:"precipProbability"`
	TemperatureMax      float64  `json:"temperatureMax"`
	TemperatureMin      float64  `json:"temperatureMin"`
	DewPoint            float64  `json:"dewPoint"`
	Humidity            float64  `json:"humidity"`
	Pressure            float64  `json:"pressure"`
	WindSpeed           float64  `json:"windSpeed"`
	CloudCover          float64  `json:"cloudCover"`
	UvIndex             float64  `json:"uvIndex"`
	Visibility          float64  `json:"visibility"`
	Ozone               float64  `json:"ozone"`
}

// Client talks to the Dark Sky forecast API.
type Client struct {
	baseURL string
	apiKey  string
	doer    *httpx.Doer
}

func NewClient(client *http.Client, apiKey string) *Client {
	return &Client{
		baseURL: "https://api.darksky.net/forecast",
		apiKey:  apiKey,
		doer:    httpx.NewDoer(client, "darksky"),
	}
}

// GetForecast fetches current conditions plus the multi-day forecast for a
// coordinate pair. Minutely, hourly, and alert blocks are excluded at the
// API level to keep responses small.
func (c *Client) GetForecast(ctx context.Context, latitude, longitude float64) (Forecast, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("exclude", "minutely,hourly,alerts,flags")

		u := fmt.Sprintf("%s/%s/%f,%f?%s", c.baseURL, c.apiKey, latitude, longitude, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := c.doer.Do(ctx, buildRequest)
	if err != nil {
		return Forecast{}, fmt.Errorf("darksky forecast: %w", err)
	}
	defer resp.Body.Close()

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return Forecast{}, fmt.Errorf("darksky forecast: %w", err)
	}
	return forecast, nil
}
