package enrich

import (
	"encoding/json"
	"testing"

	"github.com/khoward12/yard-data-aggregation/internal/record"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/darksky"
)

const forecastPayload = `{
	"currently": {
		"time": 1580500000,
		"summary": "Partly Cloudy",
		"nearestStormDistance": 12,
		"nearestStormBearing": 220,
		"precipIntensity": 0.01,
		"precipProbability": 0.2,
		"temperature": 54.3,
		"dewPoint": 41.0,
		"humidity": 0.61,
		"pressure": 1018.2,
		"windSpeed": 6.4,
		"cloudCover": 0.45,
		"uvIndex": 2,
		"visibility": 9.8,
		"ozone": 310.1
	},
	"daily": {"data": [
		{"time": 1580515200, "summary": "Rain in the afternoon.", "sunriseTime": 1580541000,
		 "sunsetTime": 1580577600, "precipAccumulation": 0.4, "precipType": "rain",
		 "precipIntensity": 0.03, "precipProbability": 0.7, "temperatureMax": 58.1,
		 "temperatureMin": 39.2, "dewPoint": 42.5, "humidity": 0.7, "pressure": 1015.0,
		 "windSpeed": 8.1, "cloudCover": 0.8, "uvIndex": 1, "visibility": 7.0, "ozone": 305.5},
		{"time": 1580601600, "summary": "Clear.", "sunriseTime": 1580627300,
		 "sunsetTime": 1580664100, "precipIntensity": 0, "precipProbability": 0,
		 "temperatureMax": 49.9, "temperatureMin": 31.0, "dewPoint": 30.1, "humidity": 0.5,
		 "pressure": 1022.3, "windSpeed": 4.2, "cloudCover": 0.1, "uvIndex": 3,
		 "visibility": 10, "ozone": 320.0}
	]}
}`

func decodeForecast(t *testing.T) darksky.Forecast {
	t.Helper()
	var f darksky.Forecast
	if err := json.Unmarshal([]byte(forecastPayload), &f); err != nil {
		t.Fatalf("unmarshal forecast: %v", err)
	}
	return f
}

func TestBuildWeatherSnapshotInvariants(t *testing.T) {
	entries := BuildWeather(decodeForecast(t))

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (current + 2 days), got %d", len(entries))
	}

	current := entries[0]
	if current.ForecastType != record.ForecastTypeCurrently || current.ForecastDay != -1 {
		t.Errorf("entry 0 = %q/%d", current.ForecastType, current.ForecastDay)
	}
	for k := 1; k < len(entries); k++ {
		if entries[k].ForecastType != record.ForecastTypeDaily {
			t.Errorf("entry %d type = %q", k, entries[k].ForecastType)
		}
		if entries[k].ForecastDay != k-1 {
			t.Errorf("entry %d forecastDay = %d, want %d", k, entries[k].ForecastDay, k-1)
		}
	}

	// Every entry shares the current-conditions observation time.
	for k, e := range entries {
		if e.FetchTs != 1580500000 {
			t.Errorf("entry %d fetchTs = %d", k, e.FetchTs)
		}
	}
}

func TestBuildWeatherTierFields(t *testing.T) {
	entries := BuildWeather(decodeForecast(t))

	current := entries[0]
	if current.StormDist == nil || *current.StormDist != 12 {
		t.Errorf("current stormDist = %v", current.StormDist)
	}
	if current.Temp == nil || *current.Temp != 54.3 {
		t.Errorf("current temp = %v", current.Temp)
	}
	// Daily-only fields stay absent on the current entry.
	if current.SunriseTs != nil || current.SunsetTs != nil || current.PrecipAccum != nil ||
		current.PrecipType != nil || current.TempHigh != nil || current.TempLow != nil {
		t.Error("current entry carries daily-only fields")
	}

	day0 := entries[1]
	if day0.SunriseTs == nil || *day0.SunriseTs != 1580541000 {
		t.Errorf("day0 sunrise = %v", day0.SunriseTs)
	}
	if day0.TempHigh == nil || *day0.TempHigh != 58.1 || day0.TempLow == nil || *day0.TempLow != 39.2 {
		t.Errorf("day0 temps = %v/%v", day0.TempHigh, day0.TempLow)
	}
	// Current-only fields stay absent on forecast entries.
	if day0.StormDist != nil || day0.StormBearing != nil || day0.Temp != nil {
		t.Error("daily entry carries current-only fields")
	}
}

func TestBuildWeatherPrecipDefaults(t *testing.T) {
	entries := BuildWeather(decodeForecast(t))

	day0 := entries[1]
	if day0.PrecipAccum == nil || *day0.PrecipAccum != 0.4 {
		t.Errorf("day0 precipAccum = %v", day0.PrecipAccum)
	}
	if day0.PrecipType == nil || *day0.PrecipType != "rain" {
		t.Errorf("day0 precipType = %v", day0.PrecipType)
	}

	// Day 1 omits accumulation and type; defaults apply.
	day1 := entries[2]
	if day1.PrecipAccum == nil || *day1.PrecipAccum != 0 {
		t.Errorf("day1 precipAccum = %v, want 0", day1.PrecipAccum)
	}
	if day1.PrecipType == nil || *day1.PrecipType != "none" {
		t.Errorf("day1 precipType = %v, want none", day1.PrecipType)
	}
}
