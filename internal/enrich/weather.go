package enrich

import (
	"errors"

	"github.com/khoward12/yard-data-aggregation/internal/record"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/darksky"
)

// ErrNoLocation is returned when a record reaches weather enrichment without
// a resolved location to look up.
var ErrNoLocation = errors.New("record has no location samples")

// BuildWeather converts a raw forecast into the two-tier snapshot list:
// entry 0 is current conditions (forecast day -1), entries 1..N are forecast
// days 0..N-1. Every entry carries the current-conditions observation time
// as FetchTs.
//
// Fields that belong to the other tier stay nil: daily entries never carry
// storm distance/bearing or the instantaneous temperature, and the current
// entry never carries sunrise/sunset, accumulation, or high/low temps.
func BuildWeather(f darksky.Forecast) []record.WeatherEntry {
	fetchTs := f.Currently.Time
	temp := f.Currently.Temperature

	entries := make([]record.WeatherEntry, 0, 1+len(f.Daily.Data))
	entries = append(entries, record.WeatherEntry{
		ForecastType:    record.ForecastTypeCurrently,
		ForecastDay:     -1,
		Summary:         f.Currently.Summary,
		StormDist:       f.Currently.NearestStormDistance,
		StormBearing:    f.Currently.NearestStormBearing,
		Temp:            &temp,
		PrecipIntensity: f.Currently.PrecipIntensity,
		PrecipChance:    f.Currently.PrecipProbability,
		DewPoint:        f.Currently.DewPoint,
		Humidity:        f.Currently.Humidity,
		Pressure:        f.Currently.Pressure,
		WindSpeed:       f.Currently.WindSpeed,
		CloudCover:      f.Currently.CloudCover,
		UvIndex:         f.Currently.UvIndex,
		Visibility:      f.Currently.Visibility,
		Ozone:           f.Currently.Ozone,
		FetchTs:         fetchTs,
	})

	for day, daily := range f.Daily.Data {
		sunrise := daily.SunriseTime
		sunset := daily.SunsetTime
		tempHigh := daily.TemperatureMax
		tempLow := daily.TemperatureMin

		// Dry days omit accumulation and type entirely.
		accum := 0.0
		if daily.PrecipAccumulation != nil {
			accum = *daily.PrecipAccumulation
		}
		precipType := daily.PrecipType
		if precipType == "" {
			precipType = "none"
		}

		entries = append(entries, record.WeatherEntry{
			ForecastType:    record.ForecastTypeDaily,
			ForecastDay:     day,
			Summary:         daily.Summary,
			SunriseTs:       &sunrise,
			SunsetTs:        &sunset,
			PrecipAccum:     &accum,
			PrecipType:      &precipType,
			TempHigh:        &tempHigh,
			TempLow:         &tempLow,
			PrecipIntensity: daily.PrecipIntensity,
			PrecipChance:    daily.PrecipProbability,
			DewPoint:        daily.DewPoint,
			Humidity:        daily.Humidity,
			Pressure:        daily.Pressure,
			WindSpeed:       daily.WindSpeed,
			CloudCover:      daily.CloudCover,
			UvIndex:         daily.UvIndex,
			Visibility:      daily.Visibility,
			Ozone:           daily.Ozone,
			FetchTs:         fetchTs,
		})
	}

	return entries
}
