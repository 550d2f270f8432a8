package store

import (
	"encoding/json"
	"strconv"

	"github.com/khoward12/yard-data-aggregation/internal/record"
)

// Row models for the destination schema. One device record fans out to one
// device row plus one row per schedule entry, location sample, setting,
// forecast entry, zone, and (optionally) address, all sharing the record's
// fetch_ts snapshot key.

type MowerRow struct {
	Manufacturer   string   `gorm:"column:manufacturer;primaryKey"`
	DeviceID       string   `gorm:"column:device_id;primaryKey"`
	FetchTs        int64    `gorm:"column:fetch_ts;primaryKey"`
	InternalID     string   `gorm:"column:internal_id"`
	DeviceType     string   `gorm:"column:device_type"`
	DeviceName     string   `gorm:"column:device_name"`
	DeviceModel    string   `gorm:"column:device_model"`
	InternalModel  string   `gorm:"column:internal_model"`
	SerialNo       string   `gorm:"column:serial_no"`
	BatteryPct     *float64 `gorm:"column:battery_pct"`
	MowerMode      string   `gorm:"column:mower_mode"`
	MowerActivity  string   `gorm:"column:mower_activity"`
	MowerState     string   `gorm:"column:mower_state"`
	InternalStatus string   `gorm:"column:internal_status"`
	InternalOpMode string   `gorm:"column:internal_op_mode"`
	GeofenceLat    *float64 `gorm:"column:geofence_lat"`
	GeofenceLong   *float64 `gorm:"column:geofence_long"`
	GeofenceLvl    *int     `gorm:"column:geofence_lvl"`
	GeofenceRadius *int     `gorm:"column:geofence_radius"`
	LastError      int      `gorm:"column:last_error"`
	LastErrorTs    int64    `gorm:"column:last_error_ts"`
	NextStartTs    int64    `gorm:"column:next_start_ts"`
	OverrideAction string   `gorm:"column:override_action"`
	RestrictReason string   `gorm:"column:restrict_reason"`
	Connected      bool     `gorm:"column:connected"`
	UserID         string   `gorm:"column:user_id"`
}

func (MowerRow) TableName() string { return "mowers" }

type SprinklerRow struct {
	Manufacturer string  `gorm:"column:manufacturer;primaryKey"`
	DeviceID     string  `gorm:"column:device_id;primaryKey"`
	FetchTs      int64   `gorm:"column:fetch_ts;primaryKey"`
	DeviceName   string  `gorm:"column:device_name"`
	DeviceModel  string  `gorm:"column:device_model"`
	SerialNo     string  `gorm:"column:serial_no"`
	Status       string  `gorm:"column:status"`
	Running      bool    `gorm:"column:running"`
	Connected    bool    `gorm:"column:connected"`
	Latitude     float64 `gorm:"column:latitude"`
	Longitude    float64 `gorm:"column:longitude"`
	PersonID     string  `gorm:"column:person_id"`
}

func (SprinklerRow) TableName() string { return "sprinklers" }

type ScheduleRow struct {
	Manufacturer string `gorm:"column:manufacturer;primaryKey"`
	DeviceID     string `gorm:"column:device_id;primaryKey"`
	ScheduleIdx  int    `gorm:"column:schedule_idx;primaryKey"`
	FetchTs      int64  `gorm:"column:fetch_ts;primaryKey"`
	Start        int    `gorm:"column:start"`
	Duration     int    `gorm:"column:duration"`
	Monday       bool   `gorm:"column:monday"`
	Tuesday      bool   `gorm:"column:tuesday"`
	Wednesday    bool   `gorm:"column:wednesday"`
	Thursday     bool   `gorm:"column:thursday"`
	Friday       bool   `gorm:"column:friday"`
	Saturday     bool   `gorm:"column:saturday"`
	Sunday       bool   `gorm:"column:sunday"`
}

func (ScheduleRow) TableName() string { return "schedules" }

type SprinklerScheduleRow struct {
	Manufacturer  string `gorm:"column:manufacturer;primaryKey"`
	DeviceID      string `gorm:"column:device_id;primaryKey"`
	ScheduleIdx   int    `gorm:"column:schedule_idx;primaryKey"`
	FetchTs       int64  `gorm:"column:fetch_ts;primaryKey"`
	Name          string `gorm:"column:name"`
	Summary       string `gorm:"column:summary"`
	Operator      string `gorm:"column:operator"`
	CycleSoak     bool   `gorm:"column:cycle_soak"`
	TotalDuration int    `gorm:"column:total_duration"`
}

func (SprinklerScheduleRow) TableName() string { return "sprinkler_schedules" }

type LocationRow struct {
	Manufacturer string  `gorm:"column:manufacturer;primaryKey"`
	DeviceID     string  `gorm:"column:device_id;primaryKey"`
	LocationIdx  int     `gorm:"column:location_idx;primaryKey"`
	FetchTs      int64   `gorm:"column:fetch_ts;primaryKey"`
	Latitude     float64 `gorm:"column:latitude"`
	Longitude    float64 `gorm:"column:longitude"`
}

func (LocationRow) TableName() string { return "locations" }

type SettingRow struct {
	Manufacturer    string `gorm:"column:manufacturer;primaryKey"`
	DeviceID        string `gorm:"column:device_id;primaryKey"`
	SettingName     string `gorm:"column:setting_name;primaryKey"`
	FetchTs         int64  `gorm:"column:fetch_ts;primaryKey"`
	SettingValue    string `gorm:"column:setting_value"`
	SettingDatatype string `gorm:"column:setting_datatype"`
}

func (SettingRow) TableName() string { return "settings" }

type ForecastRow struct {
	Manufacturer    string   `gorm:"column:manufacturer;primaryKey"`
	DeviceID        string   `gorm:"column:device_id;primaryKey"`
	ForecastType    string   `gorm:"column:forecast_type;primaryKey"`
	ForecastDay     int      `gorm:"column:forecast_day;primaryKey"`
	FetchTs         int64    `gorm:"column:fetch_ts;primaryKey"`
	Summary         string   `gorm:"column:summary"`
	SunriseTs       *int64   `gorm:"column:sunrise_ts"`
	SunsetTs        *int64   `gorm:"column:sunset_ts"`
	StormDist       *float64 `gorm:"column:storm_dist"`
	StormBearing    *float64 `gorm:"column:storm_bearing"`
	PrecipAccum     *float64 `gorm:"column:precip_accum"`
	PrecipIntensity float64  `gorm:"column:precip_intensity"`
	PrecipChance    float64  `gorm:"column:precip_chance"`
	PrecipType      *string  `gorm:"column:precip_type"`
	Temp            *float64 `gorm:"column:temp"`
	TempHigh        *float64 `gorm:"column:temp_high"`
	TempLow         *float64 `gorm:"column:temp_low"`
	DewPoint        float64  `gorm:"column:dew_point"`
	Humidity        float64  `gorm:"column:humidity"`
	Pressure        float64  `gorm:"column:pressure"`
	WindSpeed       float64  `gorm:"column:wind_speed"`
	CloudCover      float64  `gorm:"column:cloud_cover"`
	UvIndex         float64  `gorm:"column:uv_index"`
	Visibility      float64  `gorm:"column:visibility"`
	Ozone           float64  `gorm:"column:ozone"`
}

func (ForecastRow) TableName() string { return "forecasts" }

type ZoneRow struct {
	Manufacturer string  `gorm:"column:manufacturer;primaryKey"`
	DeviceID     string  `gorm:"column:device_id;primaryKey"`
	ZoneNumber   int     `gorm:"column:zone_number;primaryKey"`
	FetchTs      int64   `gorm:"column:fetch_ts;primaryKey"`
	Name         string  `gorm:"column:name"`
	Enabled      bool    `gorm:"column:enabled"`
	SquareFeet   float64 `gorm:"column:square_feet"`
	Nozzle       string  `gorm:"column:nozzle"`
	Soil         string  `gorm:"column:soil"`
	Slope        string  `gorm:"column:slope"`
	Crop         string  `gorm:"column:crop"`
	Shade        string  `gorm:"column:shade"`
}

func (ZoneRow) TableName() string { return "zones" }

type AddressRow struct {
	Manufacturer string `gorm:"column:manufacturer;primaryKey"`
	DeviceID     string `gorm:"column:device_id;primaryKey"`
	FetchTs      int64  `gorm:"column:fetch_ts;primaryKey"`
	Street       string `gorm:"column:street"`
	City         string `gorm:"column:city"`
	State        string `gorm:"column:state"`
	Zip          string `gorm:"column:zip"`
	Country      string `gorm:"column:country"`
}

func (AddressRow) TableName() string { return "addresses" }

// AllRowModels lists every row model; tests use it to materialize the schema
// via AutoMigrate.
func AllRowModels() []any {
	return []any{
		&MowerRow{}, &SprinklerRow{}, &ScheduleRow{}, &SprinklerScheduleRow{},
		&LocationRow{}, &SettingRow{}, &ForecastRow{}, &ZoneRow{}, &AddressRow{},
	}
}

func mowerRowFor(rec *record.DeviceRecord, fetchTs int64) MowerRow {
	row := MowerRow{
		Manufacturer:   string(rec.Manufacturer),
		DeviceID:       rec.DeviceID,
		FetchTs:        fetchTs,
		InternalID:     rec.InternalID,
		DeviceType:     rec.DeviceType,
		DeviceName:     rec.DeviceName,
		DeviceModel:    rec.DeviceModel,
		InternalModel:  rec.InternalModel,
		SerialNo:       rec.SerialNo,
		BatteryPct:     rec.BatteryPct,
		MowerMode:      rec.MowerMode,
		MowerActivity:  rec.MowerActivity,
		MowerState:     rec.MowerState,
		InternalStatus: rec.InternalStatus,
		InternalOpMode: rec.InternalOpMode,
		LastError:      rec.LastError,
		LastErrorTs:    rec.LastErrorTs,
		NextStartTs:    rec.NextStartTs,
		OverrideAction: rec.OverrideAction,
		RestrictReason: rec.RestrictReason,
		Connected:      rec.Connected,
		UserID:         rec.AccountID,
	}
	if g := rec.Geofence; g != nil {
		row.GeofenceLat = &g.Latitude
		row.GeofenceLong = &g.Longitude
		row.GeofenceLvl = &g.Level
		row.GeofenceRadius = &g.Radius
	}
	return row
}

func sprinklerRowFor(rec *record.DeviceRecord, fetchTs int64) SprinklerRow {
	row := SprinklerRow{
		Manufacturer: string(rec.Manufacturer),
		DeviceID:     rec.DeviceID,
		FetchTs:      fetchTs,
		DeviceName:   rec.DeviceName,
		DeviceModel:  rec.DeviceModel,
		SerialNo:     rec.SerialNo,
		Status:       rec.SprinklerStatus,
		Running:      rec.SprinklerOn,
		Connected:    rec.Connected,
		PersonID:     rec.AccountID,
	}
	if len(rec.LastLocations) > 0 {
		row.Latitude = rec.LastLocations[0].Latitude
		row.Longitude = rec.LastLocations[0].Longitude
	}
	return row
}

func scheduleRowsFor(rec *record.DeviceRecord, fetchTs int64) []ScheduleRow {
	rows := make([]ScheduleRow, 0, len(rec.Schedules))
	for i, s := range rec.Schedules {
		rows = append(rows, ScheduleRow{
			Manufacturer: string(rec.Manufacturer),
			DeviceID:     rec.DeviceID,
			ScheduleIdx:  i,
			FetchTs:      fetchTs,
			Start:        s.Start,
			Duration:     s.Duration,
			Monday:       s.Days[0],
			Tuesday:      s.Days[1],
			Wednesday:    s.Days[2],
			Thursday:     s.Days[3],
			Friday:       s.Days[4],
			Saturday:     s.Days[5],
			Sunday:       s.Days[6],
		})
	}
	return rows
}

func sprinklerScheduleRowsFor(rec *record.DeviceRecord, fetchTs int64) []SprinklerScheduleRow {
	rows := make([]SprinklerScheduleRow, 0, len(rec.Schedules))
	for i, s := range rec.Schedules {
		rows = append(rows, SprinklerScheduleRow{
			Manufacturer:  string(rec.Manufacturer),
			DeviceID:      rec.DeviceID,
			ScheduleIdx:   i,
			FetchTs:       fetchTs,
			Name:          s.Name,
			Summary:       s.Summary,
			Operator:      s.Operator,
			CycleSoak:     s.CycleSoak,
			TotalDuration: s.TotalDuration,
		})
	}
	return rows
}

func locationRowsFor(rec *record.DeviceRecord, fetchTs int64) []LocationRow {
	rows := make([]LocationRow, 0, len(rec.LastLocations))
	for i, loc := range rec.LastLocations {
		rows = append(rows, LocationRow{
			Manufacturer: string(rec.Manufacturer),
			DeviceID:     rec.DeviceID,
			LocationIdx:  i,
			FetchTs:      fetchTs,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
		})
	}
	return rows
}

func settingRowsFor(rec *record.DeviceRecord, fetchTs int64) []SettingRow {
	rows := make([]SettingRow, 0, len(rec.Settings))
	for _, s := range rec.Settings {
		rows = append(rows, SettingRow{
			Manufacturer:    string(rec.Manufacturer),
			DeviceID:        rec.DeviceID,
			SettingName:     s.Name,
			FetchTs:         fetchTs,
			SettingValue:    settingValueString(s.Value),
			SettingDatatype: s.Datatype,
		})
	}
	return rows
}

func forecastRowsFor(rec *record.DeviceRecord, fetchTs int64) []ForecastRow {
	rows := make([]ForecastRow, 0, len(rec.Weather))
	for _, w := range rec.Weather {
		rows = append(rows, ForecastRow{
			Manufacturer:    string(rec.Manufacturer),
			DeviceID:        rec.DeviceID,
			ForecastType:    w.ForecastType,
			ForecastDay:     w.ForecastDay,
			FetchTs:         fetchTs,
			Summary:         w.Summary,
			SunriseTs:       w.SunriseTs,
			SunsetTs:        w.SunsetTs,
			StormDist:       w.StormDist,
			StormBearing:    w.StormBearing,
			PrecipAccum:     w.PrecipAccum,
			PrecipIntensity: w.PrecipIntensity,
			PrecipChance:    w.PrecipChance,
			PrecipType:      w.PrecipType,
			Temp:            w.Temp,
			TempHigh:        w.TempHigh,
			TempLow:         w.TempLow,
			DewPoint:        w.DewPoint,
			Humidity:        w.Humidity,
			Pressure:        w.Pressure,
			WindSpeed:       w.WindSpeed,
			CloudCover:      w.CloudCover,
			UvIndex:         w.UvIndex,
			Visibility:      w.Visibility,
			Ozone:           w.Ozone,
		})
	}
	return rows
}

func zoneRowsFor(rec *record.DeviceRecord, fetchTs int64) []ZoneRow {
	rows := make([]ZoneRow, 0, len(rec.Zones))
	for _, z := range rec.Zones {
		rows = append(rows, ZoneRow{
			Manufacturer: string(rec.Manufacturer),
			DeviceID:     rec.DeviceID,
			ZoneNumber:   z.ZoneNumber,
			FetchTs:      fetchTs,
			Name:         z.Name,
			Enabled:      z.Enabled,
			SquareFeet:   z.SquareFeet,
			Nozzle:       z.Nozzle,
			Soil:         z.Soil,
			Slope:        z.Slope,
			Crop:         z.Crop,
			Shade:        z.Shade,
		})
	}
	return rows
}

func settingValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
