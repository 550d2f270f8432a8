package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/khoward12/yard-data-aggregation/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	// Use a unique in-memory DB per test to avoid cross-test contamination.
	dsn := "file:store_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(AllRowModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewWithDB(db)
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
func int64Ptr(v int64) *int64     { return &v }

// mowerRecord builds a fully enriched mower record: 2 schedule entries,
// 3 location samples, 5 settings, and a current + 2-day weather snapshot.
func mowerRecord(deviceID string) *record.DeviceRecord {
	rec := &record.DeviceRecord{
		Manufacturer:  record.ManufacturerHusqvarna,
		DeviceID:      deviceID,
		InternalID:    "int-" + deviceID,
		DeviceType:    "mower",
		DeviceName:    "Backyard",
		DeviceModel:   "450X",
		InternalModel: "AM450X",
		SerialNo:      "701234",
		BatteryPct:    floatPtr(87),
		MowerMode:     "MAIN_AREA",
		MowerActivity: "MOWING",
		MowerState:    "IN_OPERATION",
		Connected:     true,
		AccountID:     "user-9",
		Geofence:      &record.Geofence{Latitude: 39.8, Longitude: -89.6, Level: 2, Radius: 150},
		Schedules: []record.ScheduleEntry{
			{Start: 420, Duration: 180, Days: [7]bool{true, false, true, false, true, false, false}},
			{Start: 600, Duration: 60, Days: [7]bool{false, false, false, false, false, true, true}},
		},
		LastLocations: []record.Location{
			{Latitude: 39.80, Longitude: -89.65},
			{Latitude: 39.81, Longitude: -89.66},
			{Latitude: 39.82, Longitude: -89.67},
		},
		Settings: []record.Setting{
			{Name: "cuttingHeight", Value: float64(6), Datatype: "number"},
			{Name: "headlight", Value: "auto", Datatype: "string"},
			{Name: "ecoMode", Value: true, Datatype: "boolean"},
			{Name: "gpsAssisted", Value: true, Datatype: "boolean"},
			{Name: "corridorWidth", Value: float64(9), Datatype: "number"},
		},
	}

	fetchTs := int64(1580500000)
	rec.Weather = []record.WeatherEntry{
		{
			ForecastType: record.ForecastTypeCurrently, ForecastDay: -1, Summary: "Partly Cloudy",
			StormDist: floatPtr(12), StormBearing: floatPtr(220), Temp: floatPtr(54.3),
			FetchTs: fetchTs,
		},
		{
			ForecastType: record.ForecastTypeDaily, ForecastDay: 0, Summary: "Rain.",
			SunriseTs: int64Ptr(1580541000), SunsetTs: int64Ptr(1580577600),
			PrecipAccum: floatPtr(0.4), PrecipType: strPtr("rain"),
			TempHigh: floatPtr(58.1), TempLow: floatPtr(39.2),
			FetchTs: fetchTs,
		},
		{
			ForecastType: record.ForecastTypeDaily, ForecastDay: 1, Summary: "Clear.",
			SunriseTs: int64Ptr(1580627300), SunsetTs: int64Ptr(1580664100),
			PrecipAccum: floatPtr(0), PrecipType: strPtr("none"),
			TempHigh: floatPtr(49.9), TempLow: floatPtr(31.0),
			FetchTs: fetchTs,
		},
	}
	return rec
}

func countRows(t *testing.T, s *Store, table string, deviceID string) int64 {
	t.Helper()
	var n int64
	if err := s.db.Table(table).Where("device_id = ?", deviceID).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestPersistRecordFansOutAllTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := mowerRecord("mower-1")
	if err := s.PersistRecord(ctx, rec); err != nil {
		t.Fatalf("persist: %v", err)
	}

	want := map[string]int64{
		"mowers":    1,
		"schedules": 2,
		"locations": 3,
		"settings":  5,
		"forecasts": 3,
	}
	for table, n := range want {
		if got := countRows(t, s, table, "mower-1"); got != n {
			t.Errorf("%s rows = %d, want %d", table, got, n)
		}
	}

	// All rows share the record's fetchTs snapshot key.
	for table := range want {
		var n int64
		if err := s.db.Table(table).Where("device_id = ? AND fetch_ts = ?", "mower-1", int64(1580500000)).Count(&n).Error; err != nil {
			t.Fatalf("count %s by fetch_ts: %v", table, err)
		}
		if n != want[table] {
			t.Errorf("%s rows with shared fetch_ts = %d, want %d", table, n, want[table])
		}
	}

	// Geofence landed on the device row.
	var row MowerRow
	if err := s.db.Where("device_id = ?", "mower-1").First(&row).Error; err != nil {
		t.Fatalf("load mower row: %v", err)
	}
	if row.GeofenceLat == nil || *row.GeofenceLat != 39.8 || row.GeofenceRadius == nil || *row.GeofenceRadius != 150 {
		t.Errorf("geofence columns = %v/%v", row.GeofenceLat, row.GeofenceRadius)
	}
}

func TestPersistRecordEmptyChildBatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := mowerRecord("mower-2")
	rec.Schedules = nil
	rec.Settings = nil

	if err := s.PersistRecord(ctx, rec); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if got := countRows(t, s, "mowers", "mower-2"); got != 1 {
		t.Errorf("mowers rows = %d", got)
	}
	if got := countRows(t, s, "schedules", "mower-2"); got != 0 {
		t.Errorf("schedules rows = %d", got)
	}
}

func TestPersistRecordRollbackIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// First device commits while the schema is intact.
	if err := s.PersistRecord(ctx, mowerRecord("mower-ok")); err != nil {
		t.Fatalf("persist first record: %v", err)
	}

	// Break the forecast batch for the second device.
	if err := s.db.Migrator().DropTable("forecasts"); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	err := s.PersistRecord(ctx, mowerRecord("mower-bad"))
	if err == nil {
		t.Fatal("expected persist to fail after forecasts table dropped")
	}
	var perr *PersistError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistError, got %T", err)
	}
	if perr.DeviceID != "mower-bad" {
		t.Errorf("failed device = %q", perr.DeviceID)
	}

	// No rows for the failed device in any surviving table.
	for _, table := range []string{"mowers", "schedules", "locations", "settings"} {
		if got := countRows(t, s, table, "mower-bad"); got != 0 {
			t.Errorf("%s rows for rolled-back device = %d, want 0", table, got)
		}
	}

	// The earlier device's rows remain committed.
	if got := countRows(t, s, "mowers", "mower-ok"); got != 1 {
		t.Errorf("mowers rows for committed device = %d, want 1", got)
	}
	if got := countRows(t, s, "settings", "mower-ok"); got != 5 {
		t.Errorf("settings rows for committed device = %d, want 5", got)
	}
}

func TestPersistSprinklerRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fetchTs := int64(1580500000)
	rec := &record.DeviceRecord{
		Manufacturer:    record.ManufacturerRachio,
		DeviceID:        "sprk-1",
		DeviceName:      "Front Yard",
		DeviceModel:     "8ZoneV3",
		SerialNo:        "RA1234",
		SprinklerStatus: "ONLINE",
		SprinklerOn:     true,
		Connected:       true,
		AccountID:       "person-1",
		LastLocations:   []record.Location{{Latitude: 39.79, Longitude: -89.65}},
		Schedules: []record.ScheduleEntry{
			{Name: "Morning", Operator: "AND", CycleSoak: true, TotalDuration: 1800},
		},
		Zones: []record.Zone{
			{ZoneNumber: 1, Name: "Front", Enabled: true, SquareFeet: 550, Nozzle: "Rotor"},
			{ZoneNumber: 3, Name: "Side", Enabled: false, SquareFeet: 200, Nozzle: "Fixed Spray"},
		},
		Weather: []record.WeatherEntry{
			{ForecastType: record.ForecastTypeCurrently, ForecastDay: -1, FetchTs: fetchTs},
		},
	}

	if err := s.PersistRecord(ctx, rec); err != nil {
		t.Fatalf("persist: %v", err)
	}

	want := map[string]int64{
		"sprinklers":          1,
		"sprinkler_schedules": 1,
		"zones":               2,
		"locations":           1,
		"forecasts":           1,
		"mowers":              0,
	}
	for table, n := range want {
		if got := countRows(t, s, table, "sprk-1"); got != n {
			t.Errorf("%s rows = %d, want %d", table, got, n)
		}
	}
}
