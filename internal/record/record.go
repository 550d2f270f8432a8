package record

// Manufacturer identifies which upstream family a record came from.
type Manufacturer string

const (
	ManufacturerHusqvarna Manufacturer = "husqv"
	ManufacturerRachio    Manufacturer = "rachio"
)

// DeviceRecord is the unified per-device view assembled from all upstream
// sources during one run. Records are built fresh every run, mutated in
// place by the enrichment stages, and handed to the store once complete;
// they never survive past a single run.
//
// A record is uniquely identified by (Manufacturer, DeviceID) within a run.
// InternalID is a secondary identifier assigned by the internal API for the
// same physical mower and is joined positionally, not by key.
type DeviceRecord struct {
	Manufacturer Manufacturer
	DeviceID     string
	InternalID   string

	DeviceType    string
	DeviceName    string
	DeviceModel   string
	InternalModel string
	SerialNo      string
	Connected     bool

	// Mower operational state from the external API.
	BatteryPct     *float64
	MowerMode      string
	MowerActivity  string
	MowerState     string
	LastError      int
	LastErrorTs    int64
	NextStartTs    int64
	OverrideAction string
	RestrictReason string

	// Mower operational state from the internal API.
	InternalStatus string
	InternalOpMode string

	// Sprinkler operational state.
	SprinklerStatus string
	SprinklerOn     bool

	// AccountID is the upstream account the device is paired with: the
	// external user id for mowers, the person id for sprinklers.
	AccountID string

	Geofence      *Geofence
	Schedules     []ScheduleEntry
	LastLocations []Location
	Settings      []Setting
	Zones         []Zone
	Weather       []WeatherEntry
	Address       *Address
}

// FetchTs returns the snapshot timestamp shared by all rows persisted for
// this record: the observation time of the current-conditions weather entry.
// Zero until weather enrichment has run.
func (r *DeviceRecord) FetchTs() int64 {
	if len(r.Weather) == 0 {
		return 0
	}
	return r.Weather[0].FetchTs
}

// ScheduleEntry is one schedule slot. Mower entries populate the start,
// duration, and weekday flags; sprinkler entries populate the name,
// operator, and cycle-soak metadata instead.
type ScheduleEntry struct {
	Start    int
	Duration int
	Days     [7]bool // Monday..Sunday

	Name          string
	Summary       string
	Operator      string
	CycleSoak     bool
	TotalDuration int
}

// Location is a single GPS sample. LastLocations is ordered most recent
// first; index 0 drives weather and address enrichment.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Setting is one device configuration entry. Datatype is always derived
// from the runtime type of Value at normalization time, never supplied by
// the source.
type Setting struct {
	Name     string
	Value    any
	Datatype string
}

// Geofence is the virtual boundary for a mower; absent for sprinklers.
type Geofence struct {
	Latitude  float64
	Longitude float64
	Level     int
	Radius    int
}

// Zone is one sprinkler irrigation zone; absent for mowers.
type Zone struct {
	ZoneNumber int
	Name       string
	Enabled    bool
	SquareFeet float64
	Nozzle     string
	Soil       string
	Slope      string
	Crop       string
	Shade      string
}

const (
	ForecastTypeCurrently = "currently"
	ForecastTypeDaily     = "daily"
)

// WeatherEntry is one element of a record's weather snapshot. Entry 0 is
// always current conditions (ForecastDay -1); entries 1..N are forecast days
// 0..N-1. Pointer fields distinguish fields that do not apply to the entry's
// tier from genuine zero readings.
type WeatherEntry struct {
	ForecastType string
	ForecastDay  int
	Summary      string

	// Daily-only fields.
	SunriseTs   *int64
	SunsetTs    *int64
	PrecipAccum *float64
	PrecipType  *string
	TempHigh    *float64
	TempLow     *float64

	// Current-only fields.
	StormDist    *float64
	StormBearing *float64
	Temp         *float64

	PrecipIntensity float64
	PrecipChance    float64
	DewPoint        float64
	Humidity        float64
	Pressure        float64
	WindSpeed       float64
	CloudCover      float64
	UvIndex         float64
	Visibility      float64
	Ozone           float64

	// FetchTs is the current-conditions observation time; every entry in a
	// snapshot carries the same value.
	FetchTs int64
}

// Address is a parsed street address from reverse geocoding.
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}
