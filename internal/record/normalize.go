package record

import (
	"encoding/json"
	"sort"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/husqvarna"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/rachio"
)

// NormalizeMowers reshapes the external mower listing into device records.
// Normalization is total: every canonical field maps to exactly one source
// path, and fields absent in the payload decode to their zero value rather
// than failing the record.
func NormalizeMowers(userID string, mowers []husqvarna.Mower) []*DeviceRecord {
	records := make([]*DeviceRecord, 0, len(mowers))
	for _, m := range mowers {
		battery := m.Attributes.Battery.BatteryPercent

		rec := &DeviceRecord{
			Manufacturer:   ManufacturerHusqvarna,
			DeviceID:       m.ID,
			DeviceType:     m.Type,
			DeviceName:     m.Attributes.System.Name,
			DeviceModel:    m.Attributes.System.Model,
			SerialNo:       m.Attributes.System.SerialNumber.String(),
			BatteryPct:     &battery,
			MowerMode:      m.Attributes.Mower.Mode,
			MowerActivity:  m.Attributes.Mower.Activity,
			MowerState:     m.Attributes.Mower.State,
			LastError:      m.Attributes.Mower.ErrorCode,
			LastErrorTs:    m.Attributes.Mower.ErrorCodeTimestamp,
			NextStartTs:    m.Attributes.Planner.NextStartTimestamp,
			OverrideAction: m.Attributes.Planner.Override.Action,
			RestrictReason: m.Attributes.Planner.RestrictedReason,
			Connected:      m.Attributes.Metadata.Connected,
			AccountID:      userID,
		}

		for _, task := range m.Attributes.Calendar.Tasks {
			rec.Schedules = append(rec.Schedules, ScheduleEntry{
				Start:    task.Start,
				Duration: task.Duration,
				Days: [7]bool{
					task.Monday, task.Tuesday, task.Wednesday,
					task.Thursday, task.Friday, task.Saturday, task.Sunday,
				},
			})
		}

		records = append(records, rec)
	}
	return records
}

// NormalizeSprinklers reshapes a Rachio account's controllers into device
// records. The controller's fixed coordinates seed LastLocations so weather
// and address enrichment read the same index 0 as mower records. Zones are
// sorted by zone number.
func NormalizeSprinklers(personID string, devices []rachio.Device) []*DeviceRecord {
	records := make([]*DeviceRecord, 0, len(devices))
	for _, d := range devices {
		rec := &DeviceRecord{
			Manufacturer:    ManufacturerRachio,
			DeviceID:        d.ID,
			DeviceName:      d.Name,
			DeviceModel:     d.Model,
			SerialNo:        d.SerialNumber,
			SprinklerStatus: d.Status,
			SprinklerOn:     d.On,
			Connected:       d.Status == "ONLINE",
			AccountID:       personID,
			LastLocations:   []Location{{Latitude: d.Latitude, Longitude: d.Longitude}},
		}

		for _, rule := range d.ScheduleRules {
			rec.Schedules = append(rec.Schedules, ScheduleEntry{
				Name:          rule.Name,
				Summary:       rule.Summary,
				Operator:      rule.Operator,
				CycleSoak:     rule.CycleSoak,
				TotalDuration: rule.TotalDuration,
			})
		}

		for _, z := range d.Zones {
			rec.Zones = append(rec.Zones, Zone{
				ZoneNumber: z.ZoneNumber,
				Name:       z.Name,
				Enabled:    z.Enabled,
				SquareFeet: z.YardAreaSquareFeet,
				Nozzle:     z.CustomNozzle.Name,
				Soil:       z.CustomSoil.Name,
				Slope:      z.CustomSlope.Name,
				Crop:       z.CustomCrop.Name,
				Shade:      z.CustomShade.Name,
			})
		}
		sort.Slice(rec.Zones, func(i, j int) bool {
			return rec.Zones[i].ZoneNumber < rec.Zones[j].ZoneNumber
		})

		records = append(records, rec)
	}
	return records
}

// ApplyStatus folds the internal status payload into the record. The GPS
// trail arrives most recent first and is kept in that order.
func (r *DeviceRecord) ApplyStatus(status husqvarna.MowerStatus) {
	r.LastLocations = r.LastLocations[:0]
	for _, loc := range status.LastLocations {
		r.LastLocations = append(r.LastLocations, Location{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		})
	}
}

// ApplyGeofence folds the internal geofence payload into the record.
func (r *DeviceRecord) ApplyGeofence(g husqvarna.Geofence) {
	r.Geofence = &Geofence{
		Latitude:  g.Location.Latitude,
		Longitude: g.Location.Longitude,
		Level:     g.Sensitivity.Level,
		Radius:    g.Sensitivity.Radius,
	}
}

// ApplySettings folds the internal settings payload into the record,
// deriving each entry's datatype from the runtime type of its value.
func (r *DeviceRecord) ApplySettings(settings []husqvarna.Setting) {
	r.Settings = r.Settings[:0]
	for _, s := range settings {
		var value any
		if len(s.Value) > 0 {
			// Decode errors leave the value absent; the entry is kept so the
			// setting name still lands in the store.
			_ = json.Unmarshal(s.Value, &value)
		}
		r.Settings = append(r.Settings, Setting{
			Name:     s.ID,
			Value:    value,
			Datatype: InferDatatype(value),
		})
	}
}

// InferDatatype maps the runtime type of a decoded JSON value onto the
// persisted datatype name. JSON numbers always decode to float64, so every
// numeric setting reports "number".
func InferDatatype(v any) string {
	switch v.(type) {
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return "string"
	}
}
