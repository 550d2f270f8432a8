package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoward12/yard-data-aggregation/internal/enrich"
	"github.com/khoward12/yard-data-aggregation/internal/record"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/darksky"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/husqvarna"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/mapbox"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/rachio"
)

// ErrRunInProgress is returned when a run is skipped because another run
// still holds the run lock.
var ErrRunInProgress = errors.New("another run already holds the run lock")

// MowerAPI is the documented mower endpoint surface the pipeline consumes.
type MowerAPI interface {
	GetToken(ctx context.Context) (husqvarna.Token, error)
	GetMowers(ctx context.Context, accessToken string) ([]husqvarna.Mower, error)
}

// MowerInternalAPI is the internal mower endpoint surface.
type MowerInternalAPI interface {
	GetToken(ctx context.Context) (string, error)
	GetMowers(ctx context.Context, token string) ([]husqvarna.InternalMower, error)
	GetStatus(ctx context.Context, mowerID, token string) (husqvarna.MowerStatus, error)
	GetGeofence(ctx context.Context, mowerID, token string) (husqvarna.Geofence, error)
	GetSettings(ctx context.Context, mowerID, token string) ([]husqvarna.Setting, error)
}

// SprinklerAPI is the sprinkler-controller endpoint surface.
type SprinklerAPI interface {
	GetPersonInfo(ctx context.Context) (string, error)
	GetPerson(ctx context.Context, personID string) (rachio.Person, error)
}

// WeatherAPI provides current conditions plus a daily forecast for a
// coordinate pair.
type WeatherAPI interface {
	GetForecast(ctx context.Context, latitude, longitude float64) (darksky.Forecast, error)
}

// GeocodeAPI reverse-geocodes a coordinate pair into candidate place names.
type GeocodeAPI interface {
	GetAddress(ctx context.Context, latitude, longitude float64) ([]mapbox.Candidate, error)
}

// Persister is the store surface the pipeline hands finished records to.
type Persister interface {
	AcquireRunLock(ctx context.Context) (bool, error)
	ReleaseRunLock(ctx context.Context) error
	PersistRecord(ctx context.Context, rec *record.DeviceRecord) error
}

// Deps bundles the collaborators a Pipeline is constructed with. Sprinkler
// and Geocode are optional; leaving them nil disables that path.
type Deps struct {
	Mower         MowerAPI
	MowerInternal MowerInternalAPI
	Sprinkler     SprinklerAPI
	Weather       WeatherAPI
	Geocode       GeocodeAPI
	Store         Persister

	// DetailWorkers bounds how many per-device detail fetches run at once.
	DetailWorkers int
}

// Pipeline sequences one aggregation run: tokens and listings, normalize,
// positional merge, per-device detail fetches, weather and address
// enrichment, and per-record persistence. Failures are isolated per device;
// token and listing failures abort only their family.
type Pipeline struct {
	mower         MowerAPI
	mowerInternal MowerInternalAPI
	sprinkler     SprinklerAPI
	weather       WeatherAPI
	geocode       GeocodeAPI
	store         Persister
	detailWorkers int

	mu      sync.RWMutex
	lastRun *RunSummary
}

func New(deps Deps) *Pipeline {
	workers := deps.DetailWorkers
	if workers <= 0 {
		workers = 2
	}
	return &Pipeline{
		mower:         deps.Mower,
		mowerInternal: deps.MowerInternal,
		sprinkler:     deps.Sprinkler,
		weather:       deps.Weather,
		geocode:       deps.Geocode,
		store:         deps.Store,
		detailWorkers: workers,
	}
}

// Run executes one aggregation run. It returns ErrRunInProgress when the
// advisory lock is held by another run; other errors are run-level failures
// (lock acquisition only — upstream and persistence failures are absorbed
// into the run summary).
func (p *Pipeline) Run(ctx context.Context) error {
	ok, err := p.store.AcquireRunLock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		runsSkipped.Inc()
		slog.Info("run skipped: lock held by another run")
		return ErrRunInProgress
	}
	defer func() {
		// The run context may already be expired here; the release still has
		// to reach the database or the lock outlives the run.
		if err := p.store.ReleaseRunLock(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to release run lock", "error", err)
		}
	}()

	runsTotal.Inc()
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	slog.Info("run started", "run_id", summary.RunID)

	var records []*record.DeviceRecord

	mowerRecs, detailFailures, err := p.collectMowers(ctx)
	if err != nil {
		familyFailures.WithLabelValues(string(record.ManufacturerHusqvarna)).Inc()
		summary.FamilyErrors = append(summary.FamilyErrors, FamilyError{
			Family: string(record.ManufacturerHusqvarna),
			Error:  err.Error(),
		})
		slog.Error("mower aggregation failed, family skipped", "run_id", summary.RunID, "error", err)
	} else {
		records = append(records, mowerRecs...)
		summary.Failures = append(summary.Failures, detailFailures...)
	}

	if p.sprinkler != nil {
		sprinklerRecs, err := p.collectSprinklers(ctx)
		if err != nil {
			familyFailures.WithLabelValues(string(record.ManufacturerRachio)).Inc()
			summary.FamilyErrors = append(summary.FamilyErrors, FamilyError{
				Family: string(record.ManufacturerRachio),
				Error:  err.Error(),
			})
			slog.Error("sprinkler aggregation failed, family skipped", "run_id", summary.RunID, "error", err)
		} else {
			records = append(records, sprinklerRecs...)
		}
	}

	summary.Devices = len(records) + len(summary.Failures)

	for _, rec := range records {
		if err := p.enrichRecord(ctx, rec); err != nil {
			deviceFailures.WithLabelValues("enrich").Inc()
			summary.Failures = append(summary.Failures, DeviceOutcome{
				Manufacturer: string(rec.Manufacturer),
				DeviceID:     rec.DeviceID,
				Stage:        "enrich",
				Error:        err.Error(),
			})
			slog.Error("enrichment failed, device skipped",
				"run_id", summary.RunID,
				"manufacturer", rec.Manufacturer,
				"device_id", rec.DeviceID,
				"error", err)
			continue
		}

		if err := p.store.PersistRecord(ctx, rec); err != nil {
			deviceFailures.WithLabelValues("persist").Inc()
			summary.Failures = append(summary.Failures, DeviceOutcome{
				Manufacturer: string(rec.Manufacturer),
				DeviceID:     rec.DeviceID,
				Stage:        "persist",
				Error:        err.Error(),
			})
			continue
		}
		devicesPersisted.Inc()
		summary.Persisted++
	}

	summary.FinishedAt = time.Now().UTC()
	p.setLastRun(summary)
	slog.Info("run finished",
		"run_id", summary.RunID,
		"devices", summary.Devices,
		"persisted", summary.Persisted,
		"failed", len(summary.Failures),
		"duration", summary.FinishedAt.Sub(summary.StartedAt))
	return nil
}

// collectMowers fetches tokens from both mower endpoints in parallel, then
// both listings in parallel, normalizes the external listing, merges the
// internal listing positionally, and folds in per-device details. Devices
// whose detail fetches fail are reported and dropped; everything else in
// this function is family-fatal.
func (p *Pipeline) collectMowers(ctx context.Context) ([]*record.DeviceRecord, []DeviceOutcome, error) {
	var (
		wg       sync.WaitGroup
		extToken husqvarna.Token
		intToken string
		extErr   error
		intErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		extToken, extErr = p.mower.GetToken(ctx)
	}()
	go func() {
		defer wg.Done()
		intToken, intErr = p.mowerInternal.GetToken(ctx)
	}()
	wg.Wait()

	if extErr != nil {
		return nil, nil, fmt.Errorf("external token: %w", extErr)
	}
	if intErr != nil {
		return nil, nil, fmt.Errorf("internal token: %w", intErr)
	}

	var (
		extMowers []husqvarna.Mower
		intMowers []husqvarna.InternalMower
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		extMowers, extErr = p.mower.GetMowers(ctx, extToken.AccessToken)
	}()
	go func() {
		defer wg.Done()
		intMowers, intErr = p.mowerInternal.GetMowers(ctx, intToken)
	}()
	wg.Wait()

	if extErr != nil {
		return nil, nil, fmt.Errorf("external listing: %w", extErr)
	}
	if intErr != nil {
		return nil, nil, fmt.Errorf("internal listing: %w", intErr)
	}

	records := record.NormalizeMowers(extToken.UserID, extMowers)
	if err := record.MergeInternal(records, intMowers); err != nil {
		return nil, nil, err
	}

	healthy, failures := p.fetchDetails(ctx, records, intToken)
	return healthy, failures, nil
}

// fetchDetails pulls status, geofence, and settings for each mower through a
// bounded worker pool so a large fleet does not fan out unbounded load on
// the internal API.
func (p *Pipeline) fetchDetails(ctx context.Context, records []*record.DeviceRecord, token string) ([]*record.DeviceRecord, []DeviceOutcome) {
	sem := make(chan struct{}, p.detailWorkers)
	errs := make([]error, len(records))

	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec *record.DeviceRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[i] = p.fetchDeviceDetail(ctx, rec, token)
		}(i, rec)
	}
	wg.Wait()

	healthy := make([]*record.DeviceRecord, 0, len(records))
	var failures []DeviceOutcome
	for i, rec := range records {
		if errs[i] != nil {
			deviceFailures.WithLabelValues("detail").Inc()
			failures = append(failures, DeviceOutcome{
				Manufacturer: string(rec.Manufacturer),
				DeviceID:     rec.DeviceID,
				Stage:        "detail",
				Error:        errs[i].Error(),
			})
			slog.Error("detail fetch failed, device skipped",
				"manufacturer", rec.Manufacturer,
				"device_id", rec.DeviceID,
				"error", errs[i])
			continue
		}
		healthy = append(healthy, rec)
	}
	return healthy, failures
}

// fetchDeviceDetail runs the three detail calls for one mower in order:
// status, geofence, settings. The internal id addresses the device on the
// internal API.
func (p *Pipeline) fetchDeviceDetail(ctx context.Context, rec *record.DeviceRecord, token string) error {
	status, err := p.mowerInternal.GetStatus(ctx, rec.InternalID, token)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	rec.ApplyStatus(status)

	geofence, err := p.mowerInternal.GetGeofence(ctx, rec.InternalID, token)
	if err != nil {
		return fmt.Errorf("geofence: %w", err)
	}
	rec.ApplyGeofence(geofence)

	settings, err := p.mowerInternal.GetSettings(ctx, rec.InternalID, token)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	rec.ApplySettings(settings)
	return nil
}

func (p *Pipeline) collectSprinklers(ctx context.Context) ([]*record.DeviceRecord, error) {
	personID, err := p.sprinkler.GetPersonInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("person info: %w", err)
	}
	person, err := p.sprinkler.GetPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("person: %w", err)
	}
	return record.NormalizeSprinklers(person.ID, person.Devices), nil
}

// enrichRecord attaches the weather snapshot and, when geocoding is wired,
// the parsed address. Weather failures fail the record; address resolution
// is best-effort and never blocks persistence, but a malformed place name is
// logged rather than persisted with wrong offsets.
func (p *Pipeline) enrichRecord(ctx context.Context, rec *record.DeviceRecord) error {
	if len(rec.LastLocations) == 0 {
		return enrich.ErrNoLocation
	}
	loc := rec.LastLocations[0]

	forecast, err := p.weather.GetForecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("weather: %w", err)
	}
	rec.Weather = enrich.BuildWeather(forecast)

	if p.geocode != nil {
		candidates, err := p.geocode.GetAddress(ctx, loc.Latitude, loc.Longitude)
		switch {
		case err != nil:
			slog.Warn("address lookup failed",
				"manufacturer", rec.Manufacturer, "device_id", rec.DeviceID, "error", err)
		case len(candidates) == 0:
			slog.Warn("address lookup returned no candidates",
				"manufacturer", rec.Manufacturer, "device_id", rec.DeviceID)
		default:
			addr, err := enrich.ParsePlaceName(candidates[0].PlaceName)
			if err != nil {
				slog.Warn("address parse failed",
					"manufacturer", rec.Manufacturer, "device_id", rec.DeviceID, "error", err)
			} else {
				rec.Address = &addr
			}
		}
	}
	return nil
}
