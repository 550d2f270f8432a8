package pipeline

import "time"

// DeviceOutcome records a per-device failure and the stage it happened in.
type DeviceOutcome struct {
	Manufacturer string `json:"manufacturer"`
	DeviceID     string `json:"deviceId"`
	Stage        string `json:"stage"`
	Error        string `json:"error"`
}

// FamilyError records a family-level abort (token or listing failure), which
// drops every device of that family from the run.
type FamilyError struct {
	Family string `json:"family"`
	Error  string `json:"error"`
}

// RunSummary is the bookkeeping for one pipeline run, served by the admin
// API.
type RunSummary struct {
	RunID        string          `json:"runId"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   time.Time       `json:"finishedAt"`
	Devices      int             `json:"devices"`
	Persisted    int             `json:"persisted"`
	FamilyErrors []FamilyError   `json:"familyErrors,omitempty"`
	Failures     []DeviceOutcome `json:"failures,omitempty"`
}

// LastRun returns a copy of the most recent run summary, if any run has
// completed since startup.
func (p *Pipeline) LastRun() (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastRun == nil {
		return RunSummary{}, false
	}
	return *p.lastRun, true
}

func (p *Pipeline) setLastRun(summary *RunSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRun = summary
}
