// Package usage derives quota percentages and threshold tiers from usage
// snapshots. All functions are pure; nothing here talks to the backend.
package usage

import "github.com/axio-hub/axio-go/internal/models"

// Severity classifies how close a metric is to its limit. The ordering is
// monotonic: Healthy < Warning < Critical < Blocked.
type Severity int

const (
	Healthy Severity = iota
	Warning
	Critical
	Blocked
	// Unlimited is reported for the enterprise tier regardless of numeric
	// usage. It sorts below Healthy so it never triggers a warning display.
	Unlimited Severity = -1
)

// Threshold boundaries, in percent.
const (
	warningThreshold  = 75
	criticalThreshold = 90
	blockedThreshold  = 100
)

// Percent returns used/limit as a percentage. A non-positive limit means the
// metric is not limited (or not yet known) and reports 0.
func Percent(used, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100
}

// Classify maps a percentage to its severity tier.
func Classify(percent float64) Severity {
	switch {
	case percent >= blockedThreshold:
		return Blocked
	case percent >= criticalThreshold:
		return Critical
	case percent >= warningThreshold:
		return Warning
	default:
		return Healthy
	}
}

// String returns the display label the dashboard shows for each tier.
func (s Severity) String() string {
	switch s {
	case Unlimited:
		return "Unlimited"
	case Healthy:
		return "Healthy"
	case Warning:
		return "Approaching Limit"
	case Critical:
		return "Critical"
	case Blocked:
		return "Limit Reached"
	default:
		return "Unknown"
	}
}

// Status summarizes one usage snapshot for display.
type Status struct {
	FilesPercent   float64
	StoragePercent float64
	Files          Severity
	Storage        Severity
	// Overall is the worse of the two metrics.
	Overall Severity
}

// Evaluate computes the display status for a snapshot. Enterprise plans
// bypass all thresholds and always report Unlimited.
func Evaluate(snap models.UsageSnapshot) Status {
	st := Status{
		FilesPercent:   Percent(snap.Files.Used, snap.Files.Limit),
		StoragePercent: Percent(snap.Storage.Used, snap.Storage.Limit),
	}

	if snap.Plan == models.PlanEnterprise {
		st.Files = Unlimited
		st.Storage = Unlimited
		st.Overall = Unlimited
		return st
	}

	st.Files = Classify(st.FilesPercent)
	st.Storage = Classify(st.StoragePercent)
	st.Overall = max(st.Files, st.Storage)
	return st
}

// UploadBlocked reports whether the UI should gate new uploads. This is a
// display gate only; the backend enforces the real limit.
func (s Status) UploadBlocked() bool {
	return s.Files == Blocked || s.Storage == Blocked
}
