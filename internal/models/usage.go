package models

import "time"

// PlanTier is the billing tier applied to a user. The effective tier may be
// inherited from a team owner rather than the user's own subscription.
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// UsageMetric is one used/limit pair from the usage snapshot.
type UsageMetric struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// UsageSnapshot is the read-only aggregate returned by GET /usage. The client
// never mutates it; it is refreshed wholesale on demand. Percentages are
// derived, not stored.
type UsageSnapshot struct {
	Plan     PlanTier        `json:"plan"`
	Files    UsageMetric     `json:"files"`
	Storage  UsageMetric     `json:"storage"`
	Features map[string]bool `json:"features,omitempty"`
}

// EffectivePlan is the billing tier actually applied to the user.
type EffectivePlan struct {
	Plan      PlanTier `json:"plan"`
	Inherited bool     `json:"inherited"`
	OwnerID   *string  `json:"owner_id,omitempty"`
}

// DocumentStats summarizes the user's knowledge base.
type DocumentStats struct {
	TotalDocuments int        `json:"total_documents"`
	LastUpdated    *time.Time `json:"last_updated"`
}
