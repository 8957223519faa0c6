package usage

import (
	"testing"

	"github.com/axio-hub/axio-go/internal/models"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		used  int64
		limit int64
		want  float64
	}{
		{"zero limit", 10, 0, 0},
		{"negative limit", 10, -5, 0},
		{"zero used", 0, 100, 0},
		{"three quarters", 15, 20, 75},
		{"ninety", 18, 20, 90},
		{"at limit", 50, 50, 100},
		{"over limit", 60, 50, 120},
		{"fractional", 1, 3, 100.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.used, tt.limit); got != tt.want {
				t.Errorf("Percent(%d, %d) = %v, want %v", tt.used, tt.limit, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		percent float64
		want    Severity
	}{
		{0, Healthy},
		{50, Healthy},
		{74.9, Healthy},
		{75, Warning},
		{89.9, Warning},
		{90, Critical},
		{99.9, Critical},
		{100, Blocked},
		{150, Blocked},
	}

	for _, tt := range tests {
		if got := Classify(tt.percent); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.percent, got, tt.want)
		}
	}
}

// Classification must be monotonic in percent so a fuller quota never
// displays a calmer tier.
func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0)
	for p := 1; p <= 120; p++ {
		cur := Classify(float64(p))
		if cur < prev {
			t.Fatalf("severity regressed at %d%%: %v -> %v", p, prev, cur)
		}
		prev = cur
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		snap        models.UsageSnapshot
		wantFilesPc float64
		wantOverall Severity
		wantLabel   string
		wantBlocked bool
	}{
		{
			name: "approaching limit",
			snap: models.UsageSnapshot{
				Plan:  models.PlanPro,
				Files: models.UsageMetric{Used: 15, Limit: 20},
			},
			wantFilesPc: 75,
			wantOverall: Warning,
			wantLabel:   "Approaching Limit",
		},
		{
			name: "critical",
			snap: models.UsageSnapshot{
				Plan:  models.PlanPro,
				Files: models.UsageMetric{Used: 18, Limit: 20},
			},
			wantFilesPc: 90,
			wantOverall: Critical,
			wantLabel:   "Critical",
		},
		{
			name: "at limit blocks uploads",
			snap: models.UsageSnapshot{
				Plan:  models.PlanFree,
				Files: models.UsageMetric{Used: 50, Limit: 50},
			},
			wantFilesPc: 100,
			wantOverall: Blocked,
			wantLabel:   "Limit Reached",
			wantBlocked: true,
		},
		{
			name: "worst metric wins",
			snap: models.UsageSnapshot{
				Plan:    models.PlanPro,
				Files:   models.UsageMetric{Used: 1, Limit: 100},
				Storage: models.UsageMetric{Used: 95, Limit: 100},
			},
			wantFilesPc: 1,
			wantOverall: Critical,
			wantLabel:   "Critical",
		},
		{
			name: "enterprise bypasses thresholds",
			snap: models.UsageSnapshot{
				Plan:  models.PlanEnterprise,
				Files: models.UsageMetric{Used: 999, Limit: 10},
			},
			wantFilesPc: 9990,
			wantOverall: Unlimited,
			wantLabel:   "Unlimited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Evaluate(tt.snap)
			if st.FilesPercent != tt.wantFilesPc {
				t.Errorf("FilesPercent = %v, want %v", st.FilesPercent, tt.wantFilesPc)
			}
			if st.Overall != tt.wantOverall {
				t.Errorf("Overall = %v, want %v", st.Overall, tt.wantOverall)
			}
			if got := st.Overall.String(); got != tt.wantLabel {
				t.Errorf("Overall.String() = %q, want %q", got, tt.wantLabel)
			}
			if got := st.UploadBlocked(); got != tt.wantBlocked {
				t.Errorf("UploadBlocked() = %v, want %v", got, tt.wantBlocked)
			}
		})
	}
}
