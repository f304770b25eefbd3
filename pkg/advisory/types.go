package advisory

import (
	"math"
	"time"
)

// Advisories maps an advisory ID (e.g. "USN-4217-2") to its record.
type Advisories map[string]Advisory

type Advisory struct {
	ID          string   `json:"id"`
	CVEs        []string `json:"cves"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Timestamp   float64  `json:"timestamp"`

	// Both summaries are optional in the feed; see ResolveSummary.
	Summary         *string `json:"summary"`
	ExtendedSummary *string `json:"isummary"`

	Releases map[string]Release `json:"releases"`
}

type Release struct {
	Binaries map[string]Binary `json:"binaries"`
	Sources  map[string]Source `json:"sources"`
}

type Binary struct {
	Version string `json:"version"`
	Pocket  string `json:"pocket,omitempty"`
}

type Source struct {
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Entry is one (advisory, binary package) pair for a single release.
type Entry struct {
	AdvisoryID   string
	Package      string
	FixedVersion string
	CVEs         []string
	Summary      string
	Title        string
	Description  string
	Published    *time.Time
}

// Published converts the fractional Unix timestamp of the feed. It is nil
// when the record carries none.
func (a Advisory) Published() *time.Time {
	if a.Timestamp <= 0 {
		return nil
	}
	sec, frac := math.Modf(a.Timestamp)
	t := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	return &t
}

const noSummary = "No summary"

// ResolveSummary prefers the extended summary, then the short one.
func (a Advisory) ResolveSummary() string {
	switch {
	case a.ExtendedSummary != nil:
		return *a.ExtendedSummary
	case a.Summary != nil:
		return *a.Summary
	default:
		return noSummary
	}
}
