// Package vulns holds the image vulnerability domain and the fetcher that
// keeps per-view request state.
package vulns

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityCritical  Severity = "CRITICAL_VULNERABILITY_SEVERITY"
	SeverityImportant Severity = "IMPORTANT_VULNERABILITY_SEVERITY"
	SeverityModerate  Severity = "MODERATE_VULNERABILITY_SEVERITY"
	SeverityLow       Severity = "LOW_VULNERABILITY_SEVERITY"
	SeverityUnknown   Severity = "UNKNOWN_VULNERABILITY_SEVERITY"
)

// SeveritiesCriticalToLow is the display order of severity buckets.
var SeveritiesCriticalToLow = []Severity{
	SeverityCritical,
	SeverityImportant,
	SeverityModerate,
	SeverityLow,
}

var severityLabels = map[Severity]string{
	SeverityCritical:  "Critical",
	SeverityImportant: "Important",
	SeverityModerate:  "Moderate",
	SeverityLow:       "Low",
	SeverityUnknown:   "Unknown",
}

// ParseSeverity accepts an enum name or a display label, ignoring case.
// Anything else maps to SeverityUnknown.
func ParseSeverity(raw string) Severity {
	raw = strings.TrimSpace(raw)
	for severity, label := range severityLabels {
		if strings.EqualFold(raw, string(severity)) || strings.EqualFold(raw, label) {
			return severity
		}
	}
	return SeverityUnknown
}

func (s Severity) Label() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}
	return severityLabels[SeverityUnknown]
}

// Rank orders severities from critical (0) to unknown.
func (s Severity) Rank() int {
	for i, severity := range SeveritiesCriticalToLow {
		if severity == s {
			return i
		}
	}
	return len(SeveritiesCriticalToLow)
}

type FixableStatus string

const (
	StatusFixable    FixableStatus = "Fixable"
	StatusNotFixable FixableStatus = "Not fixable"
)

var FixableStatuses = []FixableStatus{StatusFixable, StatusNotFixable}

// CveStatusTab selects which triage state of CVEs a view lists.
type CveStatusTab string

const (
	TabObserved      CveStatusTab = "Observed"
	TabDeferred      CveStatusTab = "Deferred"
	TabFalsePositive CveStatusTab = "False Positive"
)

// CveStatusTabValues lists the tabs in display order. The first is the default.
var CveStatusTabValues = []string{string(TabObserved), string(TabDeferred), string(TabFalsePositive)}

// Label returns the tab title.
func (t CveStatusTab) Label() string {
	switch t {
	case TabDeferred:
		return "Deferrals"
	case TabFalsePositive:
		return "False positives"
	default:
		return "Observed CVEs"
	}
}

// Enabled reports whether the tab lists results yet.
func (t CveStatusTab) Enabled() bool {
	return t == TabObserved
}

type Counter struct {
	Total   int `json:"total"`
	Fixable int `json:"fixable"`
}

type VulnerabilityCounter struct {
	All       Counter `json:"all"`
	Low       Counter `json:"low"`
	Moderate  Counter `json:"moderate"`
	Important Counter `json:"important"`
	Critical  Counter `json:"critical"`
}

// ForSeverity returns the bucket counter for severity.
func (c VulnerabilityCounter) ForSeverity(severity Severity) Counter {
	switch severity {
	case SeverityCritical:
		return c.Critical
	case SeverityImportant:
		return c.Important
	case SeverityModerate:
		return c.Moderate
	case SeverityLow:
		return c.Low
	default:
		return Counter{}
	}
}

// ForStatus returns the number of CVEs with the given fix status.
func (c VulnerabilityCounter) ForStatus(status FixableStatus) int {
	switch status {
	case StatusFixable:
		return c.All.Fixable
	case StatusNotFixable:
		return max(c.All.Total-c.All.Fixable, 0)
	default:
		return 0
	}
}

type Component struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	FixedIn    string `json:"fixedIn"`
	Location   string `json:"location"`
	LayerIndex *int   `json:"layerIndex"`
}

type Vulnerability struct {
	Severity     Severity    `json:"severity"`
	IsFixable    bool        `json:"isFixable"`
	CVE          string      `json:"cve"`
	Summary      string      `json:"summary"`
	DiscoveredAt *time.Time  `json:"discoveredAtImage"`
	Components   []Component `json:"imageComponents"`
}

// FixableStatus returns the status bucket of v.
func (v Vulnerability) FixableStatus() FixableStatus {
	if v.IsFixable {
		return StatusFixable
	}
	return StatusNotFixable
}

type ImageVulnerabilities struct {
	ImageID         string               `json:"id"`
	Counter         VulnerabilityCounter `json:"imageVulnerabilityCounter"`
	Vulnerabilities []Vulnerability      `json:"imageVulnerabilities"`
}

// TotalCount is the number of CVEs matching the query across all pages.
func (iv ImageVulnerabilities) TotalCount() int {
	return iv.Counter.All.Total
}
