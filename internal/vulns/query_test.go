package vulns

import (
	"net/url"
	"testing"

	"github.com/vulnconsole/vulnconsole/internal/urlstate"
)

func TestReadViewQuery_Variables(t *testing.T) {
	t.Parallel()

	u, _ := url.Parse("/images/img-1/vulnerabilities?page=3&perPage=20&sortField=CVE&sortDirection=asc&s[Severity]=Critical&cveStatus=Bogus")
	q := ReadViewQuery(urlstate.FromURL(u))

	if q.Tab != TabObserved {
		t.Fatalf("Tab = %q, want %q", q.Tab, TabObserved)
	}
	vars := q.Variables(" img-1 ")
	if vars.ID != "img-1" {
		t.Fatalf("ID = %q", vars.ID)
	}
	if vars.Query != "Severity:Critical" {
		t.Fatalf("Query = %q", vars.Query)
	}
	if vars.Pagination.Offset != 40 || vars.Pagination.Limit != 20 {
		t.Fatalf("Pagination = %+v", vars.Pagination)
	}
	if vars.Pagination.SortOption != (urlstate.SortOption{Field: SortFieldCVE, Direction: urlstate.SortAsc}) {
		t.Fatalf("SortOption = %+v", vars.Pagination.SortOption)
	}
}

func TestVariablesKey(t *testing.T) {
	t.Parallel()

	a := varsForPage(1)
	b := varsForPage(1)
	if a.Key() != b.Key() {
		t.Fatal("identical variables produced different keys")
	}
	if a.Key() == varsForPage(2).Key() {
		t.Fatal("different pages produced the same key")
	}
	c := varsForPage(1)
	c.Pagination.SortOption.Direction = urlstate.SortAsc
	if a.Key() == c.Key() {
		t.Fatal("different sort directions produced the same key")
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := map[string]Severity{
		"CRITICAL_VULNERABILITY_SEVERITY": SeverityCritical,
		"important":                       SeverityImportant,
		" Moderate ":                      SeverityModerate,
		"LOW":                             SeverityLow,
		"severe":                          SeverityUnknown,
	}
	for raw, want := range tests {
		if got := ParseSeverity(raw); got != want {
			t.Fatalf("ParseSeverity(%q) = %q, want %q", raw, got, want)
		}
	}
	if SeverityCritical.Rank() >= SeverityLow.Rank() {
		t.Fatal("critical does not rank before low")
	}
	if SeverityUnknown.Label() != "Unknown" || Severity("x").Label() != "Unknown" {
		t.Fatal("unknown severity label")
	}
}

func TestHiddenBuckets(t *testing.T) {
	t.Parallel()

	if len(HiddenSeverities(urlstate.SearchFilter{})) != 0 {
		t.Fatal("no filter hid severities")
	}

	hidden := HiddenSeverities(urlstate.SearchFilter{"Severity": {"Critical", "IMPORTANT_VULNERABILITY_SEVERITY"}})
	for severity, want := range map[Severity]bool{
		SeverityCritical:  false,
		SeverityImportant: false,
		SeverityModerate:  true,
		SeverityLow:       true,
	} {
		if hidden[severity] != want {
			t.Fatalf("hidden[%s] = %v, want %v", severity, hidden[severity], want)
		}
	}

	statuses := HiddenStatuses(urlstate.SearchFilter{"Fixable": {"true"}})
	if statuses[StatusFixable] || !statuses[StatusNotFixable] {
		t.Fatalf("HiddenStatuses() = %v", statuses)
	}
}

func TestVulnerabilityCounter(t *testing.T) {
	t.Parallel()

	c := VulnerabilityCounter{
		All:      Counter{Total: 10, Fixable: 4},
		Critical: Counter{Total: 2, Fixable: 1},
	}
	if c.ForSeverity(SeverityCritical).Total != 2 {
		t.Fatal("ForSeverity(critical) mismatch")
	}
	if c.ForSeverity(SeverityUnknown) != (Counter{}) {
		t.Fatal("ForSeverity(unknown) not zero")
	}
	if c.ForStatus(StatusFixable) != 4 || c.ForStatus(StatusNotFixable) != 6 {
		t.Fatal("ForStatus mismatch")
	}
}
