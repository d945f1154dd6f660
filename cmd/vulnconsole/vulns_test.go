package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vulnconsole/vulnconsole/internal/urlstate"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

func TestVulnsOptionsLocation(t *testing.T) {
	t.Parallel()

	opts := vulnsOptions{
		page:      3,
		perPage:   20,
		sortField: "CVE",
		sortDir:   "ASC",
		filters:   []string{"Severity=CRITICAL_VULNERABILITY_SEVERITY,LOW_VULNERABILITY_SEVERITY", "Fixable=true"},
	}
	query := vulns.ReadViewQuery(opts.location())

	if query.Page.Page != 3 || query.Page.PerPage != 20 {
		t.Fatalf("page = %+v, want page 3 of 20", query.Page)
	}
	if query.Sort.Field != vulns.SortFieldCVE || query.Sort.Direction != urlstate.SortAsc {
		t.Fatalf("sort = %+v", query.Sort)
	}
	if got := query.Filter.Values(vulns.SearchFieldSeverity); len(got) != 2 {
		t.Fatalf("severity filter = %v, want two values", got)
	}
	vars := query.Variables("sha256:abc")
	if vars.Pagination.Offset != 40 || vars.Pagination.Limit != 20 {
		t.Fatalf("pagination = %+v, want offset 40 limit 20", vars.Pagination)
	}
	if !strings.Contains(vars.Query, "Fixable:true") {
		t.Fatalf("query = %q, want Fixable:true", vars.Query)
	}
}

func TestVulnsOptionsLocation_Defaults(t *testing.T) {
	t.Parallel()

	query := vulns.ReadViewQuery(vulnsOptions{page: 1}.location())
	if query.Page.Page != 1 || query.Page.PerPage != vulns.DefaultPerPage {
		t.Fatalf("page = %+v, want defaults", query.Page)
	}
	if query.Sort != vulns.ImageSortConfig.Default {
		t.Fatalf("sort = %+v, want default", query.Sort)
	}
}

func TestPrintVulnerabilities(t *testing.T) {
	t.Parallel()

	discovered := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data := vulns.ImageVulnerabilities{
		ImageID: "sha256:abc",
		Counter: vulns.VulnerabilityCounter{
			All:      vulns.Counter{Total: 2, Fixable: 1},
			Critical: vulns.Counter{Total: 1, Fixable: 1},
			Low:      vulns.Counter{Total: 1},
		},
		Vulnerabilities: []vulns.Vulnerability{
			{CVE: "CVE-2024-0001", Severity: vulns.SeverityCritical, IsFixable: true, DiscoveredAt: &discovered},
			{CVE: "CVE-2024-0002", Severity: vulns.SeverityLow},
		},
	}
	opts := vulnsOptions{filters: []string{"Severity=Critical"}}
	query := vulns.ReadViewQuery(opts.location())

	var out bytes.Buffer
	if err := printVulnerabilities(&out, data, query); err != nil {
		t.Fatalf("printVulnerabilities() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"Image sha256:abc: 2 CVEs", "hidden", "CVE-2024-0001", "2024-03-01", "1 - 2 of 2"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestVulnsOptionsValidate(t *testing.T) {
	t.Parallel()

	valid := vulnsOptions{page: 1, perPage: 50}
	tests := []struct {
		name    string
		mutate  func(*vulnsOptions)
		wantErr string
	}{
		{name: "defaults", mutate: func(*vulnsOptions) {}},
		{name: "sorted", mutate: func(o *vulnsOptions) { o.sortField, o.sortDir = "CVE", "ASC" }},
		{name: "unsupported per page", mutate: func(o *vulnsOptions) { o.perPage = 25 }, wantErr: "--per-page must be one of 10, 20, 50, 100"},
		{name: "zero page", mutate: func(o *vulnsOptions) { o.page = 0 }, wantErr: "--page"},
		{name: "unknown sort field", mutate: func(o *vulnsOptions) { o.sortField = "Score" }, wantErr: "--sort-field"},
		{name: "unknown sort direction", mutate: func(o *vulnsOptions) { o.sortDir = "up" }, wantErr: "--sort-dir"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := valid
			tc.mutate(&opts)
			err := opts.validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("validate() error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}
