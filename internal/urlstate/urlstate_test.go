package urlstate

import (
	"net/url"
	"reflect"
	"testing"
)

func location(t *testing.T, raw string) Location {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", raw, err)
	}
	return FromURL(u)
}

func queryOf(t *testing.T, href string) url.Values {
	t.Helper()
	u, err := url.Parse(href)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", href, err)
	}
	return u.Query()
}

var imageSortConfig = SortConfig{
	Fields:  []string{"CVE", "Severity", "Fixable"},
	Default: SortOption{Field: "Severity", Direction: SortDesc},
}

func TestSearchFilter_QueryString(t *testing.T) {
	t.Parallel()

	filter := SearchFilter{
		"Severity": {"Critical", " ", "Important", "Critical"},
		"CVE":      {"CVE-2023-1234"},
		"Fixable":  {},
	}
	if got, want := filter.QueryString(), "CVE:CVE-2023-1234+Severity:Critical,Important"; got != want {
		t.Fatalf("QueryString() = %q, want %q", got, want)
	}
	if !filter.HasSearchApplied() {
		t.Fatal("HasSearchApplied() = false, want true")
	}
	if filter.Has("Fixable") {
		t.Fatal("Has(Fixable) = true for empty values")
	}
}

func TestSearchFilter_EmptyHasNoConstraint(t *testing.T) {
	t.Parallel()

	filter := SearchFilter{"Severity": {"", "  "}}
	if filter.HasSearchApplied() {
		t.Fatal("HasSearchApplied() = true, want false")
	}
	if got := filter.QueryString(); got != "" {
		t.Fatalf("QueryString() = %q, want empty", got)
	}
}

func TestReadSearchFilter(t *testing.T) {
	t.Parallel()

	loc := location(t, "/images/abc/vulnerabilities?s[Severity]=Critical&s[Severity]=Low&s[]=x&page=2&s[CVE]=CVE-1")
	filter := ReadSearchFilter(loc)

	want := SearchFilter{"Severity": {"Critical", "Low"}, "CVE": {"CVE-1"}}
	if !reflect.DeepEqual(filter, want) {
		t.Fatalf("ReadSearchFilter() = %#v, want %#v", filter, want)
	}
}

func TestSetSearchFilter_PreservesOtherSlicesAndResetsPage(t *testing.T) {
	t.Parallel()

	loc := location(t, "/v?s[CVE]=old&page=3&perPage=20&sortField=CVE&sortDirection=asc&cveStatus=Observed")
	href := SetSearchFilter(loc, SearchFilter{"Severity": {"Critical"}})
	got := queryOf(t, href)

	if got.Get("s[Severity]") != "Critical" {
		t.Fatalf("s[Severity] = %q, want Critical", got.Get("s[Severity]"))
	}
	if got.Has("s[CVE]") {
		t.Fatal("old filter field was kept")
	}
	if got.Has("page") {
		t.Fatal("page was not reset")
	}
	for key, want := range map[string]string{"perPage": "20", "sortField": "CVE", "sortDirection": "asc", "cveStatus": "Observed"} {
		if got.Get(key) != want {
			t.Fatalf("%s = %q, want %q", key, got.Get(key), want)
		}
	}
}

func TestRetainedOnSearch(t *testing.T) {
	t.Parallel()

	loc := location(t, "/v?s[Severity]=Low&page=3&perPage=20&sortField=CVE&cveStatus=Observed")
	got := RetainedOnSearch(loc)

	if got.Has("s[Severity]") || got.Has("page") {
		t.Fatalf("RetainedOnSearch() = %v, want search and page dropped", got)
	}
	if got.Get("perPage") != "20" || got.Get("sortField") != "CVE" || got.Get("cveStatus") != "Observed" {
		t.Fatalf("RetainedOnSearch() = %v", got)
	}
}

func TestSearchFilterFromValues(t *testing.T) {
	t.Parallel()

	filter := SearchFilterFromValues([]string{"Severity=Critical,Important", "bogus", "CVE=CVE-1", "Severity=Critical"})
	if got, want := filter.QueryString(), "CVE:CVE-1+Severity:Critical,Important"; got != want {
		t.Fatalf("QueryString() = %q, want %q", got, want)
	}
}

func TestReadPageState(t *testing.T) {
	t.Parallel()

	options := []int{10, 20, 50, 100}
	tests := []struct {
		name string
		raw  string
		want PageState
	}{
		{name: "defaults", raw: "/v", want: PageState{Page: 1, PerPage: 50}},
		{name: "valid", raw: "/v?page=3&perPage=20", want: PageState{Page: 3, PerPage: 20}},
		{name: "malformed page", raw: "/v?page=abc&perPage=10", want: PageState{Page: 1, PerPage: 10}},
		{name: "negative page", raw: "/v?page=-2", want: PageState{Page: 1, PerPage: 50}},
		{name: "zero page", raw: "/v?page=0", want: PageState{Page: 1, PerPage: 50}},
		{name: "per page not an option", raw: "/v?perPage=33", want: PageState{Page: 1, PerPage: 50}},
		{name: "per page malformed", raw: "/v?perPage=lots", want: PageState{Page: 1, PerPage: 50}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ReadPageState(location(t, tc.raw), 50, options); got != tc.want {
				t.Fatalf("ReadPageState() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPageState_WithPerPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		state      PageState
		newPerPage int
		total      int
		wantPage   int
	}{
		{name: "page stays in range", state: PageState{Page: 2, PerPage: 10}, newPerPage: 20, total: 100, wantPage: 2},
		{name: "page resets when out of range", state: PageState{Page: 5, PerPage: 10}, newPerPage: 50, total: 100, wantPage: 1},
		{name: "boundary keeps page", state: PageState{Page: 3, PerPage: 10}, newPerPage: 50, total: 100, wantPage: 3},
		{name: "first page unchanged", state: PageState{Page: 1, PerPage: 50}, newPerPage: 10, total: 0, wantPage: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tc.state.WithPerPage(tc.newPerPage, tc.total)
			if got.Page != tc.wantPage || got.PerPage != tc.newPerPage {
				t.Fatalf("WithPerPage() = %+v, want page %d perPage %d", got, tc.wantPage, tc.newPerPage)
			}
		})
	}
}

func TestPageState_WithPerPageResetRuleHoldsForAllInputs(t *testing.T) {
	t.Parallel()

	for page := 1; page <= 12; page++ {
		for _, perPage := range []int{10, 20, 50, 100} {
			for _, newPerPage := range []int{10, 20, 50, 100} {
				for _, total := range []int{0, 1, 49, 50, 51, 199, 200, 1000} {
					got := PageState{Page: page, PerPage: perPage}.WithPerPage(newPerPage, total)
					wantReset := total < (page-1)*newPerPage
					if wantReset && got.Page != 1 {
						t.Fatalf("page=%d newPerPage=%d total=%d: got page %d, want 1", page, newPerPage, total, got.Page)
					}
					if !wantReset && got.Page != page {
						t.Fatalf("page=%d newPerPage=%d total=%d: got page %d, want %d", page, newPerPage, total, got.Page, page)
					}
				}
			}
		}
	}
}

func TestSetPerPage_AppliesResetRule(t *testing.T) {
	t.Parallel()

	loc := location(t, "/v?page=5&perPage=10&sortField=CVE")
	got := queryOf(t, SetPerPage(loc, PageState{Page: 5, PerPage: 10}, 100, 120))
	if got.Has("page") {
		t.Fatalf("page = %q, want reset", got.Get("page"))
	}
	if got.Get("perPage") != "100" || got.Get("sortField") != "CVE" {
		t.Fatalf("query = %v", got)
	}

	got = queryOf(t, SetPerPage(loc, PageState{Page: 2, PerPage: 10}, 20, 120))
	if got.Get("page") != "2" {
		t.Fatalf("page = %q, want 2", got.Get("page"))
	}
}

func TestSetPage(t *testing.T) {
	t.Parallel()

	loc := location(t, "/v?perPage=20&s[CVE]=x")
	if got := queryOf(t, SetPage(loc, 4)); got.Get("page") != "4" || got.Get("perPage") != "20" || got.Get("s[CVE]") != "x" {
		t.Fatalf("SetPage(4) query = %v", got)
	}
	if got := queryOf(t, SetPage(loc, 1)); got.Has("page") {
		t.Fatal("SetPage(1) kept page param")
	}
}

func TestNewPagination(t *testing.T) {
	t.Parallel()

	sortOption := SortOption{Field: "CVE", Direction: SortAsc}
	got := NewPagination(PageState{Page: 3, PerPage: 20}, sortOption)
	want := Pagination{Offset: 40, Limit: 20, SortOption: sortOption}
	if got != want {
		t.Fatalf("NewPagination() = %+v, want %+v", got, want)
	}
}

func TestReadSort_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want SortOption
	}{
		{name: "defaults", raw: "/v", want: SortOption{Field: "Severity", Direction: SortDesc}},
		{name: "valid", raw: "/v?sortField=CVE&sortDirection=asc", want: SortOption{Field: "CVE", Direction: SortAsc}},
		{name: "unknown field", raw: "/v?sortField=Name&sortDirection=asc", want: SortOption{Field: "Severity", Direction: SortAsc}},
		{name: "unknown direction", raw: "/v?sortField=Fixable&sortDirection=sideways", want: SortOption{Field: "Fixable", Direction: SortDesc}},
		{name: "case mismatch field", raw: "/v?sortField=cve", want: SortOption{Field: "Severity", Direction: SortDesc}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ReadSort(location(t, tc.raw), imageSortConfig); got != tc.want {
				t.Fatalf("ReadSort() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSortParamsFor(t *testing.T) {
	t.Parallel()

	loc := location(t, "/v?sortField=CVE&sortDirection=asc&page=4&perPage=20")

	active := SortParamsFor(loc, imageSortConfig, "CVE")
	if !active.Active || active.Direction != SortAsc {
		t.Fatalf("active params = %+v", active)
	}
	got := queryOf(t, active.Href)
	if got.Get("sortDirection") != "desc" || got.Get("sortField") != "CVE" {
		t.Fatalf("active href query = %v, want flipped direction", got)
	}
	if got.Has("page") {
		t.Fatal("sort change kept page")
	}
	if got.Get("perPage") != "20" {
		t.Fatal("sort change dropped perPage")
	}

	other := SortParamsFor(loc, imageSortConfig, "Severity")
	if other.Active {
		t.Fatal("inactive column reported active")
	}
	got = queryOf(t, other.Href)
	if got.Get("sortField") != "Severity" || got.Get("sortDirection") != "desc" {
		t.Fatalf("inactive href query = %v", got)
	}
}

func TestStringUnion(t *testing.T) {
	t.Parallel()

	tabs := []string{"Observed", "Deferred", "False Positive"}
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "/v", want: "Observed"},
		{raw: "/v?cveStatus=Deferred", want: "Deferred"},
		{raw: "/v?cveStatus=False+Positive", want: "False Positive"},
		{raw: "/v?cveStatus=Ignored", want: "Observed"},
		{raw: "/v?cveStatus=deferred", want: "Observed"},
	}
	for _, tc := range tests {
		if got := ReadStringUnion(location(t, tc.raw), "cveStatus", tabs); got != tc.want {
			t.Fatalf("ReadStringUnion(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	loc := location(t, "/v?page=2&cveStatus=Observed")
	got := queryOf(t, SetStringUnion(loc, "cveStatus", "Deferred"))
	if got.Get("cveStatus") != "Deferred" || got.Get("page") != "2" {
		t.Fatalf("SetStringUnion query = %v", got)
	}
	if ReadStringUnion(loc, "cveStatus", nil) != "" {
		t.Fatal("ReadStringUnion with no values returned non-empty")
	}
}

func TestLocation_HrefWithoutQuery(t *testing.T) {
	t.Parallel()

	loc := Location{Path: "/images/abc/vulnerabilities"}
	if got := loc.Href(url.Values{}); got != "/images/abc/vulnerabilities" {
		t.Fatalf("Href() = %q", got)
	}
	if got := (Location{}).Href(nil); got != "/" {
		t.Fatalf("Href() on empty location = %q, want /", got)
	}
}

func TestLocation_QueryIsACopy(t *testing.T) {
	t.Parallel()

	loc := location(t, "/v?page=2")
	q := loc.Query()
	q.Set("page", "9")
	if loc.Query().Get("page") != "2" {
		t.Fatal("mutating Query() changed the location")
	}
}
