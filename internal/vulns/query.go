package vulns

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/vulnconsole/vulnconsole/internal/urlstate"
)

const (
	SortFieldCVE      = "CVE"
	SortFieldSeverity = "Severity"
	SortFieldFixable  = "Fixable"

	SearchFieldSeverity = "Severity"
	SearchFieldFixable  = "Fixable"

	CveStatusParam = "cveStatus"

	DefaultPerPage = 50
)

// PerPageOptions are the page sizes offered by the image view.
var PerPageOptions = []int{10, 20, 50, 100}

// ImageSortConfig is the sort configuration of the image vulnerability table.
var ImageSortConfig = urlstate.SortConfig{
	Fields:  []string{SortFieldCVE, SortFieldSeverity, SortFieldFixable},
	Default: urlstate.SortOption{Field: SortFieldSeverity, Direction: urlstate.SortDesc},
}

// Variables is the full variable set of an image vulnerability query.
// Filter is the search filter Query was built from; it is not sent.
type Variables struct {
	ID         string
	Query      string
	Pagination urlstate.Pagination
	Filter     urlstate.SearchFilter
}

// Key returns a stable digest of the variable set.
func (v Variables) Key() string {
	payload, _ := json.Marshal(struct {
		ID        string `json:"id"`
		Query     string `json:"query"`
		Offset    int    `json:"offset"`
		Limit     int    `json:"limit"`
		SortField string `json:"sortField"`
		Reversed  bool   `json:"reversed"`
	}{
		ID:        v.ID,
		Query:     v.Query,
		Offset:    v.Pagination.Offset,
		Limit:     v.Pagination.Limit,
		SortField: v.Pagination.SortOption.Field,
		Reversed:  v.Pagination.SortOption.Direction.Reversed(),
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ViewQuery is the URL state of an image vulnerability view.
type ViewQuery struct {
	Filter urlstate.SearchFilter
	Page   urlstate.PageState
	Sort   urlstate.SortOption
	Tab    CveStatusTab
}

// ReadViewQuery reads every slice of view state from port.
func ReadViewQuery(port urlstate.Port) ViewQuery {
	return ViewQuery{
		Filter: urlstate.ReadSearchFilter(port),
		Page:   urlstate.ReadPageState(port, DefaultPerPage, PerPageOptions),
		Sort:   urlstate.ReadSort(port, ImageSortConfig),
		Tab:    CveStatusTab(urlstate.ReadStringUnion(port, CveStatusParam, CveStatusTabValues)),
	}
}

// Variables combines the view state into query variables for imageID.
func (q ViewQuery) Variables(imageID string) Variables {
	return Variables{
		ID:         strings.TrimSpace(imageID),
		Query:      q.Filter.QueryString(),
		Pagination: urlstate.NewPagination(q.Page, q.Sort),
		Filter:     q.Filter.Clone(),
	}
}

// HiddenSeverities returns the severity buckets excluded by the filter.
func HiddenSeverities(filter urlstate.SearchFilter) map[Severity]bool {
	hidden := map[Severity]bool{}
	if !filter.Has(SearchFieldSeverity) {
		return hidden
	}
	selected := map[Severity]bool{}
	for _, value := range filter.Values(SearchFieldSeverity) {
		selected[ParseSeverity(value)] = true
	}
	for _, severity := range SeveritiesCriticalToLow {
		if !selected[severity] {
			hidden[severity] = true
		}
	}
	return hidden
}

// HiddenStatuses returns the fix status buckets excluded by the filter.
func HiddenStatuses(filter urlstate.SearchFilter) map[FixableStatus]bool {
	hidden := map[FixableStatus]bool{}
	if !filter.Has(SearchFieldFixable) {
		return hidden
	}
	selected := map[FixableStatus]bool{}
	for _, value := range filter.Values(SearchFieldFixable) {
		if status, ok := parseFixableStatus(value); ok {
			selected[status] = true
		}
	}
	for _, status := range FixableStatuses {
		if !selected[status] {
			hidden[status] = true
		}
	}
	return hidden
}

func parseFixableStatus(raw string) (FixableStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "fixable":
		return StatusFixable, true
	case "false", "not fixable":
		return StatusNotFixable, true
	default:
		return "", false
	}
}
