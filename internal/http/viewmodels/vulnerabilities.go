package viewmodels

// SummaryBucket is one entry of a summary card. Hidden wins over a zero count.
type SummaryBucket struct {
	Key    string
	Label  string
	Count  int
	Hidden bool
}

type SummaryCard struct {
	Title   string
	Buckets []SummaryBucket
}

type ComponentRow struct {
	Name       string
	Version    string
	FixedIn    string
	Location   string
	LayerIndex string
}

type VulnerabilityRow struct {
	CVE           string
	Summary       string
	Severity      string
	SeverityLabel string
	Fixable       string
	DiscoveredAt  string
	Components    []ComponentRow
}

type SortHeader struct {
	Label     string
	Field     string
	Href      string
	Active    bool
	Direction string
}

type PageLink struct {
	Label    string
	Href     string
	Active   bool
	Disabled bool
}

type PerPageLink struct {
	PerPage int
	Href    string
	Active  bool
}

type PaginationData struct {
	TotalCount  int
	Page        int
	TotalPages  int
	ShowingFrom int
	ShowingTo   int
	Previous    PageLink
	Next        PageLink
	Pages       []PageLink
	PerPage     []PerPageLink
}

type CveStatusTabLink struct {
	Value   string
	Label   string
	Href    string
	Active  bool
	Enabled bool
}

type FilterOption struct {
	Value    string
	Label    string
	Selected bool
}

// FilterFormData is the GET form that rewrites the search filter of the URL.
// Hidden carries the other URL parameters that survive a filter change.
type FilterFormData struct {
	Action     string
	Severities []FilterOption
	Statuses   []FilterOption
	Hidden     []HiddenInput
	ClearHref  string
	HasApplied bool
}

type HiddenInput struct {
	Name  string
	Value string
}

// ImageVulnerabilitiesResults is the swappable results container.
type ImageVulnerabilitiesResults struct {
	ImageID string
	// SelfHref is the URL the container reloads itself from.
	SelfHref string
	// Deferred marks a page shell whose container loads its results after render.
	Deferred     bool
	Spinner      bool
	ErrorMessage string
	HasData      bool
	TotalCount   int
	Filtered     bool
	SeverityCard SummaryCard
	StatusCard   SummaryCard
	Headers      []SortHeader
	Rows         []VulnerabilityRow
	Pagination   PaginationData
	TabDisabled  bool
}

type ImageVulnerabilitiesViewData struct {
	Layout  LayoutData
	ImageID string
	Tabs    []CveStatusTabLink
	Filter  FilterFormData
	Results ImageVulnerabilitiesResults
}

// ImageVulnerabilitiesFragmentData is the results container together with
// the controls that are refreshed alongside it.
type ImageVulnerabilitiesFragmentData struct {
	Results ImageVulnerabilitiesResults
	Tabs    []CveStatusTabLink
	Filter  FilterFormData
}
