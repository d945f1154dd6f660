package urlstate

import (
	"slices"
	"strings"
)

const (
	sortFieldParam     = "sortField"
	sortDirectionParam = "sortDirection"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Reversed reports whether d sorts descending.
func (d SortDirection) Reversed() bool {
	return d == SortDesc
}

func (d SortDirection) toggled() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

func parseSortDirection(raw string) (SortDirection, bool) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(raw))) {
	case SortAsc:
		return SortAsc, true
	case SortDesc:
		return SortDesc, true
	default:
		return "", false
	}
}

type SortOption struct {
	Field     string
	Direction SortDirection
}

// SortConfig lists the sortable fields and the option used when the URL
// holds none or an unknown one.
type SortConfig struct {
	Fields  []string
	Default SortOption
}

// ReadSort returns the active sort option. An unknown field or direction
// falls back to the default independently.
func ReadSort(port Port, cfg SortConfig) SortOption {
	values := port.Query()
	option := cfg.Default
	if field := strings.TrimSpace(values.Get(sortFieldParam)); field != "" && slices.Contains(cfg.Fields, field) {
		option.Field = field
	}
	if direction, ok := parseSortDirection(values.Get(sortDirectionParam)); ok {
		option.Direction = direction
	}
	if option.Direction == "" {
		option.Direction = SortDesc
	}
	return option
}

// SetSort returns the href for option. The page resets to 1.
func SetSort(port Port, option SortOption) string {
	values := port.Query()
	values.Set(sortFieldParam, option.Field)
	direction := option.Direction
	if direction == "" {
		direction = SortDesc
	}
	values.Set(sortDirectionParam, string(direction))
	values.Del(pageParam)
	return port.Href(values)
}

// SortParams describes a sortable column header.
type SortParams struct {
	Field     string
	Active    bool
	Direction SortDirection
	Href      string
}

// SortParamsFor returns the header state for field. Following Href on the
// active column flips the direction; on another column it applies the
// default direction.
func SortParamsFor(port Port, cfg SortConfig, field string) SortParams {
	current := ReadSort(port, cfg)
	params := SortParams{Field: field, Active: current.Field == field}

	next := SortOption{Field: field, Direction: cfg.Default.Direction}
	if next.Direction == "" {
		next.Direction = SortDesc
	}
	if params.Active {
		params.Direction = current.Direction
		next.Direction = current.Direction.toggled()
	}
	params.Href = SetSort(port, next)
	return params
}
