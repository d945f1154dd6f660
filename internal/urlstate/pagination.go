package urlstate

import (
	"slices"
	"strconv"
	"strings"
)

const (
	pageParam    = "page"
	perPageParam = "perPage"
)

// PageState is the page number and page size held in the URL.
type PageState struct {
	Page    int
	PerPage int
}

// Offset returns the index of the first row on the page.
func (s PageState) Offset() int {
	return (s.Page - 1) * s.PerPage
}

// WithPerPage returns the state after switching to newPerPage. The page
// resets to 1 when totalCount < (Page-1)*newPerPage.
func (s PageState) WithPerPage(newPerPage int, totalCount int) PageState {
	next := PageState{Page: s.Page, PerPage: newPerPage}
	if next.Page < 1 {
		next.Page = 1
	}
	if totalCount < (next.Page-1)*newPerPage {
		next.Page = 1
	}
	return next
}

// ReadPageState reads page and perPage. A missing, malformed or non-positive
// page falls back to 1. A perPage outside perPageOptions falls back to
// defaultPerPage; with no options any positive value is accepted.
func ReadPageState(port Port, defaultPerPage int, perPageOptions []int) PageState {
	if defaultPerPage < 1 {
		defaultPerPage = 1
	}
	values := port.Query()
	state := PageState{Page: 1, PerPage: defaultPerPage}

	if page, ok := positiveInt(values.Get(pageParam)); ok {
		state.Page = page
	}
	if perPage, ok := positiveInt(values.Get(perPageParam)); ok {
		if len(perPageOptions) == 0 || slices.Contains(perPageOptions, perPage) {
			state.PerPage = perPage
		}
	}
	return state
}

// SetPage returns the href for page.
func SetPage(port Port, page int) string {
	values := port.Query()
	if page <= 1 {
		values.Del(pageParam)
	} else {
		values.Set(pageParam, strconv.Itoa(page))
	}
	return port.Href(values)
}

// SetPerPage returns the href after switching the page size, applying the
// page reset rule of PageState.WithPerPage.
func SetPerPage(port Port, current PageState, newPerPage int, totalCount int) string {
	next := current.WithPerPage(newPerPage, totalCount)
	values := port.Query()
	values.Set(perPageParam, strconv.Itoa(next.PerPage))
	if next.Page <= 1 {
		values.Del(pageParam)
	} else {
		values.Set(pageParam, strconv.Itoa(next.Page))
	}
	return port.Href(values)
}

// Pagination is the pagination argument of a list query.
type Pagination struct {
	Offset     int
	Limit      int
	SortOption SortOption
}

// NewPagination combines page and sort state into a query argument.
func NewPagination(state PageState, sortOption SortOption) Pagination {
	page := state.Page
	if page < 1 {
		page = 1
	}
	limit := state.PerPage
	if limit < 1 {
		limit = 1
	}
	return Pagination{
		Offset:     (page - 1) * limit,
		Limit:      limit,
		SortOption: sortOption,
	}
}

func positiveInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
