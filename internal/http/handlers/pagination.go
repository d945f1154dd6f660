package handlers

import (
	"strconv"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
	"github.com/vulnconsole/vulnconsole/internal/urlstate"
)

const pageWindowSize = 5

func totalPages(totalCount, perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	pages := (totalCount + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

func showingRange(totalCount, offset, showingCount int) (int, int) {
	if totalCount <= 0 || showingCount <= 0 {
		return 0, 0
	}
	showingFrom := offset + 1
	showingTo := offset + showingCount
	if showingTo > totalCount {
		showingTo = totalCount
	}
	return showingFrom, showingTo
}

// pageWindow returns up to size page numbers centered on page.
func pageWindow(page, pages, size int) []int {
	if size < 1 || pages < 1 {
		return nil
	}
	start := page - size/2
	if start+size-1 > pages {
		start = pages - size + 1
	}
	if start < 1 {
		start = 1
	}
	end := min(start+size-1, pages)
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}

// buildPagination describes the pagination control for the URL held by port.
// The page stays the one in the URL even when it lies past the last page.
func buildPagination(port urlstate.Port, state urlstate.PageState, perPageOptions []int, totalCount, showingCount int) viewmodels.PaginationData {
	pages := totalPages(totalCount, state.PerPage)
	from, to := showingRange(totalCount, state.Offset(), showingCount)

	data := viewmodels.PaginationData{
		TotalCount:  totalCount,
		Page:        state.Page,
		TotalPages:  pages,
		ShowingFrom: from,
		ShowingTo:   to,
		Previous: viewmodels.PageLink{
			Label:    "Previous",
			Href:     urlstate.SetPage(port, state.Page-1),
			Disabled: state.Page <= 1,
		},
		Next: viewmodels.PageLink{
			Label:    "Next",
			Href:     urlstate.SetPage(port, state.Page+1),
			Disabled: state.Page >= pages,
		},
	}
	for _, p := range pageWindow(state.Page, pages, pageWindowSize) {
		data.Pages = append(data.Pages, viewmodels.PageLink{
			Label:  strconv.Itoa(p),
			Href:   urlstate.SetPage(port, p),
			Active: p == state.Page,
		})
	}
	for _, n := range perPageOptions {
		data.PerPage = append(data.PerPage, viewmodels.PerPageLink{
			PerPage: n,
			Href:    urlstate.SetPerPage(port, state, n, totalCount),
			Active:  n == state.PerPage,
		})
	}
	return data
}
