package views

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
)

// ResultsTargetID is the id of the swappable results container. Requests
// that target it receive only the container.
const ResultsTargetID = "image-vulnerabilities-results"

// Ids of the controls a results fragment refreshes out of band.
const (
	TabsID    = "image-vulnerabilities-tabs"
	FiltersID = "image-vulnerabilities-filters"
)

const (
	resultsTargetSelector = "#" + ResultsTargetID
	resultsSync           = resultsTargetSelector + ":replace"
	filterTrigger         = "change delay:150ms from:input, submit"
)

// BucketText is the text of one summary card entry.
func BucketText(b viewmodels.SummaryBucket) string {
	switch {
	case b.Hidden:
		return "Results hidden"
	case b.Count == 0:
		return "No results"
	default:
		return fmt.Sprintf("%d %s", b.Count, b.Label)
	}
}

// ResultsFoundText is the results header, e.g. "1 result found".
func ResultsFoundText(n int) string {
	if n == 1 {
		return "1 result found"
	}
	return strconv.Itoa(n) + " results found"
}

// ImageVulnerabilitiesPage is the full image vulnerabilities page.
func ImageVulnerabilitiesPage(data viewmodels.ImageVulnerabilitiesViewData) templ.Component {
	return Layout(data.Layout, component(func(m *markup) {
		m.open("header", "class", "page-header")
		m.elem("h1", data.ImageID)
		m.elem("p", "Review and triage vulnerability data scanned on this image")
		m.close("header")

		m.render(cveStatusTabs(data.Tabs, false))
		if !data.Results.TabDisabled {
			m.render(vulnerabilityFilterForm(data.Filter, false))
		}
		m.render(ImageVulnerabilitiesResults(data.Results))
	}))
}

// ImageVulnerabilitiesFragment is the response to a request targeting the
// results container. The tabs and the filter toolbar are swapped out of
// band so their links and hidden inputs follow the new URL.
func ImageVulnerabilitiesFragment(data viewmodels.ImageVulnerabilitiesFragmentData) templ.Component {
	return component(func(m *markup) {
		m.render(ImageVulnerabilitiesResults(data.Results))
		m.render(cveStatusTabs(data.Tabs, true))
		if !data.Results.TabDisabled {
			m.render(vulnerabilityFilterForm(data.Filter, true))
		}
	})
}

func cveStatusTabs(tabs []viewmodels.CveStatusTabLink, oob bool) templ.Component {
	return component(func(m *markup) {
		attrs := []string{"id", TabsID, "class", "tabs", "aria-label", "CVE status"}
		if oob {
			attrs = append(attrs, "hx-swap-oob", "true")
		}
		m.open("nav", attrs...)
		for _, tab := range tabs {
			switch {
			case tab.Active:
				m.elem("a", tab.Label, "href", tab.Href, "class", "tab active", "aria-current", "page")
			case tab.Enabled:
				m.elem("a", tab.Label, "href", tab.Href, "class", "tab")
			default:
				m.elem("span", tab.Label, "class", "tab disabled", "aria-disabled", "true")
			}
		}
		m.close("nav")
	})
}

func vulnerabilityFilterForm(data viewmodels.FilterFormData, oob bool) templ.Component {
	return component(func(m *markup) {
		attrs := []string{"id", FiltersID, "class", "toolbar", "method", "get", "action", data.Action,
			"hx-get", data.Action,
			"hx-target", resultsTargetSelector,
			"hx-swap", "outerHTML",
			"hx-push-url", "true",
			"hx-sync", resultsSync,
			"hx-trigger", filterTrigger,
		}
		if oob {
			attrs = append(attrs, "hx-swap-oob", "true")
		}
		m.open("form", attrs...)
		for _, hidden := range data.Hidden {
			m.open("input", "type", "hidden", "name", hidden.Name, "value", hidden.Value)
		}
		filterGroup(m, "Severity", "s[Severity]", data.Severities)
		filterGroup(m, "Fixable", "s[Fixable]", data.Statuses)
		m.elem("button", "Apply", "type", "submit")
		if data.HasApplied {
			m.elem("a", "Clear filters", "href", data.ClearHref)
		}
		m.close("form")
	})
}

func filterGroup(m *markup, legend, name string, options []viewmodels.FilterOption) {
	m.open("fieldset")
	m.elem("legend", legend)
	for _, option := range options {
		m.open("label")
		m.raw("<input")
		m.attr("type", "checkbox")
		m.attr("name", name)
		m.attr("value", option.Value)
		m.flag("checked", option.Selected)
		m.raw(">")
		m.text(option.Label)
		m.close("label")
	}
	m.close("fieldset")
}

// ImageVulnerabilitiesResults is the results container. Its content
// follows the fetch state: error pane, spinner, data, or nothing.
func ImageVulnerabilitiesResults(data viewmodels.ImageVulnerabilitiesResults) templ.Component {
	return component(func(m *markup) {
		attrs := []string{
			"id", ResultsTargetID,
			"class", "results",
			"hx-sync", "this:replace",
			"hx-target", "this",
			"hx-swap", "outerHTML",
		}
		if data.Deferred {
			attrs = append(attrs, "hx-get", data.SelfHref, "hx-trigger", "load")
		}
		if data.Spinner || data.Deferred {
			attrs = append(attrs, "aria-busy", "true")
		}
		m.open("div", attrs...)

		switch {
		case data.ErrorMessage != "":
			m.open("div", "class", "empty-state error", "role", "alert")
			m.elem("h2", data.ErrorMessage)
			m.elem("p", "Adjust your filters and try again")
			m.close("div")
		case data.Spinner && !data.HasData:
			m.open("div", "class", "empty-state")
			m.elem("span", "Loading", "class", "spinner", "role", "progressbar", "aria-valuetext", "Loading...")
			m.close("div")
		case data.HasData:
			renderResults(m, data)
		}

		m.close("div")
	})
}

func renderResults(m *markup, data viewmodels.ImageVulnerabilitiesResults) {
	m.open("div", "class", "summary-cards")
	m.render(SummaryCard(data.SeverityCard))
	m.render(SummaryCard(data.StatusCard))
	m.close("div")

	m.open("div", "class", "results-header")
	m.elem("h2", ResultsFoundText(data.TotalCount))
	if data.Filtered {
		m.elem("span", "Filtered view", "class", "label label-blue")
	}
	m.render(Pagination(data.Pagination))
	m.close("div")

	m.render(vulnerabilitiesTable(data.Headers, data.Rows))
}

// SummaryCard renders a card of count buckets.
func SummaryCard(card viewmodels.SummaryCard) templ.Component {
	return component(func(m *markup) {
		m.open("section", "class", "card summary-card")
		m.elem("h3", card.Title)
		m.open("ul")
		for _, bucket := range card.Buckets {
			muted := bucket.Hidden || bucket.Count == 0
			class := "bucket bucket-" + bucket.Key
			if muted {
				class = classes(class, "muted")
			}
			m.elem("li", BucketText(bucket), "class", class)
		}
		m.close("ul")
		m.close("section")
	})
}

func vulnerabilitiesTable(headers []viewmodels.SortHeader, rows []viewmodels.VulnerabilityRow) templ.Component {
	return component(func(m *markup) {
		m.open("table", "class", "table")
		m.open("thead")
		m.open("tr")
		for _, header := range headers {
			m.render(sortableHeader(header))
		}
		m.elem("th", "Affected components")
		m.elem("th", "First discovered")
		m.close("tr")
		m.close("thead")

		m.open("tbody")
		for _, row := range rows {
			m.open("tr")
			m.open("td")
			m.elem("strong", row.CVE)
			if row.Summary != "" {
				m.elem("p", row.Summary, "class", "cve-summary")
			}
			m.close("td")
			m.open("td")
			m.elem("span", row.SeverityLabel, "class", SeverityBadgeClass(row.Severity))
			m.close("td")
			m.elem("td", row.Fixable)
			m.open("td")
			m.render(componentsDetails(row.Components))
			m.close("td")
			m.elem("td", row.DiscoveredAt)
			m.close("tr")
		}
		m.close("tbody")
		m.close("table")
	})
}

func sortableHeader(header viewmodels.SortHeader) templ.Component {
	return component(func(m *markup) {
		attrs := []string{"scope", "col"}
		if header.Active {
			sort := "ascending"
			if header.Direction == "desc" {
				sort = "descending"
			}
			attrs = append(attrs, "aria-sort", sort)
		}
		m.open("th", attrs...)
		m.elem("a", header.Label, "href", header.Href,
			"hx-get", header.Href,
			"hx-target", resultsTargetSelector,
			"hx-swap", "outerHTML",
			"hx-push-url", "true",
		)
		m.close("th")
	})
}

func componentsDetails(components []viewmodels.ComponentRow) templ.Component {
	return component(func(m *markup) {
		if len(components) == 0 {
			m.text("None")
			return
		}
		m.open("details")
		label := "1 component"
		if len(components) != 1 {
			label = strconv.Itoa(len(components)) + " components"
		}
		m.elem("summary", label)
		m.open("table", "class", "table table-nested")
		m.open("thead")
		m.open("tr")
		for _, col := range []string{"Component", "Version", "Fixed in", "Location", "Layer"} {
			m.elem("th", col, "scope", "col")
		}
		m.close("tr")
		m.close("thead")
		m.open("tbody")
		for _, c := range components {
			m.open("tr")
			m.elem("td", c.Name)
			m.elem("td", c.Version)
			m.elem("td", c.FixedIn)
			m.elem("td", c.Location)
			m.elem("td", c.LayerIndex)
			m.close("tr")
		}
		m.close("tbody")
		m.close("table")
		m.close("details")
	})
}

// Pagination renders page and page size links.
func Pagination(data viewmodels.PaginationData) templ.Component {
	return component(func(m *markup) {
		m.open("nav", "class", "pagination", "aria-label", "Pagination")
		m.elem("span", fmt.Sprintf("%d - %d of %d", data.ShowingFrom, data.ShowingTo, data.TotalCount), "class", "pagination-range")

		m.open("ul", "class", "pagination-pages")
		pageLink(m, data.Previous, "Go to previous page")
		for _, page := range data.Pages {
			pageLink(m, page, "Go to page "+page.Label)
		}
		pageLink(m, data.Next, "Go to next page")
		m.close("ul")

		m.open("ul", "class", "pagination-per-page", "aria-label", "Items per page")
		for _, option := range data.PerPage {
			label := strconv.Itoa(option.PerPage) + " per page"
			m.open("li")
			if option.Active {
				m.elem("span", label, "aria-current", "true")
			} else {
				resultsLink(m, label, option.Href)
			}
			m.close("li")
		}
		m.close("ul")
		m.close("nav")
	})
}

func pageLink(m *markup, link viewmodels.PageLink, ariaLabel string) {
	m.open("li")
	switch {
	case link.Disabled:
		m.elem("span", link.Label, "aria-disabled", "true", "aria-label", ariaLabel)
	case link.Active:
		m.elem("span", link.Label, "aria-current", "page")
	default:
		resultsLink(m, link.Label, link.Href, "aria-label", ariaLabel)
	}
	m.close("li")
}

func resultsLink(m *markup, label, href string, extra ...string) {
	attrs := append([]string{
		"href", href,
		"hx-get", href,
		"hx-target", resultsTargetSelector,
		"hx-swap", "outerHTML",
		"hx-push-url", "true",
	}, extra...)
	m.elem("a", label, attrs...)
}
