package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
	"github.com/vulnconsole/vulnconsole/internal/http/views"
	"github.com/vulnconsole/vulnconsole/internal/urlstate"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

const discoveredAtLayout = "2006-01-02"

var sortHeaderLabels = map[string]string{
	vulns.SortFieldCVE:      "CVE",
	vulns.SortFieldSeverity: "Severity",
	vulns.SortFieldFixable:  "CVE status",
}

// HandleImageVulnerabilities serves the image vulnerabilities page. A full
// page request renders the shell from the view's current state and lets the
// results container load itself; a request targeting the container runs
// the query and returns only the container.
func (h *Handlers) HandleImageVulnerabilities(c *echo.Context) error {
	addVary(c, "HX-Request", "HX-Target")

	imageID := strings.TrimSpace(c.Param("id"))
	if imageID == "" {
		return RenderNotFound(c)
	}

	loc := urlstate.FromURL(c.Request().URL)
	query := vulns.ReadViewQuery(loc)
	viewKey := vulns.ViewKey(h.viewerID(c), imageID)
	fragment := isHXTarget(c, views.ResultsTargetID)

	var results viewmodels.ImageVulnerabilitiesResults
	switch {
	case !query.Tab.Enabled():
		results = viewmodels.ImageVulnerabilitiesResults{ImageID: imageID, TabDisabled: true}
	case fragment:
		state, err := h.Fetcher.Fetch(c.Request().Context(), viewKey, query.Variables(imageID))
		if errors.Is(err, vulns.ErrSuperseded) {
			return c.NoContent(http.StatusNoContent)
		}
		if err != nil {
			return h.RenderError(c, err)
		}
		results = buildResults(loc, query, imageID, state)
	default:
		results = buildResults(loc, query, imageID, h.Fetcher.Peek(viewKey))
		results.Deferred = true
	}
	results.SelfHref = loc.Href(loc.Query())

	if fragment {
		return h.RenderComponent(c, views.ImageVulnerabilitiesFragment(viewmodels.ImageVulnerabilitiesFragmentData{
			Results: results,
			Tabs:    buildTabs(loc, query.Tab),
			Filter:  buildFilterForm(loc, query.Filter),
		}))
	}
	return h.RenderComponent(c, views.ImageVulnerabilitiesPage(viewmodels.ImageVulnerabilitiesViewData{
		Layout:  h.LayoutData(c, imageID),
		ImageID: imageID,
		Tabs:    buildTabs(loc, query.Tab),
		Filter:  buildFilterForm(loc, query.Filter),
		Results: results,
	}))
}

// buildResults maps a fetch state onto the results container. An error
// hides any previous data; a load without data shows the spinner.
func buildResults(port urlstate.Port, query vulns.ViewQuery, imageID string, state vulns.State) viewmodels.ImageVulnerabilitiesResults {
	results := viewmodels.ImageVulnerabilitiesResults{
		ImageID: imageID,
		Spinner: state.Loading(),
	}
	if state.Status == vulns.StatusError {
		results.ErrorMessage = state.ErrorMessage()
		return results
	}

	data := state.Current()
	if data == nil {
		return results
	}

	// Stale data is labeled with the filter it was fetched under.
	filter := query.Filter
	if state.Data == nil && state.DataFilter != nil {
		filter = state.DataFilter
	}

	total := data.TotalCount()
	results.HasData = true
	results.TotalCount = total
	results.Filtered = filter.HasSearchApplied()
	results.SeverityCard = severityCard(data.Counter, vulns.HiddenSeverities(filter))
	results.StatusCard = statusCard(data.Counter, vulns.HiddenStatuses(filter))
	for _, field := range vulns.ImageSortConfig.Fields {
		params := urlstate.SortParamsFor(port, vulns.ImageSortConfig, field)
		results.Headers = append(results.Headers, viewmodels.SortHeader{
			Label:     sortHeaderLabels[field],
			Field:     field,
			Href:      params.Href,
			Active:    params.Active,
			Direction: string(params.Direction),
		})
	}
	for _, v := range data.Vulnerabilities {
		results.Rows = append(results.Rows, vulnerabilityRow(v))
	}
	results.Pagination = buildPagination(port, query.Page, vulns.PerPageOptions, total, len(data.Vulnerabilities))
	return results
}

func severityCard(counter vulns.VulnerabilityCounter, hidden map[vulns.Severity]bool) viewmodels.SummaryCard {
	card := viewmodels.SummaryCard{Title: "CVEs by severity"}
	for _, severity := range vulns.SeveritiesCriticalToLow {
		card.Buckets = append(card.Buckets, viewmodels.SummaryBucket{
			Key:    strings.ToLower(severity.Label()),
			Label:  severity.Label(),
			Count:  counter.ForSeverity(severity).Total,
			Hidden: hidden[severity],
		})
	}
	return card
}

func statusCard(counter vulns.VulnerabilityCounter, hidden map[vulns.FixableStatus]bool) viewmodels.SummaryCard {
	card := viewmodels.SummaryCard{Title: "CVEs by status"}
	for _, status := range vulns.FixableStatuses {
		card.Buckets = append(card.Buckets, viewmodels.SummaryBucket{
			Key:    strings.ReplaceAll(strings.ToLower(string(status)), " ", "-"),
			Label:  string(status),
			Count:  counter.ForStatus(status),
			Hidden: hidden[status],
		})
	}
	return card
}

func vulnerabilityRow(v vulns.Vulnerability) viewmodels.VulnerabilityRow {
	row := viewmodels.VulnerabilityRow{
		CVE:           v.CVE,
		Summary:       strings.TrimSpace(v.Summary),
		Severity:      strings.ToLower(v.Severity.Label()),
		SeverityLabel: v.Severity.Label(),
		Fixable:       string(v.FixableStatus()),
		DiscoveredAt:  "-",
	}
	if v.DiscoveredAt != nil && !v.DiscoveredAt.IsZero() {
		row.DiscoveredAt = v.DiscoveredAt.UTC().Format(discoveredAtLayout)
	}
	for _, comp := range v.Components {
		layer := ""
		if comp.LayerIndex != nil {
			layer = strconv.Itoa(*comp.LayerIndex)
		}
		row.Components = append(row.Components, viewmodels.ComponentRow{
			Name:       comp.Name,
			Version:    comp.Version,
			FixedIn:    comp.FixedIn,
			Location:   comp.Location,
			LayerIndex: layer,
		})
	}
	return row
}

func buildTabs(port urlstate.Port, active vulns.CveStatusTab) []viewmodels.CveStatusTabLink {
	tabs := make([]viewmodels.CveStatusTabLink, 0, len(vulns.CveStatusTabValues))
	for _, value := range vulns.CveStatusTabValues {
		tab := vulns.CveStatusTab(value)
		tabs = append(tabs, viewmodels.CveStatusTabLink{
			Value:   value,
			Label:   tab.Label(),
			Href:    urlstate.SetStringUnion(port, vulns.CveStatusParam, value),
			Active:  tab == active,
			Enabled: tab.Enabled(),
		})
	}
	return tabs
}

func buildFilterForm(loc urlstate.Location, filter urlstate.SearchFilter) viewmodels.FilterFormData {
	form := viewmodels.FilterFormData{
		Action:     loc.Path,
		ClearHref:  urlstate.SetSearchFilter(loc, urlstate.SearchFilter{}),
		HasApplied: filter.HasSearchApplied(),
	}

	retained := urlstate.RetainedOnSearch(loc)
	names := make([]string, 0, len(retained))
	for name := range retained {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range retained[name] {
			form.Hidden = append(form.Hidden, viewmodels.HiddenInput{Name: name, Value: value})
		}
	}

	hiddenSeverities := vulns.HiddenSeverities(filter)
	for _, severity := range vulns.SeveritiesCriticalToLow {
		form.Severities = append(form.Severities, viewmodels.FilterOption{
			Value:    string(severity),
			Label:    severity.Label(),
			Selected: filter.Has(vulns.SearchFieldSeverity) && !hiddenSeverities[severity],
		})
	}

	hiddenStatuses := vulns.HiddenStatuses(filter)
	for _, status := range vulns.FixableStatuses {
		value := "true"
		if status == vulns.StatusNotFixable {
			value = "false"
		}
		form.Statuses = append(form.Statuses, viewmodels.FilterOption{
			Value:    value,
			Label:    string(status),
			Selected: filter.Has(vulns.SearchFieldFixable) && !hiddenStatuses[status],
		})
	}
	return form
}
