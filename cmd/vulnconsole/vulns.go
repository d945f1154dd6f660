package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vulnconsole/vulnconsole/internal/central"
	"github.com/vulnconsole/vulnconsole/internal/config"
	"github.com/vulnconsole/vulnconsole/internal/logging"
	"github.com/vulnconsole/vulnconsole/internal/urlstate"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

type vulnsOptions struct {
	page      int
	perPage   int
	sortField string
	sortDir   string
	filters   []string
}

var vulnsOpts vulnsOptions

var vulnsCmd = &cobra.Command{
	Use:   "vulns <image-id>",
	Short: "Print the vulnerabilities of an image.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVulns(cmd, args[0], vulnsOpts)
	},
}

func init() {
	vulnsCmd.Flags().IntVar(&vulnsOpts.page, "page", 1, "Page number")
	vulnsCmd.Flags().IntVar(&vulnsOpts.perPage, "per-page", vulns.DefaultPerPage, "Results per page")
	vulnsCmd.Flags().StringVar(&vulnsOpts.sortField, "sort-field", "", "Sort field: CVE, Severity or Fixable")
	vulnsCmd.Flags().StringVar(&vulnsOpts.sortDir, "sort-dir", "", "Sort direction: asc or desc")
	vulnsCmd.Flags().StringArrayVar(&vulnsOpts.filters, "filter", nil, "Search filter Field=value[,value] (repeatable)")
}

func runVulns(cmd *cobra.Command, imageID string, opts vulnsOptions) error {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return errors.New("image id is required")
	}
	if err := opts.validate(); err != nil {
		return &exitError{code: 2, err: err}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	token := ""
	if cfg.CentralAPIToken == "" {
		token, err = promptToken(cmd)
		if err != nil {
			return err
		}
	}
	client, err := newCentralClient(ctx, cfg, token, central.NewMemoryCache(cfg.QueryCacheTTL), logging.Discard())
	if err != nil {
		return err
	}

	query := vulns.ReadViewQuery(opts.location())
	fetcher := vulns.NewFetcher(client, vulns.FetcherOptions{})
	state, err := fetcher.Fetch(ctx, vulns.ViewKey("cli", imageID), query.Variables(imageID))
	if err != nil {
		return err
	}
	if state.Status == vulns.StatusError {
		return errors.New(state.ErrorMessage())
	}
	data := state.Current()
	if data == nil {
		return errors.New("no data returned")
	}
	return printVulnerabilities(cmd.OutOrStdout(), *data, query)
}

// validate rejects flag values the view would otherwise replace with its
// defaults.
func (o vulnsOptions) validate() error {
	if o.page < 1 {
		return fmt.Errorf("--page must be 1 or greater, got %d", o.page)
	}
	if !slices.Contains(vulns.PerPageOptions, o.perPage) {
		return fmt.Errorf("--per-page must be one of %s, got %d", joinInts(vulns.PerPageOptions), o.perPage)
	}
	if field := strings.TrimSpace(o.sortField); field != "" && !slices.Contains(vulns.ImageSortConfig.Fields, field) {
		return fmt.Errorf("--sort-field must be one of %s, got %q", strings.Join(vulns.ImageSortConfig.Fields, ", "), field)
	}
	switch strings.ToLower(strings.TrimSpace(o.sortDir)) {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("--sort-dir must be asc or desc, got %q", o.sortDir)
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// location turns the flags into the same URL state the browser view reads.
func (o vulnsOptions) location() urlstate.Location {
	values := url.Values{}
	if o.page > 1 {
		values.Set("page", strconv.Itoa(o.page))
	}
	if o.perPage > 0 {
		values.Set("perPage", strconv.Itoa(o.perPage))
	}
	if field := strings.TrimSpace(o.sortField); field != "" {
		values.Set("sortField", field)
	}
	if dir := strings.TrimSpace(o.sortDir); dir != "" {
		values.Set("sortDirection", strings.ToLower(dir))
	}
	loc := urlstate.Location{Path: "/", Values: values}
	filter := urlstate.SearchFilterFromValues(o.filters)
	parsed, err := url.Parse(urlstate.SetSearchFilter(loc, filter))
	if err != nil {
		return loc
	}
	// Filters reset the page; flags set both explicitly.
	out := urlstate.FromURL(parsed)
	if o.page > 1 {
		out.Values.Set("page", strconv.Itoa(o.page))
	}
	return out
}

func promptToken(cmd *cobra.Command) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no API token configured (set CENTRAL_API_TOKEN)")
	}
	cmd.Print("Central API token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("API token is empty")
	}
	return token, nil
}

func printVulnerabilities(w io.Writer, data vulns.ImageVulnerabilities, query vulns.ViewQuery) error {
	hiddenSeverities := vulns.HiddenSeverities(query.Filter)
	fmt.Fprintf(w, "Image %s: %d CVEs\n", data.ImageID, data.TotalCount())
	for _, severity := range vulns.SeveritiesCriticalToLow {
		count := strconv.Itoa(data.Counter.ForSeverity(severity).Total)
		if hiddenSeverities[severity] {
			count = "hidden"
		}
		fmt.Fprintf(w, "  %-10s %s\n", severity.Label(), count)
	}
	fmt.Fprintf(w, "  %-10s %d\n", "Fixable", data.Counter.ForStatus(vulns.StatusFixable))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "CVE\tSEVERITY\tFIXABLE\tCOMPONENTS\tDISCOVERED")
	for _, v := range data.Vulnerabilities {
		discovered := "-"
		if v.DiscoveredAt != nil {
			discovered = v.DiscoveredAt.Format("2006-01-02")
		}
		fixable := "No"
		if v.IsFixable {
			fixable = "Yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", v.CVE, v.Severity.Label(), fixable, len(v.Components), discovered)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pagination := urlstate.NewPagination(query.Page, query.Sort)
	if total := data.TotalCount(); total > 0 {
		from := pagination.Offset + 1
		to := min(pagination.Offset+len(data.Vulnerabilities), total)
		fmt.Fprintf(w, "\n%d - %d of %d\n", from, to, total)
	}
	return nil
}
