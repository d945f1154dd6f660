package vulns

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/vulnconsole/vulnconsole/internal/logging"
	"github.com/vulnconsole/vulnconsole/internal/metrics"
	"github.com/vulnconsole/vulnconsole/internal/urlstate"
)

// ErrSuperseded is returned by Fetch when a newer request for the same view
// was issued before the response arrived.
var ErrSuperseded = errors.New("vulns: response superseded by a newer request")

const defaultViewStateTTL = 30 * time.Minute

// Querier executes the image vulnerability query.
type Querier interface {
	ImageVulnerabilities(ctx context.Context, vars Variables) (ImageVulnerabilities, error)
}

type Status string

const (
	StatusLoading      Status = "loading"
	StatusLoadingStale Status = "loading-stale"
	StatusError        Status = "error"
	StatusSuccess      Status = "success"
)

// State is the observable state of one view.
type State struct {
	Status       Status
	Data         *ImageVulnerabilities
	PreviousData *ImageVulnerabilities
	Err          error
	Generation   uint64
	// DataFilter is the search filter that produced Data or, without Data,
	// PreviousData.
	DataFilter urlstate.SearchFilter
}

// Current returns the data to render: fresh data, else the previous result.
// It is nil in the error state.
func (s State) Current() *ImageVulnerabilities {
	if s.Status == StatusError {
		return nil
	}
	if s.Data != nil {
		return s.Data
	}
	return s.PreviousData
}

// Loading reports whether a request is in flight.
func (s State) Loading() bool {
	return s.Status == StatusLoading || s.Status == StatusLoadingStale
}

// UserMessager is implemented by errors that carry a message fit for display.
type UserMessager interface {
	UserMessage() string
}

// ErrorMessage returns a single human-readable message for the error state.
func (s State) ErrorMessage() string {
	return ErrorMessage(s.Err)
}

// ErrorMessage converts err into a message fit for display.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var messager UserMessager
	if errors.As(err, &messager) {
		if msg := strings.TrimSpace(messager.UserMessage()); msg != "" {
			return msg
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "The request was canceled"
	}
	return err.Error()
}

type view struct {
	generation uint64
	data       *ImageVulnerabilities
	filter     urlstate.SearchFilter
	err        error
}

// Fetcher runs image vulnerability queries on behalf of views. Each view
// keeps its last result so a reload can render stale data, and a
// per-view generation so an out-of-order response never replaces the
// result of a newer request.
type Fetcher struct {
	querier Querier
	logger  *slog.Logger

	mu    sync.Mutex
	views *cache.Cache
	group singleflight.Group
}

type FetcherOptions struct {
	ViewStateTTL time.Duration
	Logger       *slog.Logger
}

func NewFetcher(querier Querier, opts FetcherOptions) *Fetcher {
	ttl := opts.ViewStateTTL
	if ttl <= 0 {
		ttl = defaultViewStateTTL
	}
	return &Fetcher{
		querier: querier,
		logger:  logging.OrDiscard(opts.Logger),
		views:   cache.New(ttl, 2*ttl),
	}
}

// ViewKey identifies the view of one viewer on one image.
func ViewKey(viewerID, imageID string) string {
	return strings.TrimSpace(viewerID) + "|" + strings.TrimSpace(imageID)
}

// Peek returns the loading state a page shell renders before its fetch.
func (f *Fetcher) Peek(viewKey string) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.viewLocked(viewKey)
	state := State{Status: StatusLoading, PreviousData: v.data, Generation: v.generation, DataFilter: v.filter}
	if v.data != nil {
		state.Status = StatusLoadingStale
	}
	metrics.FetchStatesTotal.WithLabelValues(string(state.Status)).Inc()
	return state
}

// Fetch runs the query for vars and commits the result to the view. It
// returns ErrSuperseded, leaving the view untouched, when a newer Fetch for
// the same view started before this one finished.
func (f *Fetcher) Fetch(ctx context.Context, viewKey string, vars Variables) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	f.mu.Lock()
	v := f.viewLocked(viewKey)
	v.generation++
	generation := v.generation
	f.mu.Unlock()

	result, err := f.query(ctx, vars)

	f.mu.Lock()
	defer f.mu.Unlock()

	// An entry that expired while the query ran is restored. A replacement
	// entry that has started a Fetch of its own makes this response stale.
	if cached, ok := f.views.Get(viewKey); ok && cached.(*view) != v && cached.(*view).generation > 0 {
		return f.discardLocked(viewKey, generation, cached.(*view).generation)
	}
	if v.generation != generation {
		return f.discardLocked(viewKey, generation, v.generation)
	}
	f.views.SetDefault(viewKey, v)

	previous, previousFilter := v.data, v.filter
	if err != nil {
		v.err = err
		metrics.FetchStatesTotal.WithLabelValues(string(StatusError)).Inc()
		return State{Status: StatusError, PreviousData: previous, Err: err, Generation: generation, DataFilter: previousFilter}, nil
	}

	data := result
	v.data = &data
	v.filter = vars.Filter
	v.err = nil
	metrics.FetchStatesTotal.WithLabelValues(string(StatusSuccess)).Inc()
	return State{Status: StatusSuccess, Data: v.data, PreviousData: previous, Generation: generation, DataFilter: v.filter}, nil
}

func (f *Fetcher) discardLocked(viewKey string, generation, current uint64) (State, error) {
	metrics.StaleResponsesDiscardedTotal.Inc()
	f.logger.Debug("discarded stale response", "view", viewKey, "generation", generation, "current_generation", current)
	return State{}, ErrSuperseded
}

func (f *Fetcher) query(ctx context.Context, vars Variables) (ImageVulnerabilities, error) {
	if f.querier == nil {
		return ImageVulnerabilities{}, errors.New("vulns: no querier configured")
	}

	// Shared calls run detached from any one caller so a canceled request
	// does not fail the others waiting on the same key.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(vars.Key(), func() (any, error) {
		return f.querier.ImageVulnerabilities(shared, vars)
	})

	select {
	case <-ctx.Done():
		return ImageVulnerabilities{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ImageVulnerabilities{}, res.Err
		}
		return res.Val.(ImageVulnerabilities), nil
	}
}

func (f *Fetcher) viewLocked(viewKey string) *view {
	if cached, ok := f.views.Get(viewKey); ok {
		v := cached.(*view)
		f.views.SetDefault(viewKey, v)
		return v
	}
	v := &view{}
	f.views.SetDefault(viewKey, v)
	return v
}
