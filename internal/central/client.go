// Package central is the GraphQL client for the vulnerability backend.
package central

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/vulnconsole/vulnconsole/internal/logging"
	"github.com/vulnconsole/vulnconsole/internal/metrics"
)

const (
	graphQLPath      = "/api/graphql"
	maxResponseBytes = 16 << 20
	defaultTimeout   = 30 * time.Second
)

type Options struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	RetryMax int
	// Cache holds responses for CacheTTL. Nil disables caching.
	Cache    Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
	// HTTPClient replaces the underlying transport client, mostly in tests.
	HTTPClient *http.Client
}

// Client sends GraphQL operations to Central.
type Client struct {
	endpoint string
	token    string
	http     *retryablehttp.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

func New(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("central endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("central endpoint is invalid: %w", err)
	}

	logger := logging.OrDiscard(opts.Logger)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	}
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = max(opts.RetryMax, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		endpoint: endpoint,
		token:    strings.TrimSpace(opts.Token),
		http:     rc,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
	}, nil
}

type request struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
	Variables     any    `json:"variables"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query runs a GraphQL operation and decodes its data object into out.
func (c *Client) Query(ctx context.Context, operation, query string, variables any, out any) error {
	body, err := json.Marshal(request{OperationName: operation, Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}

	key := cacheKey(operation, body)
	if c.cache != nil {
		payload, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("graphql cache lookup failed", "operation", operation, "cache", c.cache.Name(), "err", err)
		}
		recordCacheLookup(c.cache, ok)
		if ok {
			return json.Unmarshal(payload, out)
		}
	}

	data, err := c.do(ctx, operation, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Operation: operation, StatusCode: http.StatusOK, Message: "Unexpected response from Central", Err: err}
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("graphql cache store failed", "operation", operation, "cache", c.cache.Name(), "err", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, operation string, body []byte) (json.RawMessage, error) {
	target := c.endpoint + graphQLPath + "?opname=" + url.QueryEscape(operation)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GraphQLRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GraphQLRequestsTotal.WithLabelValues(operation, "transport_error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Operation: operation, Message: "Unable to reach Central", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.GraphQLRequestsTotal.WithLabelValues(operation, "transport_error").Inc()
		return nil, &Error{Operation: operation, StatusCode: resp.StatusCode, Message: "Unable to read response from Central", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GraphQLRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
		msg := messageFromBody(resp.StatusCode, raw)
		var wrapped error
		if resp.StatusCode == http.StatusNotFound {
			wrapped = ErrNotFound
		}
		return nil, &Error{Operation: operation, StatusCode: resp.StatusCode, Message: msg, Err: wrapped}
	}

	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		metrics.GraphQLRequestsTotal.WithLabelValues(operation, "decode_error").Inc()
		return nil, &Error{Operation: operation, StatusCode: resp.StatusCode, Message: "Unexpected response from Central", Err: err}
	}
	if msg := firstGraphQLMessage(decoded.Errors); msg != "" {
		metrics.GraphQLRequestsTotal.WithLabelValues(operation, "graphql_error").Inc()
		return nil, &Error{Operation: operation, StatusCode: resp.StatusCode, Message: msg}
	}

	metrics.GraphQLRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return decoded.Data, nil
}

func cacheKey(operation string, body []byte) string {
	sum := sha256.Sum256(body)
	return operation + ":" + hex.EncodeToString(sum[:])
}
