package dashapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/merakitools/dashboard-exporter/internal"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDecode marks responses whose body did not match the expected shape.
var ErrDecode = errors.New("malformed API response")

// perPage is the page size requested from paginated list endpoints.
const perPage = 1000

// backoff slot for retries after 429/5xx responses.
const retrySlot = 500 * time.Millisecond
const retryMax = 30 * time.Second

// Outcome values reported through the observation hook.
const (
	OutcomeSuccess      = "success"
	OutcomeRateLimit    = "rate_limit"
	OutcomeNotAvailable = "not_available"
	OutcomeClientError  = "client_error"
	OutcomeServerError  = "server_error"
	OutcomeTransport    = "transport_error"
)

// ObserveFunc is called once per finished API call with the logical call
// name, its outcome and the wall-clock duration.
type ObserveFunc func(call string, outcome string, duration time.Duration)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dashboard API returned %s: %s", e.Status, e.Body)
}

// NotAvailable reports whether the response means the feature is simply not
// available for the requested resource (degrade to zero data, not an error).
func (e *APIError) NotAvailable() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusBadRequest
}

type Options struct {
	BaseURL string
	Key     string
	Timeout time.Duration
	// MaxConcurrent bounds in-flight API calls across all collectors to
	// respect the vendor rate limit. Zero means unbounded.
	MaxConcurrent int64
	MaxRetries    int
	Observe       ObserveFunc
	UserAgent     string
}

type Client struct {
	rc         *resty.Client
	sem        *semaphore.Weighted
	maxRetries int
	observe    ObserveFunc
}

func New(opts Options) *Client {
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.Key).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	c := &Client{
		rc:         rc,
		maxRetries: opts.MaxRetries,
		observe:    opts.Observe,
	}
	if opts.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	if c.observe == nil {
		c.observe = func(string, string, time.Duration) {}
	}
	return c
}

// get performs one GET with retries on 429/5xx, bounded by the shared
// semaphore. The response body is decoded into out when out is non-nil.
// It returns the resty response so callers can follow pagination links.
func (c *Client) get(ctx context.Context, call string, path string, query map[string]string, out any) (*resty.Response, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)
	}

	start := time.Now()
	var resp *resty.Response
	var err error
	for attempt := 0; ; attempt++ {
		req := c.rc.R().SetContext(ctx)
		if query != nil {
			req.SetQueryParams(query)
		}
		resp, err = req.Get(path)
		if err != nil {
			c.observe(call, OutcomeTransport, time.Since(start))
			return nil, fmt.Errorf("request %s failed: %w", call, err)
		}
		if !retryable(resp.StatusCode()) || attempt >= c.maxRetries {
			break
		}
		// Every attempt is an external call and gets recorded.
		c.observe(call, outcomeForStatus(resp.StatusCode()), time.Since(start))
		zap.S().Debugf("Retrying %s (status %d, attempt %d)", call, resp.StatusCode(), attempt+1)
		if err := c.waitBeforeRetry(ctx, resp, attempt); err != nil {
			c.observe(call, OutcomeTransport, time.Since(start))
			return nil, err
		}
	}

	if resp.IsError() {
		apiErr := &APIError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       internal.SanitizeString(string(resp.Body())),
		}
		c.observe(call, outcomeForStatus(resp.StatusCode()), time.Since(start))
		return resp, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			c.observe(call, OutcomeTransport, time.Since(start))
			return resp, fmt.Errorf("%w: decoding %s response: %s", ErrDecode, call, err)
		}
	}
	c.observe(call, OutcomeSuccess, time.Since(start))
	return resp, nil
}

// getPaginated fetches every page of a list endpoint, following the
// Link: <...>; rel=next response headers, and calls decode once per page.
func (c *Client) getPaginated(ctx context.Context, call string, path string, query map[string]string, decode func(body []byte) error) error {
	if query == nil {
		query = map[string]string{}
	}
	query["perPage"] = strconv.Itoa(perPage)

	next := path
	for next != "" {
		resp, err := c.get(ctx, call, next, query, nil)
		if err != nil {
			return err
		}
		if err := decode(resp.Body()); err != nil {
			return fmt.Errorf("%w: decoding %s page: %s", ErrDecode, call, err)
		}
		next = nextLink(resp.Header().Get("Link"))
		// The next link already carries the cursor parameters.
		query = nil
	}
	return nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// waitBeforeRetry honors an explicit Retry-After header and falls back to
// exponential backoff otherwise. Returns early when the context is cancelled.
func (c *Client) waitBeforeRetry(ctx context.Context, resp *resty.Response, attempt int) error {
	wait := retryAfter(resp)
	if wait <= 0 {
		return internal.SleepBackedOffCtx(ctx, int64(attempt+1), retrySlot, retryMax)
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryAfter(resp *resty.Response) time.Duration {
	v := resp.Header().Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func outcomeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimit
	case status == http.StatusNotFound || status == http.StatusBadRequest:
		return OutcomeNotAvailable
	case status >= 500:
		return OutcomeServerError
	case status >= 400:
		return OutcomeClientError
	default:
		return OutcomeSuccess
	}
}

// nextLink extracts the rel=next target from a Link header, or "" when the
// last page has been reached.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel=next` && strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		url := strings.TrimSpace(section[0])
		url = strings.TrimPrefix(url, "<")
		url = strings.TrimSuffix(url, ">")
		return url
	}
	return ""
}
