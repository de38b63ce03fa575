package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citegraph/citegraph/internal/paper"
)

const (
	// BaseURL is the Semantic Scholar Academic Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts bounds retries of transient failures.
	DefaultMaxAttempts = 3

	// Exponential backoff between attempts, doubling from base up to cap.
	// A Retry-After header supplied by the API takes precedence.
	backoffBase = 500 * time.Millisecond
	backoffCap  = 10 * time.Second

	// Unauthenticated quota: 100 requests per 5-minute window.
	DefaultWindowLimit  = 100
	DefaultWindowLength = 5 * time.Minute

	// DefaultSearchLimit is the default page size for searches.
	DefaultSearchLimit = 20

	// basePaperFields are requested for search results. Link lists are
	// deliberately excluded: records persisted from searches stay lazy
	// until the tree builder refreshes them.
	basePaperFields = "title,abstract,authors,venue,url,year,publicationDate,citationCount,externalIds"

	// linkedPaperFields additionally pull the reference/citation id stubs.
	linkedPaperFields = basePaperFields + ",references.paperId,citations.paperId"
)

// Client is a rate-limited, retrying HTTP client for the Semantic Scholar API.
type Client struct {
	httpClient  *http.Client
	limiter     *window
	apiKey      string
	baseURL     string
	maxAttempts int
	log         *logrus.Entry
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithMaxAttempts sets the retry attempt ceiling.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithWindow configures the fixed-window rate limiter.
func WithWindow(limit int, length time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = newWindow(limit, length)
	}
}

// WithLogger sets the logger used for retry and fallback events.
func WithLogger(log *logrus.Entry) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new Semantic Scholar API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     newWindow(DefaultWindowLimit, DefaultWindowLength),
		baseURL:     BaseURL,
		maxAttempts: DefaultMaxAttempts,
		log:         logrus.WithField("component", "scholar"),
	}

	// Check for API key in environment
	if key := os.Getenv("CITEGRAPH_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SearchRequest holds search parameters.
type SearchRequest struct {
	Query         string
	Limit         int
	Offset        int
	Year          string // single year "2019" or range "2016-2020"
	Venue         string // comma-separated venue filter
	FieldsOfStudy string // comma-separated fields-of-study filter
}

// SearchResult is a page of search results mapped to domain records.
type SearchResult struct {
	Papers []paper.Record `json:"papers"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
}

// SearchPapers searches for papers by keyword relevance. If the primary
// search endpoint fails for any reason, the bulk endpoint is tried once
// before giving up.
func (c *Client) SearchPapers(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultSearchLimit
	}

	query := url.Values{
		"query":  {req.Query},
		"limit":  {strconv.Itoa(req.Limit)},
		"offset": {strconv.Itoa(req.Offset)},
		"fields": {basePaperFields},
	}
	if req.Year != "" {
		query.Set("year", req.Year)
	}
	if req.Venue != "" {
		query.Set("venue", req.Venue)
	}
	if req.FieldsOfStudy != "" {
		query.Set("fieldsOfStudy", req.FieldsOfStudy)
	}

	data, err := c.get(ctx, "search", "/paper/search", query)
	if err != nil {
		searchFallbacks.Inc()
		c.log.WithError(err).Warn("primary search failed, falling back to bulk endpoint")

		bulkData, bulkErr := c.get(ctx, "search_bulk", "/paper/search/bulk", query)
		if bulkErr != nil {
			return nil, fmt.Errorf("search failed (bulk fallback also failed: %v): %w", bulkErr, err)
		}
		data = bulkData
	}

	var sr searchResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	papers := make([]paper.Record, 0, len(sr.Data))
	for _, p := range sr.Data {
		if p.PaperID == "" {
			continue
		}
		papers = append(papers, mapPaper(p, false))
	}

	return &SearchResult{
		Papers: papers,
		Total:  sr.Total,
		Offset: sr.Offset,
	}, nil
}

// GetPaper fetches a single paper by id with its reference and citation
// link lists populated.
func (c *Client) GetPaper(ctx context.Context, paperID string) (*paper.Record, error) {
	query := url.Values{"fields": {linkedPaperFields}}

	data, err := c.get(ctx, "paper", "/paper/"+url.PathEscape(paperID), query)
	if err != nil {
		return nil, err
	}

	var p apiPaper
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: parsing paper: %v", ErrInvalidResponse, err)
	}
	if p.PaperID == "" {
		return nil, ErrNotFound
	}

	rec := mapPaper(p, true)
	return &rec, nil
}

// get issues a GET request with rate limiting and retry of transient
// failures. Backoff doubles per attempt up to the cap; a Retry-After
// duration from the API overrides the computed backoff.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			retriesTotal.Inc()
			delay := backoffDelay(attempt)
			if ra := retryAfter(lastErr); ra > 0 {
				delay = ra
			}
			c.log.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"attempt":  attempt,
				"delay":    delay.String(),
			}).Debug("retrying request")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		data, err := c.doOnce(ctx, path, query)
		if err == nil {
			requestsTotal.WithLabelValues(endpoint, "ok").Inc()
			return data, nil
		}
		lastErr = err

		if !Transient(err) {
			requestsTotal.WithLabelValues(endpoint, "error").Inc()
			return nil, err
		}
		requestsTotal.WithLabelValues(endpoint, "transient").Inc()
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// doOnce performs a single rate-limited request.
func (c *Client) doOnce(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetworkError, err)
	}
	return data, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == 404:
		return ErrNotFound
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp),
			RetryAfter: parseRetryAfter(resp),
		}
	}
}

// errorMessage extracts a message from an API error body, falling back to
// the HTTP status text.
func errorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var body apiErrorBody
		if json.Unmarshal(data, &body) == nil {
			if body.Error != "" {
				return body.Error
			}
			if body.Message != "" {
				return body.Message
			}
		}
	}
	return http.StatusText(resp.StatusCode)
}

// parseRetryAfter parses the Retry-After header as whole seconds.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// backoffDelay computes the capped exponential delay before the given
// attempt (attempt 2 waits the base delay).
func backoffDelay(attempt int) time.Duration {
	delay := backoffBase
	for i := 2; i < attempt; i++ {
		delay *= 2
		if delay >= backoffCap {
			return backoffCap
		}
	}
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}
