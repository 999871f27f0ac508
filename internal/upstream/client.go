package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	defaultPageSize      = 500
	defaultMaxPages      = 200
	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 6
)

// ClientConfig configures the HTTP bulk fetcher.
type ClientConfig struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration // per request
	PageSize      int
	MaxPages      int
	MaxRetries    int
	RetryBackoff  time.Duration // multiplied by the attempt number
	MaxConcurrent int
	HTTPClient    *http.Client
}

// Client reads collections from the provider's REST API:
// GET /items/{collection}?fields=..&limit=N&offset=M&filter[..]=.. -> {"data": [...]}.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	sem  *semaphore.Weighted
}

type envelope struct {
	Data []json.RawMessage `json:"data"`
}

// NewClient creates a Client, filling unset limits with defaults.
func NewClient(cfg ClientConfig) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		cfg:  cfg,
		http: httpClient,
		sem:  semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// FetchAllPages reads a collection page by page. It stops on the first short
// page or after MaxPages pages, whichever comes first.
func (c *Client) FetchAllPages(ctx context.Context, q Query) ([]json.RawMessage, error) {
	limit := q.PageSize
	if limit <= 0 {
		limit = c.cfg.PageSize
	}

	var rows []json.RawMessage
	for page := 0; page < c.cfg.MaxPages; page++ {
		offset := page * limit
		batch, err := c.fetchPage(ctx, q, limit, offset)
		if err != nil {
			return nil, err
		}

		rows = append(rows, batch...)
		if len(batch) < limit {
			return rows, nil
		}
	}

	log.Warn().
		Str("collection", q.Collection).
		Int("max_pages", c.cfg.MaxPages).
		Int("rows", len(rows)).
		Msg("upstream: page ceiling reached, result may be truncated")

	return rows, nil
}

// FetchAll reads a collection in a single unbounded request.
func (c *Client) FetchAll(ctx context.Context, q Query) ([]json.RawMessage, error) {
	return c.fetchPage(ctx, q, -1, 0)
}

// fetchPage performs one page request, retrying on 429/503 with linear backoff.
func (c *Client) fetchPage(ctx context.Context, q Query, limit, offset int) ([]json.RawMessage, error) {
	endpoint, err := c.buildURL(q, limit, offset)
	if err != nil {
		return nil, &FetchError{Collection: q.Collection, Err: err}
	}

	for attempt := 1; ; attempt++ {
		status, body, err := c.do(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch %s: %w", q.Collection, ctx.Err())
			}
			return nil, &FetchError{
				Collection: q.Collection,
				Attempts:   attempt,
				Timeout:    errors.Is(err, context.DeadlineExceeded),
				Err:        err,
			}
		}

		if status >= 200 && status < 300 {
			var env envelope
			if err := json.Unmarshal(body, &env); err != nil {
				return nil, &FetchError{
					Collection: q.Collection,
					StatusCode: status,
					Body:       truncateBody(body),
					Attempts:   attempt,
					Err:        fmt.Errorf("decode envelope: %w", err),
				}
			}
			return env.Data, nil
		}

		if retryable(status) && attempt <= c.cfg.MaxRetries {
			wait := time.Duration(attempt) * c.cfg.RetryBackoff
			log.Warn().
				Str("collection", q.Collection).
				Int("status", status).
				Int("attempt", attempt).
				Dur("backoff", wait).
				Msg("upstream: transient failure, retrying")

			if err := sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("fetch %s: %w", q.Collection, err)
			}
			continue
		}

		return nil, &FetchError{
			Collection: q.Collection,
			StatusCode: status,
			Body:       truncateBody(body),
			Attempts:   attempt,
		}
	}
}

// do sends one GET under its own timeout and returns the status and body.
func (c *Client) do(ctx context.Context, endpoint string) (int, []byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return 0, nil, err
	}
	defer c.sem.Release(1)

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reader = io.LimitReader(resp.Body, maxErrorBody+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) buildURL(q Query, limit, offset int) (string, error) {
	if q.Collection == "" {
		return "", errors.New("collection is required")
	}

	u, err := url.Parse(c.cfg.BaseURL + "/items/" + url.PathEscape(q.Collection))
	if err != nil {
		return "", err
	}

	params := url.Values{}
	if len(q.Fields) > 0 {
		params.Set("fields", strings.Join(q.Fields, ","))
	}
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	for key, value := range q.Filter {
		params.Set(key, value)
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Source = (*Client)(nil)
