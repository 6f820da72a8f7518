package codeforces

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

	"cfstats/internal/domain/model"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://codeforces.com/api"
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second

	callLimitMarker = "Call limit exceeded"
	notFoundMarker  = "not found"
	statusOK        = "OK"
)

// Config holds upstream connection settings. Zero values fall back to the
// defaults above.
type Config struct {
	BaseURL           string
	MaxAttempts       int
	BaseDelay         time.Duration // Backoff before retry n is BaseDelay*n
	Timeout           time.Duration
	RequestsPerSecond float64 // Outbound pacing; 0 disables it
	SubmissionsCount  int     // count= for user.status; 0 fetches everything
	APIKey            string
	APISecret         string
}

// Client is a stateless client for the read-only Codeforces API.
type Client struct {
	HTTPClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger.Named("codeforces"),
		now:        time.Now,
		sleep:      sleepCtx,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// FetchProfile returns the normalized profile of handle.
func (c *Client) FetchProfile(ctx context.Context, handle string) (*model.UserProfile, error) {
	users, err := c.fetchUsers(ctx, handle)
	if err != nil {
		return nil, err
	}
	profile := users[0].toModel()
	return &profile, nil
}

// FetchPhotoURL never fails: an unavailable photo is reported as absent.
func (c *Client) FetchPhotoURL(ctx context.Context, handle string) (string, bool) {
	users, err := c.fetchUsers(ctx, handle)
	if err != nil {
		c.logger.Warn("photo lookup failed, continuing without photo",
			zap.String("handle", handle), zap.Error(err))
		return "", false
	}
	u := photoURL(str(users[0].TitlePhoto))
	return u, u != ""
}

func (c *Client) fetchUsers(ctx context.Context, handle string) ([]apiUser, error) {
	var users []apiUser
	params := url.Values{"handles": {handle}}
	if err := c.call(ctx, "user.info", params, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &NotFoundError{Handle: handle, Comment: "empty result"}
	}
	return users, nil
}

// FetchRatingHistory returns rated contests in upstream (chronological) order.
func (c *Client) FetchRatingHistory(ctx context.Context, handle string) ([]model.RatingChange, error) {
	var raw []apiRatingChange
	if err := c.call(ctx, "user.rating", url.Values{"handle": {handle}}, &raw); err != nil {
		return nil, err
	}
	out := make([]model.RatingChange, 0, len(raw))
	for _, rc := range raw {
		out = append(out, rc.toModel())
	}
	return out, nil
}

// FetchSubmissions returns the configured number of most recent submissions.
func (c *Client) FetchSubmissions(ctx context.Context, handle string) ([]model.Submission, error) {
	if c.cfg.SubmissionsCount <= 0 {
		return c.FetchSubmissionsPage(ctx, handle, 0, 0)
	}
	return c.FetchSubmissionsPage(ctx, handle, 1, c.cfg.SubmissionsCount)
}

// FetchSubmissionsPage fetches count submissions starting at the 1-based
// index from. from <= 0 omits paging entirely.
func (c *Client) FetchSubmissionsPage(ctx context.Context, handle string, from, count int) ([]model.Submission, error) {
	params := url.Values{"handle": {handle}}
	if from > 0 {
		params.Set("from", strconv.Itoa(from))
		if count > 0 {
			params.Set("count", strconv.Itoa(count))
		}
	}
	var raw []apiSubmission
	if err := c.call(ctx, "user.status", params, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Submission, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.toModel())
	}
	return out, nil
}

func (c *Client) FetchBlogEntries(ctx context.Context, handle string) ([]model.BlogEntry, error) {
	var raw []apiBlogEntry
	if err := c.call(ctx, "user.blogEntries", url.Values{"handle": {handle}}, &raw); err != nil {
		return nil, err
	}
	out := make([]model.BlogEntry, 0, len(raw))
	for _, b := range raw {
		out = append(out, b.toModel())
	}
	return out, nil
}

// FetchFriends lists the friends of the API key owner. The upstream rejects
// unsigned calls, so this only works with APIKey and APISecret set.
func (c *Client) FetchFriends(ctx context.Context, onlyOnline bool) ([]string, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, &UpstreamError{Method: "user.friends", Comment: "api key and secret required"}
	}
	params := url.Values{}
	if onlyOnline {
		params.Set("onlyOnline", "true")
	}
	var friends []string
	if err := c.call(ctx, "user.friends", params, &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

// call runs one API method with the bounded linear-backoff retry policy.
func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err := c.do(ctx, method, params, out)
		observeCall(method, err)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == c.cfg.MaxAttempts {
			break
		}

		delay := c.cfg.BaseDelay * time.Duration(attempt)
		retriesTotal.WithLabelValues(method).Inc()
		c.logger.Warn("retrying codeforces call",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		if err := c.sleep(ctx, delay); err != nil {
			return &TransportError{Method: method, Err: err}
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) do(ctx context.Context, method string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Method: method, Err: err}
		}
	}

	query := params
	if c.cfg.APIKey != "" && c.cfg.APISecret != "" {
		query = c.sign(method, params)
	}
	u := fmt.Sprintf("%s/%s", c.cfg.BaseURL, method)
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("codeforces %s: new request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("codeforces request", zap.String("method", method), zap.String("query", params.Encode()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, StatusCode: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == "" {
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return &TransportError{Method: method, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
		return &UpstreamError{Method: method, StatusCode: resp.StatusCode, Comment: "unparseable response: " + truncate(string(body), 200)}
	}

	if env.Status != statusOK {
		return classifyFailure(method, resp.StatusCode, params, env.Comment)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &UpstreamError{Method: method, StatusCode: resp.StatusCode, Comment: "malformed result: " + err.Error()}
	}
	return nil
}

func classifyFailure(method string, statusCode int, params url.Values, comment string) error {
	switch {
	case strings.Contains(comment, callLimitMarker):
		return &RateLimitError{Method: method, Comment: comment}
	case strings.Contains(strings.ToLower(comment), notFoundMarker):
		handle := params.Get("handle")
		if handle == "" {
			handle = params.Get("handles")
		}
		return &NotFoundError{Handle: handle, Comment: comment}
	default:
		if comment == "" {
			comment = "Unknown error occurred"
		}
		return &UpstreamError{Method: method, StatusCode: statusCode, Comment: comment}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
