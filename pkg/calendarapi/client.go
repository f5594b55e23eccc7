// Package calendarapi is a JSON HTTP client for a calendar provider's event
// listing endpoint.
package calendarapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/resilience"
)

const (
	defaultBaseURL = "https://calendar.example.com/api"
	defaultRPS     = 5
	maxPages       = 50
	// defaultMaxItems matches the engine's default page limit.
	defaultMaxItems = 250
)

// TokenFunc returns the bearer token for a user.
type TokenFunc func(ctx context.Context, userID string) (string, error)

// Event is one event as returned by the API.
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Status      string     `json:"status"`
	Attendees   []Attendee `json:"attendees"`
}

// Attendee is an event participant.
type Attendee struct {
	Email string `json:"email"`
	Name  string `json:"display_name,omitempty"`
}

type listResponse struct {
	Events        []Event `json:"events"`
	NextPageToken string  `json:"next_page_token"`
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithMaxItems caps how many items one listing may return. Listing stops
// with a *provider.PageTooLargeError as soon as the cap is passed.
func WithMaxItems(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithTokenFunc resolves the bearer token per user instead of using a
// static token.
func WithTokenFunc(fn TokenFunc) Option {
	return func(c *Client) {
		c.token = fn
	}
}

// Client implements provider.CalendarProvider over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	token   TokenFunc

	maxItems int
}

var _ provider.CalendarProvider = (*Client)(nil)

// NewClient creates a calendar API client authenticating with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(defaultRPS, defaultRPS),
		retry:    resilience.DefaultRetryConfig(),
		maxItems: defaultMaxItems,
		token: func(context.Context, string) (string, error) {
			return token, nil
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.Permanent = append(c.retry.Permanent, provider.ErrAuthExpired)
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("calendar", "list_events")
	}
	return c
}

// ListEvents returns every event for userID in r, following pagination.
func (c *Client) ListEvents(ctx context.Context, userID string, r model.DateRange) ([]model.CalendarItem, error) {
	if err := r.Validate(); err != nil {
		return nil, eris.Wrap(err, "calendar: list events")
	}
	token, err := c.token(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: resolve token")
	}

	var items []model.CalendarItem
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*listResponse, error) {
			return c.listPage(ctx, token, userID, r, pageToken)
		})
		if err != nil {
			return nil, err
		}
		for _, ev := range resp.Events {
			items = append(items, toItem(ev))
		}
		if len(items) > c.maxItems {
			return nil, &provider.PageTooLargeError{Count: len(items), Limit: c.maxItems}
		}
		if resp.NextPageToken == "" {
			return items, nil
		}
		pageToken = resp.NextPageToken
	}
	zap.L().Warn("calendar: page cap reached",
		zap.String("user_id", userID),
		zap.Int("pages", maxPages),
		zap.Int("items", len(items)),
	)
	return nil, &provider.PageTooLargeError{Count: len(items), Limit: c.maxItems}
}

func (c *Client) listPage(ctx context.Context, token, userID string, r model.DateRange, pageToken string) (*listResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "calendar: rate limit")
		}
	}

	q := url.Values{}
	q.Set("from", r.From.UTC().Format(time.RFC3339))
	q.Set("to", r.To.UTC().Format(time.RFC3339))
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(userID) + "/events?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, eris.Wrapf(provider.ErrAuthExpired, "calendar: user %s", userID)
	case resp.StatusCode != http.StatusOK:
		return nil, resilience.StatusError("calendar", resp.StatusCode, string(body))
	}

	var out listResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "calendar: unmarshal response")
	}
	return &out, nil
}

func toItem(ev Event) model.CalendarItem {
	item := model.CalendarItem{
		ExternalID:  ev.ID,
		Title:       ev.Summary,
		Description: provider.PlainBody(ev.Description),
		Start:       ev.Start.UTC(),
		End:         ev.End.UTC(),
		Status:      model.NormalizeProviderStatus(ev.Status),
	}
	for _, a := range ev.Attendees {
		if a.Email != "" {
			item.AttendeeEmails = append(item.AttendeeEmails, a.Email)
		}
	}
	return item
}
