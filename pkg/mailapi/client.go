// Package mailapi is a JSON HTTP client for a mail provider's message
// listing endpoint.
package mailapi

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
	defaultBaseURL = "https://mail.example.com/api"
	defaultRPS     = 5
	maxPages       = 50
	// defaultMaxItems matches the engine's default page limit.
	defaultMaxItems = 250
)

// TokenFunc returns the bearer token for a user.
type TokenFunc func(ctx context.Context, userID string) (string, error)

// Message is one message as returned by the API.
type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Subject  string    `json:"subject"`
	From     string    `json:"from"`
	To       []string  `json:"to"`
	Date     time.Time `json:"date"`
	BodyText string    `json:"body_text"`
	BodyHTML string    `json:"body_html"`
}

type listResponse struct {
	Messages      []Message `json:"messages"`
	NextPageToken string    `json:"next_page_token"`
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

// WithTokenFunc resolves the bearer token per user.
func WithTokenFunc(fn TokenFunc) Option {
	return func(c *Client) {
		c.token = fn
	}
}

// Client implements provider.MailProvider over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	token   TokenFunc

	maxItems int
}

var _ provider.MailProvider = (*Client)(nil)

// NewClient creates a mail API client authenticating with token.
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
		c.retry.OnRetry = resilience.RetryLogger("mail", "list_messages")
	}
	return c
}

// ListMessages returns every message for userID in r, following pagination.
// HTML-only bodies are reduced to text.
func (c *Client) ListMessages(ctx context.Context, userID string, r model.DateRange) ([]model.MailItem, error) {
	if err := r.Validate(); err != nil {
		return nil, eris.Wrap(err, "mail: list messages")
	}
	token, err := c.token(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "mail: resolve token")
	}

	var items []model.MailItem
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*listResponse, error) {
			return c.listPage(ctx, token, userID, r, pageToken)
		})
		if err != nil {
			return nil, err
		}
		for _, m := range resp.Messages {
			items = append(items, toItem(m))
		}
		if len(items) > c.maxItems {
			return nil, &provider.PageTooLargeError{Count: len(items), Limit: c.maxItems}
		}
		if resp.NextPageToken == "" {
			return items, nil
		}
		pageToken = resp.NextPageToken
	}
	zap.L().Warn("mail: page cap reached",
		zap.String("user_id", userID),
		zap.Int("pages", maxPages),
		zap.Int("items", len(items)),
	)
	return nil, &provider.PageTooLargeError{Count: len(items), Limit: c.maxItems}
}

func (c *Client) listPage(ctx context.Context, token, userID string, r model.DateRange, pageToken string) (*listResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "mail: rate limit")
		}
	}

	q := url.Values{}
	q.Set("after", r.From.UTC().Format(time.RFC3339))
	q.Set("before", r.To.UTC().Format(time.RFC3339))
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(userID) + "/messages?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "mail: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mail: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mail: read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, eris.Wrapf(provider.ErrAuthExpired, "mail: user %s", userID)
	case resp.StatusCode != http.StatusOK:
		return nil, resilience.StatusError("mail", resp.StatusCode, string(body))
	}

	var out listResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "mail: unmarshal response")
	}
	return &out, nil
}

func toItem(m Message) model.MailItem {
	body := m.BodyText
	if body == "" && m.BodyHTML != "" {
		body = provider.PlainBody(m.BodyHTML)
	}
	return model.MailItem{
		ExternalID:       m.ID,
		ThreadExternalID: m.ThreadID,
		Subject:          m.Subject,
		Body:             body,
		FromAddress:      m.From,
		ToAddresses:      m.To,
		Date:             m.Date.UTC(),
	}
}
