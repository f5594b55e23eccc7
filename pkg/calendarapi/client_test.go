package calendarapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/resilience"
)

var window = model.DateRange{
	From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestListEvents_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/u1/events", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2025-01-01T00:00:00Z", r.URL.Query().Get("from"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page_token") == "" {
			_ = json.NewEncoder(w).Encode(listResponse{
				Events: []Event{{
					ID: "evt-1", Summary: "Acme phone screen",
					Start:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
					End:       time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC),
					Attendees: []Attendee{{Email: "jane@acme.com"}, {Email: ""}},
				}},
				NextPageToken: "p2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse{
			Events: []Event{{ID: "evt-2", Summary: "Acme onsite", Status: "cancelled", Description: "<p>Moved</p>"}},
		})
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	items, err := c.ListEvents(context.Background(), "u1", window)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "evt-1", items[0].ExternalID)
	assert.Equal(t, []string{"jane@acme.com"}, items[0].AttendeeEmails)
	assert.Equal(t, model.ProviderConfirmed, items[0].Status)
	assert.Equal(t, model.ProviderCancelled, items[1].Status)
	assert.Equal(t, "Moved", items[1].Description)
}

func TestListEvents_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("expired", WithBaseURL(srv.URL), WithRateLimit(0), WithRetry(fastRetry()))
	_, err := c.ListEvents(context.Background(), "u1", window)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrAuthExpired))
	assert.Equal(t, int32(1), calls.Load(), "auth failures are not retried")
}

func TestListEvents_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse{Events: []Event{{ID: "evt-1"}}})
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0), WithRetry(fastRetry()))
	items, err := c.ListEvents(context.Background(), "u1", window)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListEvents_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0), WithRetry(fastRetry()))
	_, err := c.ListEvents(context.Background(), "u1", window)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.False(t, errors.Is(err, provider.ErrAuthExpired))
}

func TestListEvents_TokenFunc(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-for-u2", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(listResponse{})
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithRateLimit(0), WithTokenFunc(func(_ context.Context, userID string) (string, error) {
		return "token-for-" + userID, nil
	}))
	items, err := c.ListEvents(context.Background(), "u2", window)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListEvents_InvalidRange(t *testing.T) {
	c := NewClient("tok")
	_, err := c.ListEvents(context.Background(), "u1", model.DateRange{})
	require.Error(t, err)
}

func TestListEvents_StopsPastMaxItems(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(listResponse{
			Events:        []Event{{ID: "a"}, {ID: "b"}},
			NextPageToken: "more",
		})
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0), WithMaxItems(3))
	_, err := c.ListEvents(context.Background(), "u1", window)

	var tooLarge *provider.PageTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 4, tooLarge.Count)
	assert.Equal(t, 3, tooLarge.Limit)
	assert.Equal(t, int32(2), calls.Load(), "paging stops once the cap is passed")
}

func TestListEvents_PageCapIsPageTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(listResponse{NextPageToken: "again"})
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.ListEvents(context.Background(), "u1", window)

	var tooLarge *provider.PageTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, defaultMaxItems, tooLarge.Limit)
}
