package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/jobtrack/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIsRepeatable(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ConcurrentCompareAndSet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p, e := newApplication("u1", "co-1", "jp-1", model.StatusApplied)
	_, err := st.CreateApplication(ctx, p, e)
	require.NoError(t, err)

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			ok, err := st.CompareAndSetStatus(ctx, "u1", "jp-1", model.StatusApplied, model.StatusInterviewing)
			if ok {
				wins.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load(), "exactly one writer observes the from status")
}

func TestSQLite_ConcurrentCreateApplication(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var created atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			p, e := newApplication("u1", "co-1", "jp-1", model.StatusInterested)
			ok, err := st.CreateApplication(ctx, p, e)
			if ok {
				created.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), created.Load())

	entries, err := st.ListTrackerEntries(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLite_ListCalendarEventsOrdered(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{48 * time.Hour, 0, 24 * time.Hour, 1500 * time.Millisecond} {
		_, err := st.InsertCalendarEvent(ctx, &model.CalendarEvent{
			ID: fmt.Sprintf("ce-%d", i), UserID: "u1", ExternalID: fmt.Sprintf("evt-%d", i),
			CompanyID: "co-1", StartTime: base.Add(offset), EndTime: base.Add(offset + time.Hour),
			EventType: model.EventOther, ProviderStatus: model.ProviderConfirmed,
		})
		require.NoError(t, err)
	}

	list, err := st.ListCalendarEvents(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 4)
	var ids []string
	for _, e := range list {
		ids = append(ids, e.ExternalID)
	}
	assert.Equal(t, []string{"evt-1", "evt-3", "evt-2", "evt-0"}, ids)
}

func TestSQLite_EmptyListsRoundTripAsNil(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.InsertMessage(ctx, &model.Message{
		ID: "m-1", UserID: "u1", ExternalID: "msg-1", CompanyID: "co-1",
		MessageType: model.MessageGeneral, Date: time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := st.GetMessageByExternalID(ctx, "u1", "msg-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ToAddresses)
}

func TestSQLite_ListSyncRunsLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.StartSyncRun(ctx, "u1", model.SyncKindCalendar)
		require.NoError(t, err)
	}
	runs, err := st.ListSyncRuns(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestEncodeDecodeList(t *testing.T) {
	s, err := encodeList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	out, err := decodeList(`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)

	_, err = decodeList("{")
	require.Error(t, err)
}
