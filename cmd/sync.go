package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/jobtrack/internal/ingest"
	"github.com/sells-group/jobtrack/internal/model"
)

var (
	syncUser  string
	syncEmail string
	syncFrom  string
	syncTo    string
	syncDays  int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull provider signals and reconcile application status",
}

var syncCalendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Sync calendar events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), "calendar", func(ctx context.Context, e *ingest.Engine, req ingest.SyncRequest) (any, error) {
			return e.SyncCalendar(ctx, req)
		})
	},
}

var syncMessagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Sync email messages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), "mail", func(ctx context.Context, e *ingest.Engine, req ingest.SyncRequest) (any, error) {
			return e.SyncMessages(ctx, req)
		})
	},
}

var syncAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Sync calendar events and messages concurrently",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), "sync", func(ctx context.Context, e *ingest.Engine, req ingest.SyncRequest) (any, error) {
			var out struct {
				Calendar model.SyncResult `json:"calendar"`
				Messages model.SyncResult `json:"messages"`
			}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				res, err := e.SyncCalendar(gctx, req)
				out.Calendar = res
				return eris.Wrap(err, "calendar")
			})
			g.Go(func() error {
				res, err := e.SyncMessages(gctx, req)
				out.Messages = res
				return eris.Wrap(err, "messages")
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return out, nil
		})
	},
}

func runSync(ctx context.Context, mode string, fn func(context.Context, *ingest.Engine, ingest.SyncRequest) (any, error)) error {
	if err := cfg.Validate(mode); err != nil {
		return err
	}
	rng, err := syncRange(time.Now().UTC())
	if err != nil {
		return err
	}

	env, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	req := ingest.SyncRequest{UserID: syncUser, UserEmail: syncEmail, Range: rng}
	zap.L().Info("sync starting",
		zap.String("user_id", req.UserID),
		zap.Time("from", rng.From),
		zap.Time("to", rng.To),
	)
	out, err := fn(ctx, env.Engine, req)
	if err != nil {
		return eris.Wrap(err, "sync")
	}
	return printJSON(os.Stdout, out)
}

// syncRange builds the window from --from/--to, defaulting to the last
// --days days ending now.
func syncRange(now time.Time) (model.DateRange, error) {
	days := syncDays
	if days <= 0 {
		days = cfg.Sync.LookbackDays
	}
	if days <= 0 {
		days = 30
	}
	rng := model.DateRange{From: now.AddDate(0, 0, -days), To: now}

	if syncFrom != "" {
		t, err := parseDate(syncFrom)
		if err != nil {
			return rng, eris.Wrap(err, "--from")
		}
		rng.From = t
	}
	if syncTo != "" {
		t, err := parseDate(syncTo)
		if err != nil {
			return rng, eris.Wrap(err, "--to")
		}
		rng.To = t
	}
	return rng, rng.Validate()
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{syncCalendarCmd, syncMessagesCmd, syncAllCmd} {
		c.Flags().StringVar(&syncUser, "user", "", "user id (required)")
		c.Flags().StringVar(&syncEmail, "email", "", "the user's own email address")
		c.Flags().StringVar(&syncFrom, "from", "", "window start (YYYY-MM-DD or RFC 3339)")
		c.Flags().StringVar(&syncTo, "to", "", "window end, exclusive (default now)")
		c.Flags().IntVar(&syncDays, "days", 0, "lookback in days when --from is unset (default sync.lookback_days)")
		_ = c.MarkFlagRequired("user")
		syncCmd.AddCommand(c)
	}
	rootCmd.AddCommand(syncCmd)
}
