package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/jobtrack/internal/model"
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Inspect and maintain tracker entries",
}

var trackerSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Point every tracker entry at its company's latest event",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Engine.SyncTracker(ctx, user)
		if err != nil {
			return eris.Wrap(err, "tracker sync")
		}
		return printJSON(os.Stdout, report)
	},
}

var trackerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracker entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListTrackerEntries(ctx, user)
		if err != nil {
			return eris.Wrap(err, "tracker list")
		}
		if entries == nil {
			entries = []model.TrackerEntry{}
		}
		return printJSON(os.Stdout, entries)
	},
}

func init() {
	for _, c := range []*cobra.Command{trackerSyncCmd, trackerListCmd} {
		c.Flags().String("user", "", "user id (required)")
		_ = c.MarkFlagRequired("user")
		trackerCmd.AddCommand(c)
	}
	rootCmd.AddCommand(trackerCmd)
}
