package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage application status",
}

var statusSetCmd = &cobra.Command{
	Use:   "set <status>",
	Short: "Set a company's application status explicitly",
	Long:  "Writes the status to every posting of the company. Unlike inferred updates this may move a status backwards or out of a terminal state.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")
		companyID, _ := cmd.Flags().GetString("company")

		status := model.JobStatus(args[0])
		if !status.Valid() {
			return eris.Errorf("unknown status %q", args[0])
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Engine.SetStatus(ctx, user, companyID, status)
		if err != nil {
			return eris.Wrap(err, "status set")
		}
		zap.L().Info("status set",
			zap.String("company_id", companyID),
			zap.String("status", string(res.Final)),
			zap.Bool("changed", res.Changed()),
		)
		return printJSON(os.Stdout, res)
	},
}

func init() {
	statusSetCmd.Flags().String("user", "", "user id (required)")
	statusSetCmd.Flags().String("company", "", "company id (required)")
	_ = statusSetCmd.MarkFlagRequired("user")
	_ = statusSetCmd.MarkFlagRequired("company")

	statusCmd.AddCommand(statusSetCmd)
	rootCmd.AddCommand(statusCmd)
}
