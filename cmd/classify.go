package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/jobtrack/internal/classify"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/reconcile"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a calendar event or message without storing it",
}

type classification struct {
	Type   string          `json:"type"`
	Status model.JobStatus `json:"implied_status,omitempty"`
}

var classifyEventCmd = &cobra.Command{
	Use:   "event",
	Short: "Classify a calendar event",
	RunE: func(cmd *cobra.Command, _ []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")

		t := classify.ClassifyEvent(title, description)
		out := classification{Type: string(t)}
		out.Status, _ = reconcile.InferEvent(t)
		return printJSON(os.Stdout, out)
	},
}

var classifyMessageCmd = &cobra.Command{
	Use:   "message",
	Short: "Classify an email message",
	RunE: func(cmd *cobra.Command, _ []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		body, _ := cmd.Flags().GetString("body")
		from, _ := cmd.Flags().GetString("from")

		t := classify.ClassifyMessage(subject, body, from)
		out := classification{Type: string(t)}
		out.Status, _ = reconcile.InferMessage(t)
		return printJSON(os.Stdout, out)
	},
}

func init() {
	classifyEventCmd.Flags().String("title", "", "event title")
	classifyEventCmd.Flags().String("description", "", "event description")
	classifyMessageCmd.Flags().String("subject", "", "message subject")
	classifyMessageCmd.Flags().String("body", "", "message body")
	classifyMessageCmd.Flags().String("from", "", "sender address")

	classifyCmd.AddCommand(classifyEventCmd, classifyMessageCmd)
	rootCmd.AddCommand(classifyCmd)
}
