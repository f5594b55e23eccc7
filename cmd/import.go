package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/importer"
)

var (
	importPath  string
	importUser  string
	importEmail string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hand-maintained tracker rows from YAML or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rows, err := importer.LoadFile(importPath, importer.XLSXOptions{SheetName: importSheet})
		if err != nil {
			return eris.Wrap(err, "load tracker rows")
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Engine.ImportTrackerRows(ctx, importUser, importEmail, rows)
		if err != nil {
			return eris.Wrap(err, "import tracker rows")
		}

		zap.L().Info("import complete",
			zap.String("file", importPath),
			zap.Int("rows", len(rows)),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
		)
		return printJSON(os.Stdout, res)
	},
}

func init() {
	importCmd.Flags().StringVar(&importPath, "file", "", "path to a .yaml, .yml or .xlsx file (required)")
	importCmd.Flags().StringVar(&importUser, "user", "", "user id (required)")
	importCmd.Flags().StringVar(&importEmail, "email", "", "the user's own email address")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(importCmd)
}
