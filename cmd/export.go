package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	sfpkg "github.com/sells-group/scorecard-cli/pkg/salesforce"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Push a completed run's report to Salesforce",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load run")
		}
		if run.Report == nil {
			return eris.Errorf("run %s has no report to export", run.ID)
		}

		sfClient, err := initSalesforce()
		if err != nil {
			return err
		}
		exporter, err := newExporter(sfClient)
		if err != nil {
			return err
		}

		id, err := exporter.Export(ctx, run.Report)
		if err != nil {
			return eris.Wrap(err, "export to salesforce")
		}

		fmt.Fprintf(os.Stdout, "exported run %s to salesforce record %s\n", run.ID, id)
		return nil
	},
}

func newExporter(client sfpkg.Client) (*sfpkg.Exporter, error) {
	return sfpkg.NewExporter(client, cfg.Salesforce.Object)
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
