package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scorecard-cli/internal/model"
)

var (
	runName   string
	runDomain string
	runExport bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		company := model.Company{
			Name:   runName,
			Domain: runDomain,
		}

		_, report, err := analyzeCompany(ctx, env, company)
		if err != nil {
			return err
		}

		if runExport {
			sfClient, err := initSalesforce()
			if err != nil {
				return err
			}
			exporter, err := newExporter(sfClient)
			if err != nil {
				return err
			}
			if _, err := exporter.Export(ctx, report); err != nil {
				return eris.Wrap(err, "export to salesforce")
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "company name (required)")
	runCmd.Flags().StringVar(&runDomain, "domain", "", "company website domain")
	runCmd.Flags().BoolVar(&runExport, "export", false, "push the report to Salesforce when done")
	_ = runCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(runCmd)
}
