package main

import (
	"context"
	"encoding/csv"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scorecard-cli/internal/model"
)

var (
	batchInput string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a list of companies from a CSV or XLSX file",
	Long:  "Reads company rows (name, optional domain) from the input file and analyzes them concurrently. Individual failures never abort the batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := readCompanies(batchInput)
		if err != nil {
			return err
		}

		return processBatch(ctx, env, companies, batchLimit, cfg.Batch.MaxConcurrentCompanies)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX file with company rows (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of companies to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// readCompanies loads company rows from a CSV or XLSX file. The first
// column is the name, the second (optional) the domain. A header row
// whose first cell is "name" is skipped.
func readCompanies(path string) ([]model.Company, error) {
	var rows [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		rows, err = readXLSXRows(path)
	} else {
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}

	var companies []model.Company
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		if i == 0 && strings.EqualFold(name, "name") {
			continue
		}

		c := model.Company{Name: name}
		if len(row) > 1 {
			c.Domain = strings.TrimSpace(row[1])
		}
		companies = append(companies, c)
	}

	if len(companies) == 0 {
		return nil, eris.Errorf("batch: no companies found in %s", path)
	}
	return companies, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open input")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batch: parse csv")
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("batch: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// processBatch analyzes companies concurrently under a worker limit.
// Individual failures are logged and counted, never fatal.
func processBatch(ctx context.Context, env *runnerEnv, companies []model.Company, limit, concurrency int) error {
	if limit > 0 && len(companies) > limit {
		companies = companies[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, company := range companies {
		g.Go(func() error {
			log := zap.L().With(zap.String("company", company.Name))

			_, report, err := analyzeCompany(gctx, env, company)
			if err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("analysis complete",
				zap.Float64("score", report.Breakdown.OverallScore),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
