package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/store"
)

func TestReadCompaniesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.csv")
	data := "name,domain\nAcme Trucking,acmetrucking.com\nBulk Haulers,\n\nMidwest Freight Inc,midwestfreight.com\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	companies, err := readCompanies(path)
	require.NoError(t, err)
	require.Len(t, companies, 3)
	assert.Equal(t, "Acme Trucking", companies[0].Name)
	assert.Equal(t, "acmetrucking.com", companies[0].Domain)
	assert.Equal(t, "Bulk Haulers", companies[1].Name)
	assert.Empty(t, companies[1].Domain)
}

func TestReadCompaniesCSVWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Acme Trucking,acmetrucking.com\n"), 0o644))

	companies, err := readCompanies(path)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Trucking", companies[0].Name)
}

func TestReadCompaniesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().Value = "name"
	header.AddCell().Value = "domain"

	row := sheet.AddRow()
	row.AddCell().Value = "Acme Trucking"
	row.AddCell().Value = "acmetrucking.com"

	require.NoError(t, f.Save(path))

	companies, err := readCompanies(path)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Trucking", companies[0].Name)
	assert.Equal(t, "acmetrucking.com", companies[0].Domain)
}

func TestReadCompaniesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,domain\n"), 0o644))

	_, err := readCompanies(path)
	assert.Error(t, err)
}

func TestReadCompaniesMissingFile(t *testing.T) {
	_, err := readCompanies(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})
	ctx := context.Background()

	companies := []model.Company{
		{Name: "Acme Trucking", Domain: "acmetrucking.com"},
		{Name: ""}, // pipeline rejects the empty name, batch keeps going
		{Name: "Bulk Haulers", Domain: "bulkhaulers.com"},
	}

	require.NoError(t, processBatch(ctx, env, companies, 0, 2))

	complete, err := env.st.ListRuns(ctx, store.RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	assert.Len(t, complete, 2)

	failed, err := env.st.ListRuns(ctx, store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestProcessBatchAppliesLimit(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})
	ctx := context.Background()

	companies := []model.Company{
		{Name: "Acme Trucking"},
		{Name: "Bulk Haulers"},
		{Name: "Midwest Freight"},
	}

	require.NoError(t, processBatch(ctx, env, companies, 1, 2))

	runs, err := env.st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
