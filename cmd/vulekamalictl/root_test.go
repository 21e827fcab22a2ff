package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulekamali/internal/core"
)

const irmCSV = `external_id,name,province,financial_year,quarter,status,estimated_total_project_cost,expenditure_from_previous_years_total,actual_expenditure_q1,actual_expenditure_q2,start_date
EC-7,Clinic upgrade,Eastern Cape,2019-20,1,Construction,900,100,50,,2018-04-01
EC-7,Clinic upgrade,Eastern Cape,2019-20,2,Construction,900,100,50,30,2018-04-01
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "vulekamali.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportThenChart(t *testing.T) {
	dir := setupEnv(t)
	csvPath := filepath.Join(dir, "irm.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(irmCSV), 0o644))

	out, err := execute(t, "import", csvPath)
	require.NoError(t, err)
	var run core.ImportRun
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, core.ImportSucceeded, run.Status)
	assert.Equal(t, "cli", run.Source)
	assert.Equal(t, 2, run.Rows)

	out, err = execute(t, "chart", "1")
	require.NoError(t, err)
	var chart core.ChartData
	require.NoError(t, json.Unmarshal([]byte(out), &chart))
	require.Len(t, chart.DataPoints, 2)
	assert.Equal(t, "180", chart.DataPoints[1].TotalSpentToDate.Decimal.String())
	require.Len(t, chart.Events, 1)
	assert.Equal(t, core.EventStart, chart.Events[0].Type)

	out, err = execute(t, "chart", "--detail", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"external_id": "EC-7"`)
}

func TestChartErrors(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "chart", "zero")
	assert.ErrorContains(t, err, "invalid project id")

	_, err = execute(t, "chart", "42")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMigrateCommands(t *testing.T) {
	dir := setupEnv(t)
	db := filepath.Join(dir, "other.db")

	out, err := execute(t, "migrate", "status", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "version 0 dirty=false\n", out)

	_, err = execute(t, "migrate", "up", "--db", db)
	require.NoError(t, err)
	out, err = execute(t, "migrate", "status", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "version 1 dirty=false\n", out)

	_, err = execute(t, "migrate", "down", "--db", db)
	require.NoError(t, err)
	out, err = execute(t, "migrate", "status", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "version 0 dirty=false\n", out)
}

func TestRequestImportNeedsQueue(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "request-import")
	assert.ErrorContains(t, err, "import queue unavailable")
}
