package cli_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryCmd_Table(t *testing.T) {
	res, err := execute(t, "summary")
	require.NoError(t, err)
	for _, title := range []string{"Outstanding", "Budget vs Actual", "Enquiries", "Call Entries", "Customer Churn"} {
		assert.Contains(t, res.stdout, title)
	}
	assert.Contains(t, res.stdout, "(summary by salesperson)", "call entries start at salesperson")
}

func TestSummaryCmd_JSON(t *testing.T) {
	res, err := execute(t, "summary", "-o", "json")
	require.NoError(t, err)

	var reports []report
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &reports))
	require.Len(t, reports, 5)
	for _, r := range reports {
		assert.Equal(t, "summary", r.View)
		assert.Zero(t, r.Level)
		assert.Empty(t, r.Error)
		assert.Nil(t, r.Page, "summary views are not paged")
	}
	assert.Equal(t, []string{"ACME", "GLOBEX"}, reports[0].keys())
}

func TestSummaryCmd_BroadcastsSearch(t *testing.T) {
	res, err := execute(t, "summary", "--search", "desert", "--period", "2024", "-o", "json")
	require.NoError(t, err)

	var reports []report
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &reports))
	require.Len(t, reports, 5)
	for _, r := range reports {
		assert.Equal(t, "desert", r.Filters["search"], r.Module)
		assert.Equal(t, "2024", r.Filters["period"], r.Module)
	}
	assert.Equal(t, []string{"GLOBEX"}, reports[0].keys())
}

func TestSummaryCmd_FixtureFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  fixtures: "+filepath.Join(dir, "missing.yaml")+"\n"), 0o600))

	_, err := execute(t, "--config", path, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fixtures")
}

func TestSummaryCmd_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := executeContext(t, ctx, "summary")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "loading summaries")
	assert.Empty(t, res.stdout, "nothing is rendered for a canceled run")
}
