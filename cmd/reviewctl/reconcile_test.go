package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/moderation"
	"github.com/cinereview/backend/internal/storage"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	dryRun, jsonOutput = false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestReconcileCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DB_HOST", "")
	t.Setenv("LOG_LEVEL", "error")

	reportID := "report_1"
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	writeJSON(t, filepath.Join(dir, "users.json"), []models.User{
		{UserID: "u1", Username: "user-u1", Email: "u1@example.com", Role: models.RoleMember, Penalties: []string{}},
	})
	writeJSON(t, filepath.Join(dir, "reports.json"), []models.Report{
		{ReportID: reportID, ReporterID: "u2", MovieID: "m1", Reason: "spam", Status: models.ReportStatusPending, CreatedAt: created},
	})
	writeJSON(t, filepath.Join(dir, "penalties.json"), []models.Penalty{
		{PenaltyID: "penalty_1", UserID: "u1", Reason: "spam", Severity: models.SeverityLow, DurationDays: 1,
			ReportID: &reportID, IssuedBy: "mod1", CreatedAt: created, Active: true},
	})

	out := execute(t, "reconcile", "--dry-run", "--json")
	var res moderation.ReconcileResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.DryRun)
	assert.Equal(t, []string{reportID}, res.RolledForward)
	assert.Equal(t, []string{"penalty_1"}, res.UsersRewritten["u1"])

	out = execute(t, "reconcile")
	assert.Contains(t, out, "Rolled forward report report_1")

	out = execute(t, "reconcile")
	assert.Contains(t, out, "Stores are consistent")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("LOG_LEVEL", "error")

	rootCmd.SetArgs([]string{"migrate", "status"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestReconcileRefusesWhileServerHoldsDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DB_HOST", "")
	t.Setenv("LOG_LEVEL", "error")

	server, err := storage.LockDir(dir)
	require.NoError(t, err)
	defer server.Unlock()

	dryRun, jsonOutput = false, false
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"reconcile"})
	err = rootCmd.Execute()
	require.ErrorIs(t, err, storage.ErrDirLocked)
	assert.Contains(t, err.Error(), "--dry-run")

	// Reading alongside a live server is allowed.
	out := execute(t, "reconcile", "--dry-run")
	assert.Contains(t, out, "Stores are consistent")
}
