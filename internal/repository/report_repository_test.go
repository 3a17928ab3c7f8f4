package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
)

func TestReportRepository_CreateListUpdate(t *testing.T) {
	repo := NewReportRepository(filepath.Join(t.TempDir(), "reports.json"))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"report_a", "report_b", "report_c"} {
		require.NoError(t, repo.Create(&models.Report{
			ReportID: id, ReporterID: "u1", MovieID: "m1", Reason: "spam",
			Status: models.ReportStatusPending, CreatedAt: now,
		}))
	}
	assert.ErrorIs(t, repo.Create(&models.Report{ReportID: "report_b"}), apperrors.ErrConflict)

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "report_a", all[0].ReportID)
	assert.Equal(t, "report_c", all[2].ReportID)

	updated, err := repo.Update("report_b", func(r *models.Report) error {
		return r.Resolve(models.ReportStatusDismissed, "mod1", nil, now)
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, updated.Status)

	got, err := repo.GetByID("report_b")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, got.Status)
	assert.True(t, now.Equal(*got.ResolvedAt))
}

func TestReportRepository_UpdateFailureLeavesStore(t *testing.T) {
	repo := NewReportRepository(filepath.Join(t.TempDir(), "reports.json"))
	require.NoError(t, repo.Create(&models.Report{ReportID: "report_a", Status: models.ReportStatusPending}))

	_, err := repo.Update("report_a", func(r *models.Report) error {
		r.Status = models.ReportStatusDismissed
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := repo.GetByID("report_a")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, got.Status)

	_, err = repo.Update("missing", func(*models.Report) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPenaltyRepository(t *testing.T) {
	repo := NewPenaltyRepository(filepath.Join(t.TempDir(), "penalties.json"))
	reportID := "report_a"

	require.NoError(t, repo.Create(&models.Penalty{PenaltyID: "p1", UserID: "u2", ReportID: &reportID, Active: true}))
	require.NoError(t, repo.Create(&models.Penalty{PenaltyID: "p2", UserID: "u2", Active: false}))
	require.NoError(t, repo.Create(&models.Penalty{PenaltyID: "p3", UserID: "u3", Active: true}))
	assert.ErrorIs(t, repo.Create(&models.Penalty{PenaltyID: "p1"}), apperrors.ErrConflict)

	active, err := repo.ListActiveByUser("u2")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p1", active[0].PenaltyID)

	fromReport, err := repo.FindByReport(reportID)
	require.NoError(t, err)
	require.Len(t, fromReport, 1)

	require.NoError(t, repo.Delete("p1"))
	require.NoError(t, repo.Delete("p1"))
	_, err = repo.GetByID("p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
