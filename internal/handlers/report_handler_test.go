package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinereview/backend/internal/models"
)

func TestReportWorkflow(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)
	other := s.addUser(t, "u2", models.RoleMember)
	mod := s.addUser(t, "mod1", models.RoleModerator)

	// Any authenticated user can file a report about an existing movie.
	w := s.do(t, http.MethodPost, "/reports", member, jsonBody{"movie_id": "heat", "reason": "spoilers in title"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Report](t, w)
	assert.Equal(t, "u1", created.ReporterID)
	assert.Equal(t, models.ReportStatusPending, created.Status)

	w = s.do(t, http.MethodPost, "/reports", member, jsonBody{"movie_id": "missing", "reason": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Only moderators see the queue.
	w = s.do(t, http.MethodGet, "/reports", member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/reports?status=pending", mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]models.Report](t, w)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ReportID, listed[0].ReportID)

	// Out-of-range duration is rejected before anything changes.
	path := "/reports/" + created.ReportID + "/penalty"
	w = s.do(t, http.MethodPost, path, mod, jsonBody{"user_id": "u2", "reason": "abuse", "severity": "high", "duration_days": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, path, mod, jsonBody{"user_id": "ghost", "reason": "abuse", "severity": "high", "duration_days": 7})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user to penalize not found", errorMessage(t, w))

	w = s.do(t, http.MethodPost, path, mod, jsonBody{"user_id": "u2", "reason": "abuse", "severity": "high", "duration_days": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	applied := decode[models.ApplyPenaltyResponse](t, w)
	assert.Equal(t, "Penalty applied successfully", applied.Message)
	assert.Equal(t, created.ReportID, applied.ReportID)
	require.NotNil(t, applied.Penalty)
	assert.Equal(t, "mod1", applied.Penalty.IssuedBy)

	// The report is terminal now.
	w = s.do(t, http.MethodPost, path, mod, jsonBody{"user_id": "u2", "reason": "again", "severity": "low", "duration_days": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/reports/"+created.ReportID+"/dismiss", mod, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/reports/"+created.ReportID, mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resolved := decode[models.Report](t, w)
	assert.Equal(t, models.ReportStatusPenaltyApplied, resolved.Status)
	require.NotNil(t, resolved.ModeratorNotes)
	assert.Equal(t, "Penalty applied: high severity, 7 days", *resolved.ModeratorNotes)

	// Penalties are visible to the subject and to staff only.
	w = s.do(t, http.MethodGet, "/reports/user/u2/penalties", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	own := decode[models.UserPenaltiesResponse](t, w)
	assert.Len(t, own.Penalties, 1)

	w = s.do(t, http.MethodGet, "/reports/user/u2/penalties", member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/reports/user/u2/penalties", mod, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	user, err := s.users.GetByID("u2")
	require.NoError(t, err)
	assert.Equal(t, []string{applied.Penalty.PenaltyID}, user.Penalties)
}

func TestListReports_QueryValidation(t *testing.T) {
	s := newTestServer(t)
	mod := s.addUser(t, "mod1", models.RoleModerator)

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusOK},
		{"?limit=1", http.StatusOK},
		{"?limit=100", http.StatusOK},
		{"?limit=0", http.StatusUnprocessableEntity},
		{"?limit=101", http.StatusUnprocessableEntity},
		{"?limit=ten", http.StatusUnprocessableEntity},
		{"?status=dismissed", http.StatusOK},
		{"?status=archived", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/reports"+tt.query, mod, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestDismissReport(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)
	mod := s.addUser(t, "mod1", models.RoleModerator)
	admin := s.addUser(t, "admin1", models.RoleAdministrator)

	w := s.do(t, http.MethodPost, "/reports", member, jsonBody{"movie_id": "alien", "reason": "off-topic"})
	require.Equal(t, http.StatusCreated, w.Code)
	report := decode[models.Report](t, w)
	path := "/reports/" + report.ReportID + "/dismiss"

	// Administrators do not hold the moderator role.
	w = s.do(t, http.MethodPost, path, admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/reports/report_missing/dismiss", mod, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, path, mod, jsonBody{"notes": "not a violation"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Report dismissed successfully","report_id":"`+report.ReportID+`"}`, w.Body.String())

	stored, err := s.reports.GetByID(report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, stored.Status)
	require.NotNil(t, stored.AssignedModerator)
	assert.Equal(t, "mod1", *stored.AssignedModerator)
	require.NotNil(t, stored.ModeratorNotes)
	assert.Equal(t, "not a violation", *stored.ModeratorNotes)
}

func TestDismissReport_NotesFromQuery(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)
	mod := s.addUser(t, "mod1", models.RoleModerator)

	w := s.do(t, http.MethodPost, "/reports", member, jsonBody{"movie_id": "alien", "reason": "off-topic"})
	require.Equal(t, http.StatusCreated, w.Code)
	report := decode[models.Report](t, w)

	w = s.do(t, http.MethodPost, "/reports/"+report.ReportID+"/dismiss?notes=duplicate", mod, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := s.reports.GetByID(report.ReportID)
	require.NoError(t, err)
	require.NotNil(t, stored.ModeratorNotes)
	assert.Equal(t, "duplicate", *stored.ModeratorNotes)
}

func TestApplyPenalty_BodyReportIDMustMatchPath(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)
	mod := s.addUser(t, "mod1", models.RoleModerator)

	w := s.do(t, http.MethodPost, "/reports", member, jsonBody{"movie_id": "heat", "reason": "spam"})
	require.Equal(t, http.StatusCreated, w.Code)
	report := decode[models.Report](t, w)

	w = s.do(t, http.MethodPost, "/reports/"+report.ReportID+"/penalty", mod, jsonBody{
		"user_id": "u1", "reason": "spam", "severity": "low", "duration_days": 3, "report_id": "report_other",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/reports/"+report.ReportID+"/penalty", mod, jsonBody{
		"user_id": "u1", "reason": "spam", "severity": "low", "duration_days": 3, "report_id": report.ReportID,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestIssuePenalty(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)
	mod := s.addUser(t, "mod1", models.RoleModerator)

	body := jsonBody{"user_id": "u1", "reason": "harassment", "severity": "medium", "duration_days": 30}

	w := s.do(t, http.MethodPost, "/penalties", member, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/penalties", mod, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	penalty := decode[models.Penalty](t, w)
	assert.Nil(t, penalty.ReportID)
	assert.True(t, penalty.Active)

	w = s.do(t, http.MethodGet, "/reports/user/u1/penalties", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.UserPenaltiesResponse](t, w).Penalties, 1)
}

func TestReportRoutes_RequireCredential(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/reports", "/reports/r1", "/reports/user/u1/penalties"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(t, http.MethodGet, "/reports", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// jsonBody is shorthand for JSON request bodies.
type jsonBody = map[string]any
