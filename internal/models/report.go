package models

import (
	"time"

	"github.com/cinereview/backend/internal/apperrors"
)

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	ReportStatusPending        ReportStatus = "pending"
	ReportStatusDismissed      ReportStatus = "dismissed"
	ReportStatusPenaltyApplied ReportStatus = "penalty_applied"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusDismissed, ReportStatusPenaltyApplied:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusDismissed || s == ReportStatusPenaltyApplied
}

// Report is a complaint about a movie's content awaiting moderator action.
type Report struct {
	ReportID          string       `json:"report_id"`
	ReporterID        string       `json:"reporter_id"`
	MovieID           string       `json:"movie_id"`
	Reason            string       `json:"reason"`
	Description       *string      `json:"description"`
	Status            ReportStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	AssignedModerator *string      `json:"assigned_moderator"`
	ResolvedAt        *time.Time   `json:"resolved_at"`
	ModeratorNotes    *string      `json:"moderator_notes"`
}

// Resolve moves a pending report to the terminal status to. The resolution
// fields are written exactly once; a report that is no longer pending is
// rejected with a conflict.
func (r *Report) Resolve(to ReportStatus, moderatorID string, notes *string, at time.Time) error {
	if !to.IsTerminal() {
		return apperrors.Validation("cannot resolve report to status %q", to)
	}
	if r.Status != ReportStatusPending {
		return apperrors.Conflict("report %s already processed", r.ReportID)
	}
	r.Status = to
	r.AssignedModerator = &moderatorID
	resolved := at.UTC()
	r.ResolvedAt = &resolved
	r.ModeratorNotes = notes
	return nil
}

type CreateReportRequest struct {
	MovieID     string  `json:"movie_id" binding:"required"`
	Reason      string  `json:"reason" binding:"required"`
	Description *string `json:"description,omitempty"`
}

type DismissReportRequest struct {
	Notes *string `json:"notes,omitempty" form:"notes"`
}

type DismissReportResponse struct {
	Message  string `json:"message"`
	ReportID string `json:"report_id"`
}

// ReportFilter narrows ListReports. A nil Status matches every report.
type ReportFilter struct {
	Status *ReportStatus
	Limit  int
}
