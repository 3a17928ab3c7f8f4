package models

import (
	"time"

	"github.com/cinereview/backend/internal/apperrors"
)

// Severity grades a penalty.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

const (
	MinPenaltyDays = 1
	MaxPenaltyDays = 365
)

// ValidatePenaltyTerms checks severity and duration before anything is written.
func ValidatePenaltyTerms(severity Severity, durationDays int) error {
	if !severity.Valid() {
		return apperrors.Validation("severity must be one of low, medium, high")
	}
	if durationDays < MinPenaltyDays || durationDays > MaxPenaltyDays {
		return apperrors.Validation("duration_days must be between %d and %d", MinPenaltyDays, MaxPenaltyDays)
	}
	return nil
}

// Penalty is a sanction against a user, optionally issued from a report.
type Penalty struct {
	PenaltyID    string    `json:"penalty_id"`
	UserID       string    `json:"user_id"`
	Reason       string    `json:"reason"`
	Severity     Severity  `json:"severity"`
	DurationDays int       `json:"duration_days"`
	ReportID     *string   `json:"report_id"`
	IssuedBy     string    `json:"issued_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}

// ExpiresAt is the end of the penalty term.
func (p *Penalty) ExpiresAt() time.Time {
	return p.CreatedAt.AddDate(0, 0, p.DurationDays)
}

// IsActiveAt reports whether the penalty is in force at t. Nothing
// deactivates penalties automatically; callers that enforce expiry use this.
func (p *Penalty) IsActiveAt(t time.Time) bool {
	return p.Active && t.Before(p.ExpiresAt())
}

// ApplyPenaltyRequest is the body of POST /reports/:id/penalty and
// POST /penalties. Range checks happen in the engine so both routes share them.
type ApplyPenaltyRequest struct {
	UserID       string   `json:"user_id" binding:"required"`
	Reason       string   `json:"reason" binding:"required"`
	Severity     Severity `json:"severity" binding:"required"`
	DurationDays int      `json:"duration_days"`
	ReportID     *string  `json:"report_id,omitempty"`
}

type ApplyPenaltyResponse struct {
	Message  string   `json:"message"`
	ReportID string   `json:"report_id"`
	Penalty  *Penalty `json:"penalty"`
}

type UserPenaltiesResponse struct {
	UserID    string     `json:"user_id"`
	Penalties []*Penalty `json:"penalties"`
}
