package models

import (
	"time"

	"github.com/google/uuid"
)

// Moderation actions recorded in the audit log and published as events.
const (
	ActionReportCreated   = "report.created"
	ActionReportDismissed = "report.dismissed"
	ActionPenaltyApplied  = "penalty.applied"
	ActionReconciled      = "report.reconciled"
)

// ModerationLog records an action taken by a moderator or the screener.
type ModerationLog struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	ReportID     *string        `json:"report_id,omitempty" db:"report_id"`
	PenaltyID    *string        `json:"penalty_id,omitempty" db:"penalty_id"`
	Action       string         `json:"action" db:"action"`
	ModeratorID  *string        `json:"moderator_id,omitempty" db:"moderator_id"`
	TargetUserID *string        `json:"target_user_id,omitempty" db:"target_user_id"`
	Reason       *string        `json:"reason,omitempty" db:"reason"`
	Metadata     map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
