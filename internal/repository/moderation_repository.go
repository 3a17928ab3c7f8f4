package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cinereview/backend/internal/database"
	"github.com/cinereview/backend/internal/models"
)

// ModerationLogRepository writes the moderation audit trail to Postgres.
type ModerationLogRepository struct {
	db *database.DB
}

func NewModerationLogRepository(db *database.DB) *ModerationLogRepository {
	return &ModerationLogRepository{db: db}
}

// AddLog records a moderation action
func (r *ModerationLogRepository) AddLog(ctx context.Context, log *models.ModerationLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	meta := sql.NullString{}
	if log.Metadata != nil {
		if b, err := json.Marshal(log.Metadata); err == nil {
			meta = sql.NullString{String: string(b), Valid: true}
		}
	}

	query := `INSERT INTO moderation_logs (id, report_id, penalty_id, action, moderator_id, target_user_id, reason, metadata, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())`
	if _, err := r.db.ExecContext(ctx, query, log.ID, log.ReportID, log.PenaltyID, log.Action, log.ModeratorID, log.TargetUserID, log.Reason, meta); err != nil {
		return fmt.Errorf("failed to insert moderation log: %w", err)
	}
	return nil
}

// GetLogsByReport returns the audit trail of a report, newest first.
func (r *ModerationLogRepository) GetLogsByReport(ctx context.Context, reportID string, limit int) ([]models.ModerationLog, error) {
	query := `SELECT id, report_id, penalty_id, action, moderator_id, target_user_id, reason, metadata, created_at FROM moderation_logs WHERE report_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.query(ctx, query, reportID, limit)
}

// GetLogsByTarget returns actions taken against a user, newest first.
func (r *ModerationLogRepository) GetLogsByTarget(ctx context.Context, userID string, limit int) ([]models.ModerationLog, error) {
	query := `SELECT id, report_id, penalty_id, action, moderator_id, target_user_id, reason, metadata, created_at FROM moderation_logs WHERE target_user_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.query(ctx, query, userID, limit)
}

func (r *ModerationLogRepository) query(ctx context.Context, query, key string, limit int) ([]models.ModerationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query moderation logs: %w", err)
	}
	defer rows.Close()

	res := []models.ModerationLog{}
	for rows.Next() {
		var m models.ModerationLog
		var meta sql.NullString
		if err := rows.Scan(&m.ID, &m.ReportID, &m.PenaltyID, &m.Action, &m.ModeratorID, &m.TargetUserID, &m.Reason, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan moderation log: %w", err)
		}
		if meta.Valid {
			var mm map[string]any
			_ = json.Unmarshal([]byte(meta.String), &mm)
			m.Metadata = mm
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
