// Package moderation owns the report lifecycle and penalty issuance. All
// mutations go through a single coordinator lock so that a penalty, the
// target user's penalty list and the originating report move together.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ReportStore persists reports in insertion order.
type ReportStore interface {
	Create(report *models.Report) error
	GetByID(id string) (*models.Report, error)
	List() ([]*models.Report, error)
	Update(id string, fn func(report *models.Report) error) (*models.Report, error)
}

// PenaltyStore persists penalties in issue order.
type PenaltyStore interface {
	Create(penalty *models.Penalty) error
	List() ([]*models.Penalty, error)
	ListActiveByUser(userID string) ([]*models.Penalty, error)
	FindByReport(reportID string) ([]*models.Penalty, error)
	Delete(id string) error
}

// UserStore is the slice of the user store the engine writes to.
type UserStore interface {
	GetByID(id string) (*models.User, error)
	List() ([]*models.User, error)
	AppendPenalty(userID, penaltyID string) error
	RemovePenalty(userID, penaltyID string) error
	SetPenalties(lists map[string][]string) error
}

// Publisher fans moderation events out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, msg models.WSMessage) error
}

// AuditLog records moderation actions.
type AuditLog interface {
	AddLog(ctx context.Context, log *models.ModerationLog) error
}

// Recorder counts moderation outcomes.
type Recorder interface {
	ReportCreated()
	ReportResolved(status models.ReportStatus)
	PenaltyIssued(severity models.Severity)
}

// PenaltyInput carries the moderator-supplied terms of a penalty.
type PenaltyInput struct {
	UserID       string
	Reason       string
	Severity     models.Severity
	DurationDays int
}

type Engine struct {
	reports   ReportStore
	penalties PenaltyStore
	users     UserStore

	log       *zap.Logger
	publisher Publisher
	audit     AuditLog
	metrics   Recorder
	now       func() time.Time
	newID     func(prefix string) string

	mu sync.Mutex
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option { return func(e *Engine) { e.publisher = p } }

func WithAuditLog(a AuditLog) Option { return func(e *Engine) { e.audit = a } }

func WithRecorder(r Recorder) Option { return func(e *Engine) { e.metrics = r } }

// WithClock overrides the time source used for created_at and resolved_at.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithIDGenerator overrides how report and penalty ids are minted.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(reports ReportStore, penalties PenaltyStore, users UserStore, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		reports:   reports,
		penalties: penalties,
		users:     users,
		log:       log.Named("moderation"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func(prefix string) string { return prefix + "_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListReports returns reports matching filter.Status in store order,
// truncated to the normalised limit.
func (e *Engine) ListReports(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation("unknown report status %q", *filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	all, err := e.reports.List()
	if err != nil {
		return nil, err
	}
	res := []*models.Report{}
	for _, r := range all {
		if len(res) == limit {
			break
		}
		if filter.Status == nil || r.Status == *filter.Status {
			res = append(res, r)
		}
	}
	return res, nil
}

func (e *Engine) GetReport(ctx context.Context, reportID string) (*models.Report, error) {
	return e.reports.GetByID(reportID)
}

// CreateReport files a new pending report.
func (e *Engine) CreateReport(ctx context.Context, reporterID, movieID, reason string, description *string) (*models.Report, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case reporterID == "":
		return nil, apperrors.Validation("reporter_id is required")
	case movieID == "":
		return nil, apperrors.Validation("movie_id is required")
	case reason == "":
		return nil, apperrors.Validation("reason is required")
	}

	report := &models.Report{
		ReportID:    e.newID("report"),
		ReporterID:  reporterID,
		MovieID:     movieID,
		Reason:      reason,
		Description: description,
		Status:      models.ReportStatusPending,
		CreatedAt:   e.now(),
	}

	e.mu.Lock()
	err := e.reports.Create(report)
	e.mu.Unlock()
	if err != nil {
		return nil, apperrors.LogWithError(ctx, e.log, "create report", err, zap.String("movie_id", movieID))
	}

	e.log.Info("report created",
		zap.String("report_id", report.ReportID),
		zap.String("reporter_id", reporterID),
		zap.String("movie_id", movieID),
	)
	if e.metrics != nil {
		e.metrics.ReportCreated()
	}
	e.record(ctx, &models.ModerationLog{
		Action:   models.ActionReportCreated,
		ReportID: &report.ReportID,
		Reason:   &report.Reason,
		Metadata: map[string]any{"reporter_id": reporterID, "movie_id": movieID},
	})
	e.publish(ctx, models.EventReportCreated, report)
	return report, nil
}

// DismissReport closes a pending report without action.
func (e *Engine) DismissReport(ctx context.Context, reportID, moderatorID string, notes *string) (*models.Report, error) {
	e.mu.Lock()
	report, err := e.reports.Update(reportID, func(r *models.Report) error {
		return r.Resolve(models.ReportStatusDismissed, moderatorID, notes, e.now())
	})
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.log.Info("report dismissed",
		zap.String("report_id", reportID),
		zap.String("moderator_id", moderatorID),
	)
	if e.metrics != nil {
		e.metrics.ReportResolved(models.ReportStatusDismissed)
	}
	e.record(ctx, &models.ModerationLog{
		Action:      models.ActionReportDismissed,
		ReportID:    &report.ReportID,
		ModeratorID: &moderatorID,
		Reason:      notes,
	})
	e.publish(ctx, models.EventReportDismissed, report)
	return report, nil
}

// ApplyPenalty penalises in.UserID on behalf of a pending report and closes
// the report. Every precondition is checked before anything is written. The
// three writes happen in the order penalty, user, report; if a later write
// fails the earlier ones are undone. A penalty left behind by an attempt
// whose undo also failed is discarded by the next attempt on the same report,
// or rolled forward by Reconcile.
func (e *Engine) ApplyPenalty(ctx context.Context, reportID string, in PenaltyInput, moderatorID string) (*models.Penalty, error) {
	if err := validatePenalty(in); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	report, err := e.reports.GetByID(reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusPending {
		return nil, apperrors.Conflict("report %s already processed", reportID)
	}
	if _, err := e.users.GetByID(in.UserID); err != nil {
		return nil, userLookupError(err)
	}

	if err := e.discardLeftovers(ctx, reportID); err != nil {
		return nil, err
	}

	penalty := e.newPenalty(in, moderatorID, &reportID)
	if err := e.penalties.Create(penalty); err != nil {
		return nil, apperrors.LogWithError(ctx, e.log, "create penalty", err, zap.String("report_id", reportID))
	}
	if err := e.users.AppendPenalty(in.UserID, penalty.PenaltyID); err != nil {
		e.undoPenalty(ctx, penalty, false)
		return nil, apperrors.LogWithError(ctx, e.log, "append penalty to user", err,
			zap.String("report_id", reportID), zap.String("user_id", in.UserID))
	}

	notes := fmt.Sprintf("Penalty applied: %s severity, %d days", in.Severity, in.DurationDays)
	resolved, err := e.reports.Update(reportID, func(r *models.Report) error {
		return r.Resolve(models.ReportStatusPenaltyApplied, moderatorID, &notes, penalty.CreatedAt)
	})
	if err != nil {
		e.undoPenalty(ctx, penalty, true)
		return nil, apperrors.LogWithError(ctx, e.log, "resolve report", err, zap.String("report_id", reportID))
	}

	e.log.Info("penalty applied",
		zap.String("report_id", reportID),
		zap.String("penalty_id", penalty.PenaltyID),
		zap.String("user_id", in.UserID),
		zap.String("severity", string(in.Severity)),
		zap.Int("duration_days", in.DurationDays),
		zap.String("moderator_id", moderatorID),
	)
	e.afterPenalty(ctx, penalty, moderatorID)
	if e.metrics != nil {
		e.metrics.ReportResolved(models.ReportStatusPenaltyApplied)
	}
	e.publish(ctx, models.EventPenaltyApplied, map[string]any{
		"report":  resolved,
		"penalty": penalty,
	})
	return penalty, nil
}

// IssuePenalty penalises a user without an originating report.
func (e *Engine) IssuePenalty(ctx context.Context, in PenaltyInput, moderatorID string) (*models.Penalty, error) {
	if err := validatePenalty(in); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.users.GetByID(in.UserID); err != nil {
		return nil, userLookupError(err)
	}

	penalty := e.newPenalty(in, moderatorID, nil)
	if err := e.penalties.Create(penalty); err != nil {
		return nil, apperrors.LogWithError(ctx, e.log, "create penalty", err, zap.String("user_id", in.UserID))
	}
	if err := e.users.AppendPenalty(in.UserID, penalty.PenaltyID); err != nil {
		e.undoPenalty(ctx, penalty, false)
		return nil, apperrors.LogWithError(ctx, e.log, "append penalty to user", err, zap.String("user_id", in.UserID))
	}

	e.log.Info("penalty issued",
		zap.String("penalty_id", penalty.PenaltyID),
		zap.String("user_id", in.UserID),
		zap.String("severity", string(in.Severity)),
		zap.String("moderator_id", moderatorID),
	)
	e.afterPenalty(ctx, penalty, moderatorID)
	e.publish(ctx, models.EventPenaltyApplied, map[string]any{"penalty": penalty})
	return penalty, nil
}

// GetUserPenalties returns the active penalties targeting userID.
func (e *Engine) GetUserPenalties(ctx context.Context, userID string) ([]*models.Penalty, error) {
	return e.penalties.ListActiveByUser(userID)
}

func validatePenalty(in PenaltyInput) error {
	if in.UserID == "" {
		return apperrors.Validation("user_id is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return apperrors.Validation("reason is required")
	}
	return models.ValidatePenaltyTerms(in.Severity, in.DurationDays)
}

func userLookupError(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("user to penalize not found")
	}
	return err
}

func (e *Engine) newPenalty(in PenaltyInput, moderatorID string, reportID *string) *models.Penalty {
	return &models.Penalty{
		PenaltyID:    e.newID("penalty"),
		UserID:       in.UserID,
		Reason:       strings.TrimSpace(in.Reason),
		Severity:     in.Severity,
		DurationDays: in.DurationDays,
		ReportID:     reportID,
		IssuedBy:     moderatorID,
		CreatedAt:    e.now(),
		Active:       true,
	}
}

// discardLeftovers removes penalties already attached to a report that is
// still pending. Those can only come from an attempt that failed part way.
func (e *Engine) discardLeftovers(ctx context.Context, reportID string) error {
	leftovers, err := e.penalties.FindByReport(reportID)
	if err != nil {
		return err
	}
	for _, p := range leftovers {
		e.log.Warn("discarding penalty from incomplete attempt",
			zap.String("report_id", reportID),
			zap.String("penalty_id", p.PenaltyID),
		)
		if err := e.users.RemovePenalty(p.UserID, p.PenaltyID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.LogWithError(ctx, e.log, "discard leftover penalty", err, zap.String("penalty_id", p.PenaltyID))
		}
		if err := e.penalties.Delete(p.PenaltyID); err != nil {
			return apperrors.LogWithError(ctx, e.log, "discard leftover penalty", err, zap.String("penalty_id", p.PenaltyID))
		}
	}
	return nil
}

// undoPenalty compensates a partially applied penalty. Failures are logged;
// the leftover is then handled by discardLeftovers or Reconcile.
func (e *Engine) undoPenalty(ctx context.Context, p *models.Penalty, fromUser bool) {
	if fromUser {
		if err := e.users.RemovePenalty(p.UserID, p.PenaltyID); err != nil {
			_ = apperrors.LogWithError(ctx, e.log, "undo user penalty", err,
				zap.String("penalty_id", p.PenaltyID), zap.String("user_id", p.UserID))
		}
	}
	if err := e.penalties.Delete(p.PenaltyID); err != nil {
		_ = apperrors.LogWithError(ctx, e.log, "undo penalty", err, zap.String("penalty_id", p.PenaltyID))
	}
}

func (e *Engine) afterPenalty(ctx context.Context, p *models.Penalty, moderatorID string) {
	if e.metrics != nil {
		e.metrics.PenaltyIssued(p.Severity)
	}
	e.record(ctx, &models.ModerationLog{
		Action:       models.ActionPenaltyApplied,
		ReportID:     p.ReportID,
		PenaltyID:    &p.PenaltyID,
		ModeratorID:  &moderatorID,
		TargetUserID: &p.UserID,
		Reason:       &p.Reason,
		Metadata: map[string]any{
			"severity":      p.Severity,
			"duration_days": p.DurationDays,
		},
	})
}

// record writes to the audit log. Audit failures never fail the action.
func (e *Engine) record(ctx context.Context, entry *models.ModerationLog) {
	if e.audit == nil {
		return
	}
	entry.CreatedAt = e.now()
	if err := e.audit.AddLog(ctx, entry); err != nil {
		e.log.Warn("failed to write moderation log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (e *Engine) publish(ctx context.Context, event string, payload any) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, models.WSMessage{Event: event, Payload: payload}); err != nil {
		e.log.Warn("failed to publish moderation event", zap.String("event", event), zap.Error(err))
	}
}
