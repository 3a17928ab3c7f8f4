package moderation

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/models"
)

// ReconcileResult describes what Reconcile changed, or would change when run
// as a dry run.
type ReconcileResult struct {
	DryRun bool `json:"dry_run"`
	// RolledForward lists reports closed because a penalty already referenced them.
	RolledForward []string `json:"rolled_forward"`
	// UsersRewritten maps user ids to their corrected penalty lists.
	UsersRewritten map[string][]string `json:"users_rewritten"`
	// OrphanPenalties lists active penalties whose target user does not exist.
	OrphanPenalties []string `json:"orphan_penalties"`
}

// Changed reports whether the stores were (or would be) modified.
func (r *ReconcileResult) Changed() bool {
	return len(r.RolledForward) > 0 || len(r.UsersRewritten) > 0
}

// Reconcile repairs the stores after an interrupted penalty issuance. Any
// penalty that names a still-pending report rolls that report forward to
// penalty_applied, and every user's penalty list is rewritten to the ids of
// the active penalties that target the user.
func (e *Engine) Reconcile(ctx context.Context, dryRun bool) (*ReconcileResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &ReconcileResult{
		DryRun:          dryRun,
		RolledForward:   []string{},
		UsersRewritten:  map[string][]string{},
		OrphanPenalties: []string{},
	}

	penalties, err := e.penalties.List()
	if err != nil {
		return nil, err
	}
	reports, err := e.reports.List()
	if err != nil {
		return nil, err
	}
	pending := map[string]bool{}
	for _, r := range reports {
		if r.Status == models.ReportStatusPending {
			pending[r.ReportID] = true
		}
	}

	for _, p := range penalties {
		if p.ReportID == nil || !pending[*p.ReportID] {
			continue
		}
		reportID := *p.ReportID
		pending[reportID] = false
		res.RolledForward = append(res.RolledForward, reportID)
		if dryRun {
			continue
		}

		moderatorID := p.IssuedBy
		if moderatorID == "" {
			moderatorID = "system"
		}
		notes := fmt.Sprintf("Penalty applied: %s severity, %d days", p.Severity, p.DurationDays)
		if _, err := e.reports.Update(reportID, func(r *models.Report) error {
			return r.Resolve(models.ReportStatusPenaltyApplied, moderatorID, &notes, p.CreatedAt)
		}); err != nil {
			return nil, err
		}
		e.log.Warn("rolled forward report with existing penalty",
			zap.String("report_id", reportID),
			zap.String("penalty_id", p.PenaltyID),
		)
		e.record(ctx, &models.ModerationLog{
			Action:       models.ActionReconciled,
			ReportID:     &reportID,
			PenaltyID:    &p.PenaltyID,
			ModeratorID:  &moderatorID,
			TargetUserID: &p.UserID,
		})
	}

	users, err := e.users.List()
	if err != nil {
		return nil, err
	}
	active := map[string][]string{}
	for _, p := range penalties {
		if p.Active {
			active[p.UserID] = append(active[p.UserID], p.PenaltyID)
		}
	}
	known := map[string]bool{}
	for _, u := range users {
		known[u.UserID] = true
		want := expectedPenalties(u.Penalties, active[u.UserID])
		if !slices.Equal(want, u.Penalties) && !(len(want) == 0 && len(u.Penalties) == 0) {
			res.UsersRewritten[u.UserID] = want
		}
	}
	for _, p := range penalties {
		if p.Active && !known[p.UserID] {
			res.OrphanPenalties = append(res.OrphanPenalties, p.PenaltyID)
		}
	}

	if !dryRun && len(res.UsersRewritten) > 0 {
		if err := e.users.SetPenalties(res.UsersRewritten); err != nil {
			return nil, err
		}
	}

	e.log.Info("reconcile finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("reports_rolled_forward", len(res.RolledForward)),
		zap.Int("users_rewritten", len(res.UsersRewritten)),
		zap.Int("orphan_penalties", len(res.OrphanPenalties)),
	)
	return res, nil
}

// expectedPenalties keeps the ids of current that are still active, in their
// existing order, then appends active ids the list was missing.
func expectedPenalties(current, active []string) []string {
	isActive := make(map[string]bool, len(active))
	for _, id := range active {
		isActive[id] = true
	}
	want := []string{}
	seen := map[string]bool{}
	for _, id := range current {
		if isActive[id] && !seen[id] {
			want = append(want, id)
			seen[id] = true
		}
	}
	for _, id := range active {
		if !seen[id] {
			want = append(want, id)
			seen[id] = true
		}
	}
	return want
}
