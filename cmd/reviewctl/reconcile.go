package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/moderation"
	"github.com/cinereview/backend/internal/repository"
	"github.com/cinereview/backend/internal/storage"
)

var (
	dryRun     bool
	jsonOutput bool
)

// reconcileCmd repairs the moderation stores after an interrupted penalty
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair reports and penalty lists left inconsistent by a crash",
	Long: `Roll forward reports that already have a penalty but are still pending,
and rewrite every user's penalty list to match the penalty store.

Run with --dry-run to see what would change without writing anything.

A real run takes the data directory lock and refuses to start while the API
server holds it; the server reconciles on startup anyway. --dry-run only
reads and works against a live server.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing them")
	reconcileCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if !dryRun {
		lock, err := storage.LockDir(cfg.Storage.DataDir)
		if errors.Is(err, storage.ErrDirLocked) {
			return fmt.Errorf("%s is in use, stop the API server first or pass --dry-run: %w", cfg.Storage.DataDir, err)
		}
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	engine := moderation.NewEngine(
		repository.NewReportRepository(cfg.ReportsFile()),
		repository.NewPenaltyRepository(cfg.PenaltiesFile()),
		repository.NewUserRepository(cfg.UsersFile()),
		log,
	)

	res, err := engine.Reconcile(ctx, dryRun)
	if err != nil {
		return err
	}
	log.Debug("reconcile finished", zap.Bool("dry_run", dryRun), zap.Bool("changed", res.Changed()))

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	verb := "Rolled forward"
	if res.DryRun {
		verb = "Would roll forward"
	}
	if !res.Changed() {
		fmt.Fprintln(out, "Stores are consistent")
	}
	for _, id := range res.RolledForward {
		fmt.Fprintf(out, "%s report %s\n", verb, id)
	}
	users := make([]string, 0, len(res.UsersRewritten))
	for id := range res.UsersRewritten {
		users = append(users, id)
	}
	sort.Strings(users)
	for _, id := range users {
		fmt.Fprintf(out, "User %s penalties -> %v\n", id, res.UsersRewritten[id])
	}
	for _, id := range res.OrphanPenalties {
		fmt.Fprintf(out, "Warning: penalty %s targets an unknown user\n", id)
	}
	return nil
}
