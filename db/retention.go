package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/onnwee/livechat-viewer/telemetry"
)

// RetentionPolicy decides how long archived messages are kept.
type RetentionPolicy struct {
	// KeepDays: messages received longer ago are deleted (0 = disabled)
	KeepDays int
	// DryRun: count what would be deleted without deleting
	DryRun bool
	// Interval: how often the job runs
	Interval time.Duration
}

// Enabled reports whether the policy deletes anything.
func (p RetentionPolicy) Enabled() bool { return p.KeepDays > 0 }

// LoadRetentionPolicy reads ARCHIVE_RETENTION_DAYS, ARCHIVE_RETENTION_DRY_RUN
// and ARCHIVE_RETENTION_INTERVAL.
func LoadRetentionPolicy() RetentionPolicy {
	policy := RetentionPolicy{Interval: 6 * time.Hour}
	if s := os.Getenv("ARCHIVE_RETENTION_DAYS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			policy.KeepDays = n
		}
	}
	if b, err := strconv.ParseBool(os.Getenv("ARCHIVE_RETENTION_DRY_RUN")); err == nil {
		policy.DryRun = b
	}
	if s := os.Getenv("ARCHIVE_RETENTION_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			policy.Interval = d
		}
	}
	return policy
}

// StartRetentionJob prunes the archive now and then every policy.Interval
// until ctx ends. It returns immediately when the policy is disabled.
func StartRetentionJob(ctx context.Context, dbc *sql.DB, policy RetentionPolicy) {
	if !policy.Enabled() {
		slog.Info("retention job disabled (no policy configured)", slog.String("component", "retention"))
		return
	}
	slog.Info("retention job starting",
		slog.String("component", "retention"),
		slog.Int("keep_days", policy.KeepDays),
		slog.Bool("dry_run", policy.DryRun),
		slog.Duration("interval", policy.Interval))

	run := func() {
		cutoff := time.Now().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
		n, err := Prune(ctx, dbc, cutoff, policy.DryRun)
		if err != nil {
			slog.Warn("retention cleanup failed", slog.Any("err", err), slog.String("component", "retention"))
			return
		}
		slog.Info("retention cleanup finished", slog.String("component", "retention"), slog.Int64("messages", n), slog.Bool("dry_run", policy.DryRun))
	}

	run()
	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("retention job stopped", slog.String("component", "retention"))
			return
		case <-ticker.C:
			run()
		}
	}
}

// Prune deletes messages received before cutoff and returns how many rows
// were (or, with dryRun, would be) removed.
func Prune(ctx context.Context, dbc *sql.DB, cutoff time.Time, dryRun bool) (int64, error) {
	if dryRun {
		var n int64
		if err := dbc.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages WHERE received_at < $1`, cutoff).Scan(&n); err != nil {
			return 0, fmt.Errorf("count expired messages: %w", err)
		}
		return n, nil
	}
	res, err := dbc.ExecContext(ctx, `DELETE FROM chat_messages WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	telemetry.RecordPruned(n)
	return n, nil
}
