package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/innerlog/internal/backup"
	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/keyring"
	"github.com/julianstephens/innerlog/internal/utils"
)

const pingTimeout = 5 * time.Second

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	report := func(name string, err error, warnOnly bool) {
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", name)
		case warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}
	skip := func(name, reason string) {
		ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
	}

	dbErr := checkDBReachable(ctx)
	report("Database reachable", dbErr, false)
	dbReachable := dbErr == nil

	if dbReachable {
		report("Schema version", checkSchemaVersion(ctx), false)
		report("Migrations complete", checkMigrationsComplete(ctx), false)
	} else {
		skip("Schema version", "database not reachable")
		skip("Migrations complete", "database not reachable")
	}

	if ctx.SQLite() == nil {
		skip("Backups present", "backups are only kept for SQLite")
		skip("SQLite integrity", "not a SQLite database")
		skip("Streak dates", "not a SQLite database")
		skip("Timestamp integrity", "not a SQLite database")
	} else {
		report("Backups present", checkBackupsPresent(ctx), true)
		if dbReachable {
			report("SQLite integrity", checkIntegrity(ctx), false)
			report("Streak dates", checkStreakDates(ctx), false)
			report("Timestamp integrity", checkTimestampIntegrity(ctx), false)
		} else {
			skip("SQLite integrity", "database not reachable")
			skip("Streak dates", "database not reachable")
			skip("Timestamp integrity", "database not reachable")
		}
	}

	report("Clock/timezone", checkClockTimezone(), false)
	report("OS keyring", checkKeyring(), true)
	report("Feedback API key", checkFeedbackKey(), true)

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := ctx.Store.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	status, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if status.Current > status.Latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", status.Current, status.Latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	status, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if status.Pending() {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d - run 'innerlog migrate'", status.Current, status.Latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'innerlog backup create'")
	}
	return nil
}

func checkIntegrity(ctx *cli.Context) error {
	db := ctx.SQLite().GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}
	return nil
}

// checkStreakDates flags last_entry_date values that are malformed or in the future
func checkStreakDates(ctx *cli.Context) error {
	db := ctx.SQLite().GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	rows, err := db.Query("SELECT user_id, last_entry_date FROM streaks WHERE last_entry_date IS NOT NULL")
	if err != nil {
		return fmt.Errorf("failed to query streaks: %w", err)
	}
	defer rows.Close()

	today := utils.DayKey(time.Now())
	for rows.Next() {
		var userID, date string
		if err := rows.Scan(&userID, &date); err != nil {
			return fmt.Errorf("failed to scan streak: %w", err)
		}
		if !utils.ValidDayKey(date) {
			return fmt.Errorf("streak for %s has malformed last entry date %q", userID, date)
		}
		if date > today {
			return fmt.Errorf("streak for %s was credited in the future (%s)", userID, date)
		}
	}
	return rows.Err()
}

func checkTimestampIntegrity(ctx *cli.Context) error {
	db := ctx.SQLite().GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	width := len(constants.TimestampFormat)
	columns := map[string][]string{
		"journals":         {"created_at", "updated_at"},
		"streaks":          {"created_at", "updated_at"},
		"daily_aggregates": {"updated_at"},
		"onboarding":       {"started_at", "completed_at", "updated_at"},
	}
	for _, table := range []string{"journals", "streaks", "daily_aggregates", "onboarding"} {
		for _, col := range columns[table] {
			var bad int
			query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE length(%s) != ?", table, col)
			if err := db.QueryRow(query, width).Scan(&bad); err != nil {
				return fmt.Errorf("failed to check %s timestamps: %w", table, err)
			}
			if bad > 0 {
				return fmt.Errorf("found %d rows in %s with malformed %s", bad, table, col)
			}
		}
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; use %s for database credentials", cli.ConnectionEnv)
	}
	return nil
}

func checkFeedbackKey() error {
	if os.Getenv("GEMINI_API_KEY") != "" {
		return nil
	}
	if _, err := keyring.Get(keyring.GeminiAPIKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) || errors.Is(err, keyring.ErrKeyringUnavailable) {
			return fmt.Errorf("no Gemini API key configured - onboarding feedback will use the static fallback")
		}
		return err
	}
	return nil
}
