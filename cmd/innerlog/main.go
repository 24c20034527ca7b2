package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/cli/activity"
	"github.com/julianstephens/innerlog/internal/cli/backups"
	"github.com/julianstephens/innerlog/internal/cli/journals"
	"github.com/julianstephens/innerlog/internal/cli/system"
	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL passwords must come from INNERLOG_DB_CONNECTION, the OS keyring, or .pgpass." type:"string" default:"${config}"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize innerlog storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the HTTP API server."`
	Token   system.TokenCmd   `cmd:"" help:"Issue an API token for a user."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show keyring availability and stored entries." default:"1"`
	} `cmd:"" help:"Manage the database connection string in the OS keyring."`
	Apikey struct {
		Set    system.APIKeySetCmd    `cmd:"" help:"Store the feedback API key in the OS keyring."`
		Delete system.APIKeyDeleteCmd `cmd:"" help:"Remove the stored feedback API key."`
	} `cmd:"" help:"Manage the feedback API key."`
	Session struct {
		Log    activity.SessionLogCmd    `cmd:"" help:"Log a meditation or breathing session."`
		Recent activity.SessionRecentCmd `cmd:"" help:"Show recent daily totals."`
	} `cmd:"" help:"Record practice sessions."`
	Streak struct {
		Show   activity.StreakShowCmd   `cmd:"" help:"Show the streak record." default:"1"`
		Credit activity.StreakCreditCmd `cmd:"" help:"Credit activity for today."`
		Init   activity.StreakInitCmd   `cmd:"" help:"Create an empty streak record."`
	} `cmd:"" help:"Inspect and credit streaks."`
	Onboarding struct {
		Status   activity.OnboardingStatusCmd   `cmd:"" help:"Show onboarding progress." default:"1"`
		Complete activity.OnboardingCompleteCmd `cmd:"" help:"Mark onboarding as completed."`
		Feedback activity.OnboardingFeedbackCmd `cmd:"" help:"Get personalized feedback on onboarding answers."`
	} `cmd:"" help:"Onboarding questionnaire."`
	Journal struct {
		New      journals.JournalNewCmd      `cmd:"" help:"Create a draft entry."`
		Save     journals.JournalSaveCmd     `cmd:"" help:"Save entry content."`
		Autosave journals.JournalAutoSaveCmd `cmd:"" help:"Save content without changing draft state."`
		Show     journals.JournalShowCmd     `cmd:"" help:"Show one entry."`
		List     journals.JournalListCmd     `cmd:"" help:"List entries, newest first." default:"1"`
		Search   journals.JournalSearchCmd   `cmd:"" help:"Search recent entries."`
		Range    journals.JournalRangeCmd    `cmd:"" help:"List entries created within a range of days."`
		Title    journals.JournalTitleCmd    `cmd:"" help:"Rename an entry."`
		Prompt   journals.JournalPromptCmd   `cmd:"" help:"Change an entry's prompt."`
		Tags     journals.JournalTagsCmd     `cmd:"" help:"Replace an entry's tags."`
		Delete   journals.JournalDeleteCmd   `cmd:"" help:"Delete an entry."`
		Export   journals.JournalExportCmd   `cmd:"" help:"Export all entries."`
	} `cmd:"" help:"Manage journal entries."`
	Journey activity.JourneyCmd `cmd:"" help:"Show recent activity day by day."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

// commands that manage their own storage lifecycle or never touch it
var skipLoad = map[string]bool{
	"init":    true,
	"doctor":  true,
	"token":   true,
	"keyring": true,
	"apikey":  true,
}

// commands followed by an automatic snapshot
var snapshotAfter = map[string]bool{
	"journal delete": true,
	"migrate":        true,
}

func commandKey(command string) (string, string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", ""
	}
	key := fields[0]
	if len(fields) > 1 && !strings.HasPrefix(fields[1], "<") {
		return key, key + " " + fields[1]
	}
	return key, key
}

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		ierrors.Fatalf("failed to resolve home directory: %v", err)
	}
	serverConfig := storage.ExpandHome(constants.DefaultServerConfig, home)

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Wellness activity ledger: sessions, streaks and journals"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":       constants.Version,
			"config":        constants.DefaultConfigPath,
			"user":          cli.DefaultUser(),
			"server_config": serverConfig,
			"gemini_model":  constants.DefaultGeminiModel,
			"journal_title": constants.DefaultJournalTitle,
		},
	)

	top, sub := commandKey(ctx.Command())
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: serverConfig,
		Stderr:    top == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.OpenStore(CLI.Config, home)
	if err != nil {
		ierrors.Fatal(err)
	}
	defer store.Close()

	if !skipLoad[top] {
		if err := store.Load(); err != nil {
			store.Close()
			ierrors.Fatal(err)
		}
	}

	appCtx := cli.NewContext(store)
	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		ierrors.Fatal(err)
	}
	if snapshotAfter[sub] {
		appCtx.PerformAutomaticBackup()
	}
}
