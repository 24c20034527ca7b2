package constants

import "time"

const (
	AppName             = "innerlog"
	DefaultKeyringUser  = "database-connection"
	GeminiKeyringUser   = "gemini-api-key"
	DefaultConfigPath   = "~/.config/innerlog/innerlog.db"
	DefaultServerConfig = "~/.config/innerlog"
	Version             = "v0.3.0"

	// DateFormat is the UTC day key format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is how timestamps are stored as text. Fixed width so that
	// lexical order matches chronological order.
	TimestampFormat = "2006-01-02T15:04:05.000000000Z"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "innerlog-"
	BackupFileSuffix = ".db"

	// Server defaults
	DefaultPort              = "8080"
	DefaultGeminiModel       = "gemini-1.5-flash"
	DefaultFeedbackRateLimit = 5
	FeedbackRateWindow       = time.Minute
	FeedbackTimeout          = 20 * time.Second
)
