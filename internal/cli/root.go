package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/julianstephens/innerlog/internal/backup"
	"github.com/julianstephens/innerlog/internal/ledger"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/storage"
	"github.com/julianstephens/innerlog/internal/storage/sqlite"
	"github.com/julianstephens/innerlog/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Ledger *ledger.Ledger
	// Out receives command output; nil means stdout
	Out io.Writer
}

func NewContext(store storage.Provider) *Context {
	return &Context{
		Store:  store,
		Ledger: ledger.New(store),
	}
}

// Stdout returns the writer commands print to
func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes formatted output to the command writer
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

// Println writes a line to the command writer
func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Stdout(), args...)
}

// PrintJSON writes v as indented JSON
func (c *Context) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(c.Stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SQLite returns the underlying SQLite store, or nil for other providers
func (c *Context) SQLite() *sqlite.Store {
	s, _ := c.Store.(*sqlite.Store)
	return s
}

// PerformAutomaticBackup creates a snapshot of a SQLite ledger and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if c.SQLite() == nil {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// UserFlag is embedded by every command that acts on behalf of one user
type UserFlag struct {
	User string `help:"User id to act as." short:"u" env:"INNERLOG_USER" default:"${user}"`
}

// DefaultUser is the login name of the current OS user, used as the default --user
func DefaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "local"
}

// ParseDate accepts a YYYY-MM-DD day key, "today" or "yesterday"
func ParseDate(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return utils.DayKey(now), nil
	case "yesterday":
		return utils.PreviousDayKey(now), nil
	}
	if !utils.ValidDayKey(s) {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD, 'today' or 'yesterday')", s)
	}
	return s, nil
}

// ReadContent resolves journal content from an inline string, a file, or stdin ("-").
// Plain text that is not JSON is wrapped as a JSON string.
func ReadContent(inline, file string, stdin io.Reader) (json.RawMessage, error) {
	var raw []byte
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("use either --content or --file, not both")
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read content file: %w", err)
		}
		raw = b
	default:
		raw = []byte(inline)
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	quoted, err := json.Marshal(trimmed)
	if err != nil {
		return nil, err
	}
	return quoted, nil
}

// CountWords counts whitespace-separated words in the text of content
func CountWords(content json.RawMessage) int {
	if len(content) == 0 {
		return 0
	}
	var v interface{}
	if err := json.Unmarshal(content, &v); err != nil {
		return 0
	}
	return countWords(v)
}

func countWords(v interface{}) int {
	switch t := v.(type) {
	case string:
		return len(strings.Fields(t))
	case []interface{}:
		n := 0
		for _, item := range t {
			n += countWords(item)
		}
		return n
	case map[string]interface{}:
		n := 0
		for _, item := range t {
			n += countWords(item)
		}
		return n
	default:
		return 0
	}
}
