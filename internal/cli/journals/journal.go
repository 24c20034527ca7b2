package journals

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/ledger"
	"github.com/julianstephens/innerlog/internal/models"
)

type JournalNewCmd struct {
	cli.UserFlag
	Title  string   `help:"Entry title." default:"${journal_title}"`
	Prompt string   `help:"Writing prompt the entry answers."`
	Custom bool     `help:"Mark the prompt as written by the user."`
	Tags   []string `help:"Tags (spaces) for the entry." sep:","`
}

func (cmd *JournalNewCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Ledger.CreateJournal(context.Background(), ledger.NewJournal{
		UserID:         cmd.User,
		Title:          cmd.Title,
		Prompt:         cmd.Prompt,
		IsCustomPrompt: cmd.Custom,
	})
	if err != nil {
		return err
	}
	if len(cmd.Tags) > 0 {
		if entry, err = ctx.Ledger.UpdateTags(context.Background(), entry.ID, cmd.User, cmd.Tags); err != nil {
			return err
		}
	}
	ctx.Printf("✓ Created draft %q\n", entry.Title)
	ctx.Printf("  ID: %s\n", entry.ID)
	return nil
}

// ContentFlags are shared by save and autosave
type ContentFlags struct {
	Content string `help:"Entry content as JSON or plain text." xor:"source"`
	File    string `help:"Read content from a file, or '-' for stdin." short:"f" xor:"source"`
	Words   int    `help:"Word count. Counted from the content when zero."`
}

func (f *ContentFlags) read() (json.RawMessage, int, error) {
	content, err := cli.ReadContent(f.Content, f.File, os.Stdin)
	if err != nil {
		return nil, 0, err
	}
	words := f.Words
	if words <= 0 {
		words = cli.CountWords(content)
	}
	return content, words, nil
}

type JournalSaveCmd struct {
	cli.UserFlag
	ContentFlags
	ID      string `arg:"" help:"Journal entry ID."`
	Publish bool   `help:"Publish the entry. Publishing credits today's streak." xor:"draft"`
	Draft   bool   `help:"Move the entry back to drafts." xor:"draft"`
}

func (cmd *JournalSaveCmd) Run(ctx *cli.Context) error {
	content, words, err := cmd.read()
	if err != nil {
		return err
	}

	var isDraft *bool
	switch {
	case cmd.Publish:
		v := false
		isDraft = &v
	case cmd.Draft:
		v := true
		isDraft = &v
	}

	entry, err := ctx.Ledger.SaveContent(context.Background(), ledger.SaveContent{
		ID:        cmd.ID,
		UserID:    cmd.User,
		Content:   content,
		WordCount: words,
		IsDraft:   isDraft,
	})
	if err != nil {
		return err
	}

	state := "draft"
	if !entry.IsDraft {
		state = "published"
	}
	ctx.Printf("✓ Saved %q (%d words, %s)\n", entry.Title, entry.WordCount, state)
	return nil
}

type JournalAutoSaveCmd struct {
	cli.UserFlag
	ContentFlags
	ID string `arg:"" help:"Journal entry ID."`
}

func (cmd *JournalAutoSaveCmd) Run(ctx *cli.Context) error {
	content, words, err := cmd.read()
	if err != nil {
		return err
	}
	entry, err := ctx.Ledger.AutoSave(context.Background(), cmd.ID, cmd.User, content, words)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Autosaved %q (%d words)\n", entry.Title, entry.WordCount)
	return nil
}

type JournalShowCmd struct {
	cli.UserFlag
	ID   string `arg:"" help:"Journal entry ID."`
	JSON bool   `help:"Print JSON."`
}

func (cmd *JournalShowCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Ledger.GetJournal(context.Background(), cmd.ID, cmd.User)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return ctx.PrintJSON(entry)
	}

	ctx.Println(cli.TitleStyle.Render(entry.Title))
	ctx.Println(cli.MutedStyle.Render(fmt.Sprintf("%s · %d words · %s", entry.CreatedAt.Format("2006-01-02 15:04"), entry.WordCount, draftLabel(entry))))
	if entry.Prompt != "" {
		ctx.Printf("Prompt: %s\n", entry.Prompt)
	}
	if len(entry.Tags) > 0 {
		ctx.Println(renderTags(entry.Tags))
	}
	if len(entry.Content) > 0 {
		ctx.Println()
		ctx.Println(string(entry.Content))
	}
	return nil
}

type JournalListCmd struct {
	cli.UserFlag
	Limit    int  `help:"Maximum number of entries (1-200)." default:"50"`
	NoDrafts bool `help:"Hide drafts."`
	JSON     bool `help:"Print JSON."`
}

func (cmd *JournalListCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Ledger.ListJournals(context.Background(), cmd.User, cmd.Limit, !cmd.NoDrafts)
	if err != nil {
		return err
	}
	return printEntries(ctx, entries, cmd.JSON)
}

type JournalTitleCmd struct {
	cli.UserFlag
	ID    string `arg:"" help:"Journal entry ID."`
	Title string `arg:"" help:"New title."`
}

func (cmd *JournalTitleCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Ledger.UpdateTitle(context.Background(), cmd.ID, cmd.User, cmd.Title)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Renamed to %q\n", entry.Title)
	return nil
}

type JournalPromptCmd struct {
	cli.UserFlag
	ID     string `arg:"" help:"Journal entry ID."`
	Prompt string `arg:"" help:"New prompt. Empty clears it."`
	Custom bool   `help:"Mark the prompt as written by the user."`
}

func (cmd *JournalPromptCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Ledger.UpdatePrompt(context.Background(), cmd.ID, cmd.User, cmd.Prompt, cmd.Custom); err != nil {
		return err
	}
	ctx.Println("✓ Prompt updated")
	return nil
}

type JournalTagsCmd struct {
	cli.UserFlag
	ID   string   `arg:"" help:"Journal entry ID."`
	Tags []string `arg:"" optional:"" help:"Replacement tags. None clears them."`
}

func (cmd *JournalTagsCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Ledger.UpdateTags(context.Background(), cmd.ID, cmd.User, cmd.Tags)
	if err != nil {
		return err
	}
	if len(entry.Tags) == 0 {
		ctx.Println("✓ Tags cleared")
		return nil
	}
	ctx.Printf("✓ Tags: %s\n", renderTags(entry.Tags))
	for _, t := range entry.Tags {
		if !isKnownSpace(t) {
			ctx.Println(cli.MutedStyle.Render(fmt.Sprintf("  %q is not a built-in space; kept as a custom tag", t)))
		}
	}
	return nil
}

type JournalDeleteCmd struct {
	cli.UserFlag
	ID  string `arg:"" help:"Journal entry ID."`
	Yes bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (cmd *JournalDeleteCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Ledger.GetJournal(context.Background(), cmd.ID, cmd.User)
	if err != nil {
		return err
	}

	if !cmd.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q permanently?", entry.Title)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctx.Ledger.DeleteJournal(context.Background(), cmd.ID, cmd.User); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted %q\n", entry.Title)
	return nil
}

type JournalExportCmd struct {
	cli.UserFlag
	Format string `help:"Output format." enum:"json,yaml" default:"json"`
	Output string `help:"Write to a file instead of stdout." short:"o" type:"path"`
}

func (cmd *JournalExportCmd) Run(ctx *cli.Context) error {
	w := ctx.Stdout()
	if cmd.Output != "" {
		f, err := os.Create(cmd.Output)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := ctx.Ledger.ExportJournals(context.Background(), cmd.User, ledger.ExportFormat(cmd.Format), w)
	if err != nil {
		return err
	}
	if cmd.Output != "" {
		ctx.Printf("✓ Exported %d journal(s) to %s\n", n, cmd.Output)
	}
	return nil
}

func draftLabel(e models.JournalEntry) string {
	if e.IsDraft {
		return "draft"
	}
	return "published"
}

func renderTags(tags []string) string {
	rendered := make([]string, 0, len(tags))
	for _, t := range tags {
		rendered = append(rendered, cli.TagStyle.Render(t))
	}
	return strings.Join(rendered, " ")
}

func isKnownSpace(tag string) bool {
	for _, s := range constants.Spaces {
		if s == tag {
			return true
		}
	}
	return false
}

func printEntries(ctx *cli.Context, entries []models.JournalEntry, asJSON bool) error {
	if asJSON {
		return ctx.PrintJSON(entries)
	}
	if len(entries) == 0 {
		ctx.Println("No journal entries found.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-36s  %s", e.CreatedAt.Format("2006-01-02"), e.ID, e.Title)
		if e.IsDraft {
			line += " " + cli.MutedStyle.Render("(draft)")
		}
		ctx.Println(line)
	}
	ctx.Printf("\n%d entr%s\n", len(entries), plural(len(entries)))
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
