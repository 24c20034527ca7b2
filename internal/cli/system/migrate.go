package system

import (
	"fmt"

	"github.com/julianstephens/innerlog/internal/cli"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	before, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if !before.Pending() {
		ctx.Println("No migrations to apply. Database is up to date.")
		return nil
	}

	// Init applies every pending migration for both drivers
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	after, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	ctx.Printf("Successfully applied %d migration(s). Schema version: %d\n", after.Current-before.Current, after.Current)
	return nil
}
