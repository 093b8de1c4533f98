package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridline/gridline/internal/raceday/config"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single fetch/normalize/persist cycle and exit",
		Long: `Sync authenticates against the remote racing service, fetches the race
guide and reference catalogs, normalizes the schedule, and persists it to
the race store. Useful for cron-style operation and for verifying a
deployment without starting the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}
}

func runSync(ctx context.Context) error {
	if err := config.LoadConfig(configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.store.Close()

	stats, cycleErr := p.svc.RunCycle(ctx)
	if cycleErr != nil {
		if jsonOutput {
			printJSON(map[string]string{"error": cycleErr.Error()})
			return ErrAlreadyHandled
		}
		errorLabel.Printf("sync failed: %v\n", cycleErr)
		return ErrAlreadyHandled
	}

	if jsonOutput {
		printJSON(map[string]any{
			"fetched":  stats.Fetched,
			"joinable": stats.Joinable,
			"stored":   stats.Stored,
			"pruned":   stats.Pruned,
			"degraded": stats.Degraded,
		})
		return nil
	}

	okLabel.Println("sync complete")
	fmt.Printf("  fetched:  %d\n", stats.Fetched)
	fmt.Printf("  joinable: %d\n", stats.Joinable)
	fmt.Printf("  stored:   %d\n", stats.Stored)
	fmt.Printf("  pruned:   %d\n", stats.Pruned)
	if stats.Degraded {
		errorLabel.Println("  one or more catalogs failed; sentinel values were used")
	}
	return nil
}
