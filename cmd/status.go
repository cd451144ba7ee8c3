package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zenement/reviews-cli/internal/ingest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show durable review counts per marketplace",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("status"); err != nil {
			return err
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		pipeline := ingest.New(pool, cfg.Ingest)
		counts, err := pipeline.Counts(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		var total int64
		fmt.Printf("%-12s %s\n", "MARKETPLACE", "REVIEWS")
		for _, c := range counts {
			label := c.Country
			if label == "" {
				label = "(unset)"
			}
			fmt.Printf("%-12s %d\n", label, c.Count)
			total += c.Count
		}
		fmt.Printf("%-12s %d\n", "TOTAL", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
