package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/review"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-attempt warehouse upload from the local fallback file",
	Long: `Reads the review set written to the fallback file by a failed scrape
run and re-attempts the staged load and merge. The fallback file is left in
place so the command stays safely re-runnable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("retry"); err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "retry"))

		reviews, err := review.LoadFile(cfg.Fallback.Path)
		if err != nil {
			return eris.Wrap(err, "retry: load fallback file")
		}
		log.Info("loaded fallback file",
			zap.String("path", cfg.Fallback.Path),
			zap.Int("reviews", len(reviews)),
		)

		if err := ingestReviews(ctx, reviews); err != nil {
			return eris.Wrap(err, "retry: upload")
		}

		fmt.Println("Data uploaded successfully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
