package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/crawl"
	"github.com/zenement/reviews-cli/internal/ingest"
	"github.com/zenement/reviews-cli/internal/review"
	"github.com/zenement/reviews-cli/internal/webdriver"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl all marketplaces and load reviews into the warehouse",
	Long: `Opens a browser session against the configured WebDriver endpoint,
waits for the operator to log in to the seller console, then crawls the
brand customer reviews listing across every configured marketplace.

After the crawl, one sample review per marketplace is shown for a manual
accept/retry decision. On accept, the accumulated set is staged and merged
into the warehouse; on warehouse failure the set is written to the local
fallback file for a later 'reviews-cli retry'.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "scrape"))

		session := webdriver.New(cfg.Driver)
		if err := session.Start(ctx); err != nil {
			return eris.Wrap(err, "scrape: start browser session")
		}
		// Session teardown must run even when ingestion fails.
		defer func() {
			if err := session.Stop(context.WithoutCancel(ctx)); err != nil {
				log.Warn("session teardown failed", zap.Error(err))
			}
		}()

		if err := session.Navigate(ctx, cfg.Crawl.StartURL); err != nil {
			return eris.Wrap(err, "scrape: open seller console")
		}
		promptEnter("\n\nPlease log in and select any marketplace. Then press Enter to continue...")

		controller := crawl.New(session, cfg.Crawl.ControllerConfig())
		if err := controller.SelectEnglish(ctx); err != nil {
			log.Warn("could not switch console language to English; attribution lines may not parse", zap.Error(err))
		}

		reviews, err := crawlUntilAccepted(ctx, controller)
		if err != nil {
			return err
		}
		log.Info("extraction confirmed", zap.Int("reviews", len(reviews)))

		fmt.Println("Data extraction complete. Loading into the warehouse...")
		if err := ingestReviews(ctx, reviews); err != nil {
			log.Error("warehouse ingestion failed, writing fallback file", zap.Error(err))
			if saveErr := review.SaveFile(cfg.Fallback.Path, reviews); saveErr != nil {
				return eris.Wrap(saveErr, "scrape: fallback persistence")
			}
			fmt.Printf("Ingestion failed; data saved to %s. Run 'reviews-cli retry' to re-attempt the upload.\n", cfg.Fallback.Path)
			return nil
		}

		fmt.Println("Data uploaded successfully.")
		return nil
	},
}

// crawlUntilAccepted runs full multi-marketplace passes until the operator
// accepts the sampled output. A rejected pass discards everything collected
// and starts over.
func crawlUntilAccepted(ctx context.Context, controller *crawl.Controller) ([]review.Review, error) {
	for {
		result, err := controller.RunAll(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "scrape: crawl pass")
		}

		fmt.Printf("\nTotal reviews scraped: %d\n", len(result.Reviews))
		for code, sample := range result.Samples {
			fmt.Printf("Sample review from %s:\n  %v\n\n", code, sample.Fields())
		}

		if promptYesNo("Do you want to accept these reviews and continue?") {
			return result.Reviews, nil
		}
		fmt.Println("Retrying extraction for all marketplaces...")
	}
}

func ingestReviews(ctx context.Context, reviews []review.Review) error {
	pool, err := warehousePool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	pipeline := ingest.New(pool, cfg.Ingest)
	return pipeline.Run(ctx, reviews)
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
