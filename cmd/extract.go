package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/extract"
	"github.com/zenement/reviews-cli/internal/review"
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract reviews from saved .html/.mhtml page captures",
	Long: `Parses locally saved results pages (full .html markup or browser
.mhtml captures) and appends the extracted reviews to the fallback file, so
they can be uploaded with 'reviews-cli retry' without a live session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		appendTo, _ := cmd.Flags().GetBool("append")

		var all []review.Review
		if appendTo {
			if existing, err := review.LoadFile(cfg.Fallback.Path); err == nil {
				all = existing
			}
		}

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "extract: read %s", path)
			}

			var reviews []review.Review
			if strings.HasSuffix(strings.ToLower(path), ".mhtml") {
				reviews, err = extract.ParseMHTML(data)
			} else {
				reviews, err = extract.Parse(string(data))
			}
			if err != nil {
				return eris.Wrapf(err, "extract: parse %s", path)
			}

			zap.L().Info("extracted file",
				zap.String("path", path),
				zap.Int("reviews", len(reviews)),
			)
			all = append(all, reviews...)
		}

		if err := review.SaveFile(cfg.Fallback.Path, all); err != nil {
			return eris.Wrap(err, "extract: write fallback file")
		}

		fmt.Printf("Wrote %d reviews to %s.\n", len(all), cfg.Fallback.Path)
		return nil
	},
}

func init() {
	extractCmd.Flags().Bool("append", true, "append to the existing fallback file instead of replacing it")
	rootCmd.AddCommand(extractCmd)
}
