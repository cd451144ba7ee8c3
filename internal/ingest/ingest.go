// Package ingest lands accumulated review records in the warehouse via a
// staged load followed by a deduplicating merge-upsert.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/db"
	"github.com/zenement/reviews-cli/internal/review"
)

// columns is the shared column order for the staging and durable tables.
// The staging table carries an extra leading ordinal column that preserves
// input order for deterministic dedup tie-breaking.
var columns = []string{
	"review_id", "country", "asin", "brand", "review_date", "author",
	"verified", "helpful", "title", "body", "rating", "url", "scraped_on",
}

// mergeUpdateColumns are the columns overwritten when a durable row already
// exists for a review_id. verified and helpful are deliberately absent:
// once a row exists those two keep their first-written values.
var mergeUpdateColumns = []string{
	"country", "asin", "brand", "review_date", "author",
	"title", "body", "rating", "url", "scraped_on",
}

// Config holds the warehouse table names and the boolean defaults applied
// when an unset tri-state flag must become two-valued at insert time.
type Config struct {
	Table           string `yaml:"table" mapstructure:"table"`
	StagingTable    string `yaml:"staging_table" mapstructure:"staging_table"`
	DefaultVerified bool   `yaml:"default_verified" mapstructure:"default_verified"`
	DefaultHelpful  bool   `yaml:"default_helpful" mapstructure:"default_helpful"`
}

// Pipeline performs the two-phase stage + merge protocol.
type Pipeline struct {
	pool db.Pool
	cfg  Config
}

// New creates a Pipeline on the given pool.
func New(pool db.Pool, cfg Config) *Pipeline {
	if cfg.Table == "" {
		cfg.Table = "reviews"
	}
	if cfg.StagingTable == "" {
		cfg.StagingTable = "staging_reviews"
	}
	return &Pipeline{pool: pool, cfg: cfg}
}

// Run stages the full review set and merges it into the durable table.
// Errors are wrapped and returned; the caller decides whether to fall back
// to local persistence.
func (p *Pipeline) Run(ctx context.Context, reviews []review.Review) error {
	if err := p.Stage(ctx, reviews); err != nil {
		return err
	}
	if err := p.Merge(ctx); err != nil {
		return err
	}
	return nil
}

// Stage wholesale-replaces the staging table contents with the given
// review set (truncate-then-load). Each row carries its input ordinal.
func (p *Pipeline) Stage(ctx context.Context, reviews []review.Review) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "ingest: stage: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE "+db.SanitizeTable(p.cfg.StagingTable)); err != nil {
		return eris.Wrapf(err, "ingest: stage: truncate %s", p.cfg.StagingTable)
	}

	rows := make([][]any, 0, len(reviews))
	for i, r := range reviews {
		rows = append(rows, stagingRow(i, r))
	}

	copyCols := append([]string{"ordinal"}, columns...)
	n, err := tx.CopyFrom(ctx, db.TableIdentifier(p.cfg.StagingTable), copyCols, pgx.CopyFromRows(rows))
	if err != nil {
		return eris.Wrapf(err, "ingest: stage: COPY into %s", p.cfg.StagingTable)
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "ingest: stage: commit tx")
	}

	zap.L().Info("staged review set",
		zap.Int64("rows", n),
		zap.String("table", p.cfg.StagingTable),
	)
	return nil
}

// Merge reconciles the staging table into the durable table: the staging
// set is deduplicated per review_id keeping the most recently captured row
// (earliest input ordinal breaks ties), then upserted. Running Stage+Merge
// twice with the same input converges to the same durable contents.
func (p *Pipeline) Merge(ctx context.Context) error {
	tag, err := p.pool.Exec(ctx, p.mergeSQL(), p.cfg.DefaultVerified, p.cfg.DefaultHelpful)
	if err != nil {
		return eris.Wrapf(err, "ingest: merge into %s", p.cfg.Table)
	}

	zap.L().Info("merged staging into durable table",
		zap.Int64("rows", tag.RowsAffected()),
		zap.String("table", p.cfg.Table),
	)
	return nil
}

// mergeSQL builds the deduplicating upsert statement. Unset verified and
// helpful flags coerce to the configured defaults at insert time; on
// conflict neither flag is updated.
func (p *Pipeline) mergeSQL() string {
	selectCols := []string{
		`"review_id"`, `"country"`, `"asin"`, `"brand"`, `"review_date"`, `"author"`,
		`COALESCE("verified", $1)`, `COALESCE("helpful", $2)`,
		`"title"`, `"body"`, `"rating"`, `"url"`, `"scraped_on"`,
	}

	setClauses := make([]string, 0, len(mergeUpdateColumns))
	for _, col := range mergeUpdateColumns {
		q := pgx.Identifier{col}.Sanitize()
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}

	return fmt.Sprintf(
		`INSERT INTO %s (%s) SELECT DISTINCT ON ("review_id") %s FROM %s ORDER BY "review_id", "scraped_on" DESC, "ordinal" ASC ON CONFLICT ("review_id") DO UPDATE SET %s`,
		db.SanitizeTable(p.cfg.Table),
		db.QuoteAndJoin(columns),
		strings.Join(selectCols, ", "),
		db.SanitizeTable(p.cfg.StagingTable),
		strings.Join(setClauses, ", "),
	)
}

// stagingRow converts a review to its staging-table row. Unset fields map
// to NULL; dates map to midnight-UTC timestamps for DATE columns.
func stagingRow(ordinal int, r review.Review) []any {
	return []any{
		int64(ordinal),
		r.ID,
		ptrVal(r.Country),
		ptrVal(r.ASIN),
		ptrVal(r.Brand),
		dateVal(r.ReviewDate),
		ptrVal(r.Author),
		ptrVal(r.Verified),
		ptrVal(r.Helpful),
		ptrVal(r.Title),
		ptrVal(r.Body),
		ptrVal(r.Rating),
		ptrVal(r.URL),
		r.ScrapedOn.Time(),
	}
}

func ptrVal[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func dateVal(d *review.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}
