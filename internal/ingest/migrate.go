package ingest

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/zenement/reviews-cli/internal/db"
)

const durableSchema = `
CREATE TABLE IF NOT EXISTS %s (
	review_id   TEXT PRIMARY KEY,
	country     TEXT,
	asin        TEXT,
	brand       TEXT,
	review_date DATE,
	author      TEXT,
	verified    BOOLEAN NOT NULL,
	helpful     BOOLEAN NOT NULL,
	title       TEXT,
	body        TEXT,
	rating      SMALLINT,
	url         TEXT,
	scraped_on  DATE NOT NULL
)`

const stagingSchema = `
CREATE TABLE IF NOT EXISTS %s (
	ordinal     BIGINT NOT NULL,
	review_id   TEXT NOT NULL,
	country     TEXT,
	asin        TEXT,
	brand       TEXT,
	review_date DATE,
	author      TEXT,
	verified    BOOLEAN,
	helpful     BOOLEAN,
	title       TEXT,
	body        TEXT,
	rating      SMALLINT,
	url         TEXT,
	scraped_on  DATE NOT NULL
)`

// Migrate creates the durable and staging tables if they do not exist. The
// staging table has no primary key: it is wholesale-replaced on every run
// and may legitimately hold duplicate review_ids before the merge
// deduplicates them.
func (p *Pipeline) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(durableSchema, db.SanitizeTable(p.cfg.Table)),
		fmt.Sprintf(stagingSchema, db.SanitizeTable(p.cfg.StagingTable)),
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "ingest: migrate")
		}
	}
	return nil
}

// MarketplaceCount is one row of the per-marketplace durable table summary.
type MarketplaceCount struct {
	Country string
	Count   int64
}

// Counts returns durable row counts grouped by marketplace country. Rows
// with an unset country group under the empty string.
func (p *Pipeline) Counts(ctx context.Context) ([]MarketplaceCount, error) {
	sql := fmt.Sprintf(
		`SELECT COALESCE("country", ''), COUNT(*) FROM %s GROUP BY 1 ORDER BY 1`,
		db.SanitizeTable(p.cfg.Table),
	)

	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: count %s", p.cfg.Table)
	}
	defer rows.Close()

	var counts []MarketplaceCount
	for rows.Next() {
		var c MarketplaceCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, eris.Wrap(err, "ingest: scan count row")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: iterate count rows")
	}
	return counts, nil
}
