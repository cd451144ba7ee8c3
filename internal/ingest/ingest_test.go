package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenement/reviews-cli/internal/review"
)

func newMockPipeline(t *testing.T, cfg Config) (*Pipeline, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, cfg), mock
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func sampleReview() review.Review {
	date := review.NewDate(2023, 3, 12)
	author, title := "Jane Doe", "Great product"
	return review.Review{
		ID:         review.ComputeID(&author, &title, &date),
		Country:    strPtr("ES"),
		ASIN:       strPtr("B0TESTASIN"),
		Brand:      strPtr("Zenement"),
		ReviewDate: &date,
		Author:     &author,
		Verified:   boolPtr(true),
		Title:      &title,
		Body:       strPtr("Body text."),
		Rating:     intPtr(5),
		URL:        strPtr("https://example.com/review"),
		ScrapedOn:  review.NewDate(2023, 3, 13),
	}
}

func TestStage(t *testing.T) {
	p, mock := newMockPipeline(t, Config{})

	copyCols := append([]string{"ordinal"}, columns...)
	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "staging_reviews"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"staging_reviews"}, copyCols).
		WillReturnResult(2)
	mock.ExpectCommit()
	mock.ExpectRollback()

	reviews := []review.Review{sampleReview(), sampleReview()}
	require.NoError(t, p.Stage(context.Background(), reviews))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStage_TruncateError(t *testing.T) {
	p, mock := newMockPipeline(t, Config{})

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "staging_reviews"`).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := p.Stage(context.Background(), []review.Review{sampleReview()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncate")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerge(t *testing.T) {
	p, mock := newMockPipeline(t, Config{DefaultVerified: false, DefaultHelpful: true})

	mock.ExpectExec(`INSERT INTO "reviews"`).
		WithArgs(false, true).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	require.NoError(t, p.Merge(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeSQL(t *testing.T) {
	p := New(nil, Config{Table: "reviews", StagingTable: "staging_reviews"})
	sql := p.mergeSQL()

	// Dedup keeps one row per identity, most recent capture first, input
	// order breaking ties.
	assert.Contains(t, sql, `SELECT DISTINCT ON ("review_id")`)
	assert.Contains(t, sql, `ORDER BY "review_id", "scraped_on" DESC, "ordinal" ASC`)

	// Unset flags coerce to the configured defaults at insert time.
	assert.Contains(t, sql, `COALESCE("verified", $1)`)
	assert.Contains(t, sql, `COALESCE("helpful", $2)`)

	// On conflict every content column is refreshed except the two flags.
	assert.Contains(t, sql, `ON CONFLICT ("review_id") DO UPDATE SET`)
	assert.Contains(t, sql, `"title" = EXCLUDED."title"`)
	assert.Contains(t, sql, `"scraped_on" = EXCLUDED."scraped_on"`)
	assert.NotContains(t, sql, `"verified" = EXCLUDED."verified"`)
	assert.NotContains(t, sql, `"helpful" = EXCLUDED."helpful"`)
}

func TestRun_StageFailureSkipsMerge(t *testing.T) {
	p, mock := newMockPipeline(t, Config{})

	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	err := p.Run(context.Background(), []review.Review{sampleReview()})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStagingRow(t *testing.T) {
	r := sampleReview()
	row := stagingRow(3, r)

	require.Len(t, row, len(columns)+1)
	assert.Equal(t, int64(3), row[0])
	assert.Equal(t, r.ID, row[1])
	assert.Equal(t, "ES", row[2])
	assert.Equal(t, r.ReviewDate.Time(), row[5])
	assert.Equal(t, true, row[7])
	assert.Equal(t, r.ScrapedOn.Time(), row[13])

	// Unset helpful flag lands as NULL, not false.
	assert.Nil(t, row[8])
}

func TestStagingRow_AllUnset(t *testing.T) {
	r := review.Review{
		ID:        review.ComputeID(nil, nil, nil),
		ScrapedOn: review.NewDate(2023, 3, 13),
	}
	row := stagingRow(0, r)

	for i := 2; i < 13; i++ {
		assert.Nil(t, row[i], "column %s", columns[i-1])
	}
}

func TestMigrate(t *testing.T) {
	p, mock := newMockPipeline(t, Config{})

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "reviews"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "staging_reviews"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, p.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounts(t *testing.T) {
	p, mock := newMockPipeline(t, Config{})

	rows := pgxmock.NewRows([]string{"country", "count"}).
		AddRow("", int64(1)).
		AddRow("ES", int64(40)).
		AddRow("FR", int64(12))
	mock.ExpectQuery(`SELECT COALESCE\("country", ''\), COUNT\(\*\) FROM "reviews"`).
		WillReturnRows(rows)

	counts, err := p.Counts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, MarketplaceCount{Country: "ES", Count: 40}, counts[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_Defaults(t *testing.T) {
	p := New(nil, Config{})
	assert.Equal(t, "reviews", p.cfg.Table)
	assert.Equal(t, "staging_reviews", p.cfg.StagingTable)
}
