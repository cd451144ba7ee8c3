package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/review"
)

// The attribution line has the fixed shape
// "Review by {author} on {day} {month-name} {year}".
var dateAuthorExpr = regexp.MustCompile(`^Review by (.+?) on (\d{1,2} \w+ \d{4})`)

// englishMonths resolves month names from the attribution line. Month names
// are only emitted in English, which is why the console must be switched to
// English before scraping.
var englishMonths = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// blockDateAuthor parses the review date and author name from the block's
// attribution line. Any deviation from the expected shape logs a warning
// and yields unset for both fields.
func blockDateAuthor(block *goquery.Selection) (*review.Date, *string) {
	line := block.Find(lineSelector).First()
	if line.Length() == 0 {
		return nil, nil
	}
	text := strings.TrimSpace(line.Text())

	m := dateAuthorExpr.FindStringSubmatch(text)
	if m == nil {
		zap.L().Warn("attribution line does not match the expected format; is the console language set to English?",
			zap.String("line", text))
		return nil, nil
	}

	author := strings.TrimSpace(m[1])
	date, err := parseEnglishDate(strings.TrimSpace(m[2]))
	if err != nil {
		zap.L().Warn("unparsable review date", zap.String("date", m[2]), zap.Error(err))
		return nil, nil
	}
	return &date, &author
}

// parseEnglishDate parses a "{day} {month-name} {year}" string using the
// English month-name table.
func parseEnglishDate(s string) (review.Date, error) {
	parts := strings.Split(s, " ")
	if len(parts) != 3 {
		return review.Date{}, eris.Errorf("extract: date %q does not have three parts", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return review.Date{}, eris.Wrapf(err, "extract: day in %q", s)
	}
	month, ok := englishMonths[strings.ToLower(parts[1])]
	if !ok {
		return review.Date{}, eris.Errorf("extract: invalid month name %q", parts[1])
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return review.Date{}, eris.Wrapf(err, "extract: year in %q", s)
	}

	return review.NewDate(year, month, day), nil
}

// parseRating coerces a star-rating attribute to an integer in [1,5].
func parseRating(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, eris.Wrapf(err, "extract: rating %q", raw)
	}
	if n < 1 || n > 5 {
		return 0, eris.Errorf("extract: rating %d outside [1,5]", n)
	}
	return n, nil
}
