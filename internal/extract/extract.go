// Package extract turns rendered seller-console markup into review records.
// Every field is parsed defensively: a missing or malformed sub-element
// degrades to an unset field instead of failing the block or the page.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/marketplace"
	"github.com/zenement/reviews-cli/internal/review"
)

// ErrNoContent is returned when the input markup has no renderable page
// body at all. It is the only error Parse produces for well-formed but
// empty pages; zero review blocks is not an error.
var ErrNoContent = eris.New("extract: markup has no page body")

// Selectors for the fixed structural signature of a results page. The
// console emits stable utility-class names per element, so these double as
// version markers: when the console restyles, extraction degrades to unset
// fields rather than wrong ones.
const (
	countrySelector = "button.partner-dropdown-button"
	blockSelector   = "div.reviewContainer.css-1d1jdxb.eihx8d30"
	infoSelector    = "div.css-yyccc7.e1d0wyfb3"
	lineSelector    = "span.css-g7g1lz"
	titleSelector   = "div.css-bf47do.eihx8d31"
	bodySelector    = "div.css-tks6au.eihx8d34"
	ratingSelector  = "kat-star-rating.reviewRating"
	linkSelector    = "kat-link.css-1sowyjy"
)

// Parse extracts all review records from one rendered results page, in
// document order. Pages with zero review blocks yield an empty slice and
// no error.
func Parse(html string) ([]review.Review, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrNoContent
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse markup")
	}

	body := doc.Find("body").First()
	if body.Length() == 0 || (body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == "") {
		return nil, ErrNoContent
	}

	country := pageCountry(doc)
	scrapedOn := review.Today()

	var reviews []review.Review
	doc.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		date, author := blockDateAuthor(block)
		title := blockTitle(block)

		r := review.Review{
			ID:         review.ComputeID(author, title, date),
			Country:    country,
			ASIN:       blockASIN(block),
			Brand:      blockBrand(block),
			ReviewDate: date,
			Author:     author,
			Title:      title,
			Body:       blockBody(block),
			Rating:     blockRating(block),
			URL:        blockURL(block),
			ScrapedOn:  scrapedOn,
		}
		reviews = append(reviews, r)
	})

	return reviews, nil
}

// pageCountry reads the marketplace indicator from the header button. The
// button text has the shape "Brand | Country"; the label after the last
// pipe resolves through the marketplace lookup in whichever display
// language the console renders. Missing or unmapped labels leave the
// page's country unset.
func pageCountry(doc *goquery.Document) *string {
	btn := doc.Find(countrySelector).First()
	if btn.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(btn.Text())
	parts := strings.Split(text, "|")
	label := strings.TrimSpace(parts[len(parts)-1])

	code, ok := marketplace.CodeForLabel(label)
	if !ok {
		zap.L().Warn("unmapped marketplace label", zap.String("label", label))
		return nil
	}
	return &code
}

// blockASIN parses the product identifier from the id attribute of the
// block's heading; the attribute is "{asin}-{suffix}" and the first
// segment is the ASIN.
func blockASIN(block *goquery.Selection) *string {
	id, ok := block.Find("h5[id]").First().Attr("id")
	if !ok {
		return nil
	}
	asin := strings.SplitN(id, "-", 2)[0]
	if asin == "" {
		return nil
	}
	return &asin
}

// blockBrand reads the brand from the fourth of the four informational
// sub-elements next to the product image (parent ASIN, child ASIN, product
// star rating, brand); the value sits in the element's second nested div.
func blockBrand(block *goquery.Selection) *string {
	divs := block.Find(infoSelector)
	if divs.Length() < 4 {
		return nil
	}
	inner := divs.Eq(3).Find("div")
	if inner.Length() < 2 {
		return nil
	}
	brand := strings.TrimSpace(inner.Eq(1).Text())
	if brand == "" {
		return nil
	}
	return &brand
}

func blockTitle(block *goquery.Selection) *string {
	b := block.Find(titleSelector).First().Find("b").First()
	if b.Length() == 0 {
		return nil
	}
	title := strings.TrimSpace(b.Text())
	if title == "" {
		return nil
	}
	return &title
}

func blockBody(block *goquery.Selection) *string {
	div := block.Find(bodySelector).First()
	if div.Length() == 0 {
		return nil
	}
	body := strings.TrimSpace(div.Text())
	if body == "" {
		return nil
	}
	return &body
}

// blockRating reads the integer value attribute of the star-rating element.
// Non-numeric or out-of-range values resolve to unset.
func blockRating(block *goquery.Selection) *int {
	raw, ok := block.Find(ratingSelector).First().Attr("value")
	if !ok {
		return nil
	}
	n, err := parseRating(raw)
	if err != nil {
		zap.L().Warn("unparsable rating value", zap.String("value", raw))
		return nil
	}
	return &n
}

func blockURL(block *goquery.Selection) *string {
	href, ok := block.Find(linkSelector).First().Attr("href")
	if !ok || href == "" {
		return nil
	}
	return &href
}
