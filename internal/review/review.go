// Package review defines the canonical customer-review record, its
// deterministic identity, and its flat serialized form.
package review

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// unsetToken stands in for an unset input when hashing, so that unset fields
// hash distinctly from any real value and from each other's positions.
const unsetToken = "<unset>"

// Review is one extracted customer review. All fields except ID and
// ScrapedOn are optional because the source pages frequently omit them.
// A Review is never mutated after construction.
type Review struct {
	ID         string
	Country    *string
	ASIN       *string
	Brand      *string
	ReviewDate *Date
	Author     *string
	Verified   *bool
	Helpful    *bool
	Title      *string
	Body       *string
	Rating     *int
	URL        *string
	ScrapedOn  Date
}

// ComputeID derives the deterministic review identity from the
// (author, title, review date) triple. Two reviews with an identical triple
// collide on purpose: a later capture of the same review overwrites the
// earlier one instead of duplicating it.
func ComputeID(author, title *string, reviewDate *Date) string {
	a, t, d := unsetToken, unsetToken, unsetToken
	if author != nil {
		a = *author
	}
	if title != nil {
		t = *title
	}
	if reviewDate != nil {
		d = reviewDate.String()
	}
	sum := sha256.Sum256([]byte(a + "_" + t + "_" + d))
	return hex.EncodeToString(sum[:])
}

// MalformedRecordError reports a serialized field that could not be coerced
// back to its declared type.
type MalformedRecordError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("review: malformed field %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Fields serializes the review to a flat key/value mapping. Dates render as
// YYYY-MM-DD, tri-state booleans as "true"/"false" or absent, and unset
// fields are omitted entirely. This is the only externally visible
// representation of a Review.
func (r Review) Fields() map[string]string {
	m := map[string]string{
		"review_id":  r.ID,
		"scraped_on": r.ScrapedOn.String(),
	}
	putString(m, "country", r.Country)
	putString(m, "asin", r.ASIN)
	putString(m, "brand", r.Brand)
	putString(m, "author", r.Author)
	putString(m, "title", r.Title)
	putString(m, "body", r.Body)
	putString(m, "url", r.URL)
	if r.ReviewDate != nil {
		m["review_date"] = r.ReviewDate.String()
	}
	if r.Verified != nil {
		m["verified"] = strconv.FormatBool(*r.Verified)
	}
	if r.Helpful != nil {
		m["helpful"] = strconv.FormatBool(*r.Helpful)
	}
	if r.Rating != nil {
		m["rating"] = strconv.Itoa(*r.Rating)
	}
	return m
}

// FromFields deserializes a flat mapping produced by Fields. It returns a
// *MalformedRecordError when a value cannot be coerced to its declared type.
func FromFields(m map[string]string) (Review, error) {
	r := Review{ID: m["review_id"]}

	r.Country = getString(m, "country")
	r.ASIN = getString(m, "asin")
	r.Brand = getString(m, "brand")
	r.Author = getString(m, "author")
	r.Title = getString(m, "title")
	r.Body = getString(m, "body")
	r.URL = getString(m, "url")

	if v, ok := m["review_date"]; ok {
		d, err := ParseDate(v)
		if err != nil {
			return Review{}, &MalformedRecordError{Field: "review_date", Value: v, Err: err}
		}
		r.ReviewDate = &d
	}
	if v, ok := m["scraped_on"]; ok {
		d, err := ParseDate(v)
		if err != nil {
			return Review{}, &MalformedRecordError{Field: "scraped_on", Value: v, Err: err}
		}
		r.ScrapedOn = d
	}
	if v, ok := m["verified"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Review{}, &MalformedRecordError{Field: "verified", Value: v, Err: err}
		}
		r.Verified = &b
	}
	if v, ok := m["helpful"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Review{}, &MalformedRecordError{Field: "helpful", Value: v, Err: err}
		}
		r.Helpful = &b
	}
	if v, ok := m["rating"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Review{}, &MalformedRecordError{Field: "rating", Value: v, Err: err}
		}
		r.Rating = &n
	}

	return r, nil
}

func putString(m map[string]string, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func getString(m map[string]string, key string) *string {
	if v, ok := m[key]; ok {
		return &v
	}
	return nil
}
