// Package marketplace enumerates the regional storefronts the scraper
// iterates and maps console display labels back to canonical country codes.
package marketplace

// Codes lists every supported marketplace in crawl order.
var Codes = []string{"ES", "UK", "FR", "DE", "NL", "IT", "SE", "PL"}

// names maps each canonical code to the English label shown in the seller
// console's account switcher.
var names = map[string]string{
	"ES": "Spain",
	"UK": "United Kingdom",
	"FR": "France",
	"DE": "Germany",
	"NL": "Netherlands",
	"IT": "Italy",
	"SE": "Sweden",
	"PL": "Poland",
}

// labelCodes resolves a display label to its canonical code regardless of
// the language the console currently renders in. English and Spanish are
// covered; other languages resolve to nothing and the page's country stays
// unset.
var labelCodes = map[string]string{
	"Spain":          "ES",
	"United Kingdom": "UK",
	"France":         "FR",
	"Germany":        "DE",
	"Netherlands":    "NL",
	"Italy":          "IT",
	"Sweden":         "SE",
	"Poland":         "PL",
	"España":         "ES",
	"Reino Unido":    "UK",
	"Francia":        "FR",
	"Alemania":       "DE",
	"Países Bajos":   "NL",
	"Italia":         "IT",
	"Suecia":         "SE",
	"Polonia":        "PL",
}

// Name returns the English display label for a marketplace code.
func Name(code string) (string, bool) {
	n, ok := names[code]
	return n, ok
}

// CodeForLabel resolves a console display label to its canonical
// 2-letter code.
func CodeForLabel(label string) (string, bool) {
	c, ok := labelCodes[label]
	return c, ok
}
