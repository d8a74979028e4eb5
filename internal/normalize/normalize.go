// Package normalize canonicalizes free-text fields scraped from listing pages.
package normalize

import (
	"regexp"
	"strings"

	"sjsage522/propertyscraper/internal/record"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// pricePatterns are tried in order; the first match wins. The order decides
// the result for text that carries more than one candidate amount.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)KSh\s*[\d,]+(?:\.\d{2})?(?:\s*/\s*month)?`),
	regexp.MustCompile(`(?i)USD\s*[\d,]+(?:\.\d{2})?(?:\s*/\s*month)?`),
	regexp.MustCompile(`(?i)[\d,]+(?:\.\d{2})?\s*(?:KSh|USD)(?:\s*/\s*month)?`),
}

var (
	reBedrooms  = regexp.MustCompile(`(?i)(\d+)\s*(?:bed|br)`)
	reBathrooms = regexp.MustCompile(`(?i)(\d+)\s*(?:bath|br)`)
	reArea      = regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s*sq\s*ft`)
	reMonthly   = regexp.MustCompile(`(?i)/\s*month$`)
	reFirstInt  = regexp.MustCompile(`\d+`)
)

// PropertyTypes is the ordered vocabulary matched against listing titles
var PropertyTypes = []string{"house", "villa", "townhouse", "apartment", "land", "office", "bedsitter"}

// DefaultPropertyType is used when no vocabulary word appears in the title
const DefaultPropertyType = "Property"

// Transaction types
const (
	TransactionRent = "Rent"
	TransactionSale = "Sale"
)

var propertyTypePatterns = compileVocabulary(PropertyTypes)

func compileVocabulary(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `s?\b`)
	}
	return out
}

// CollapseSpace trims s and collapses internal whitespace runs to one space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Price canonicalizes scraped price text. Empty input yields the
// "Price on request" sentinel; text with no recognizable amount is returned
// cleaned but otherwise unchanged.
func Price(text string) string {
	cleaned := CollapseSpace(text)
	if cleaned == "" {
		return record.PriceOnRequest
	}

	for _, re := range pricePatterns {
		if match := re.FindString(cleaned); match != "" {
			return match
		}
	}
	return cleaned
}

// Bedrooms extracts the bedroom count from a title, or "N/A"
func Bedrooms(title string) string {
	return firstGroup(reBedrooms, title)
}

// Bathrooms extracts the bathroom count from a title, or "N/A".
// The "br" token is shared with Bedrooms, so "3br" yields 3 for both.
func Bathrooms(title string) string {
	return firstGroup(reBathrooms, title)
}

// Area finds "<digits> sq ft" anywhere in the page text, or "N/A"
func Area(pageText string) string {
	m := reArea.FindStringSubmatch(pageText)
	if m == nil {
		return record.NotAvailable
	}
	return m[1] + " sq ft"
}

// PropertyType returns the capitalized first vocabulary word found in title
func PropertyType(title string) string {
	for i, re := range propertyTypePatterns {
		if re.MatchString(title) {
			return cases.Title(language.English).String(PropertyTypes[i])
		}
	}
	return DefaultPropertyType
}

// TransactionType is Rent when the title mentions rent or the canonical price
// is a monthly rate, Sale otherwise
func TransactionType(title, price string) string {
	if strings.Contains(strings.ToLower(title), "rent") || reMonthly.MatchString(price) {
		return TransactionRent
	}
	return TransactionSale
}

// PriceNumber parses the amount out of a canonical price string by dropping
// thousands separators and taking the first integer run. ok is false when
// the string carries no digits, e.g. the "Price on request" sentinel.
func PriceNumber(price string) (value float64, ok bool) {
	digits := reFirstInt.FindString(strings.ReplaceAll(price, ",", ""))
	if digits == "" {
		return 0, false
	}

	for _, r := range digits {
		value = value*10 + float64(r-'0')
	}
	return value, true
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return record.NotAvailable
	}
	return m[1]
}
