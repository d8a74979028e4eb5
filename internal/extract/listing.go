package extract

import (
	"bytes"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/propertyscraper/helpers"
	"sjsage522/propertyscraper/internal/normalize"
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// MaxImages is the number of image elements inspected per page
const MaxImages = 5

// ImageExtensions are the raster formats kept by image collection
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

var (
	rePriceClass    = regexp.MustCompile(`(?i)price|cost|amount`)
	reCurrencyText  = regexp.MustCompile(`(?i)KSh|USD|\$`)
	reLocationClass = regexp.MustCompile(`(?i)location|address|area`)
)

// RawFields holds un-normalized values pulled from one listing page
type RawFields struct {
	URL       string
	Title     string
	PriceText string
	Location  string
	PageText  string
	Images    []string
}

// ListingExtractor extracts listing fields from HTML pages
type ListingExtractor struct {
	BaseURL string

	TitleChain    Chain
	PriceChain    Chain
	LocationChain Chain
}

// NewListingExtractor creates an extractor with the default chains:
// heading then document title for the title, a price-like class then the
// first currency-bearing text for the price, a location-like class for the
// location.
func NewListingExtractor(baseURL string) *ListingExtractor {
	return &ListingExtractor{
		BaseURL:       baseURL,
		TitleChain:    Chain{FirstText("h1"), FirstText("title"), Const(record.NotAvailable)},
		PriceChain:    Chain{ClassMatch(rePriceClass), TextNodeParent(reCurrencyText)},
		LocationChain: Chain{ClassMatch(reLocationClass), Const(record.NotAvailable)},
	}
}

// Extract parses body and runs every field chain
func (e *ListingExtractor) Extract(body []byte, sourceURL string) (*RawFields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeParseMiss, "extractor", "failed to parse HTML", err)
	}

	raw := &RawFields{
		URL:       sourceURL,
		Title:     e.TitleChain.Apply(doc),
		PriceText: e.PriceChain.Apply(doc),
		Location:  e.LocationChain.Apply(doc),
		PageText:  doc.Text(),
		Images:    e.Images(doc),
	}

	log := logger.ForExtractor()
	if raw.PriceText == "" {
		log.Debug().Err(apperrors.NewParseMiss("extractor", "price")).Str("url", sourceURL).Msg("price not found")
	}
	if raw.Location == record.NotAvailable {
		log.Debug().Err(apperrors.NewParseMiss("extractor", "location")).Str("url", sourceURL).Msg("location not found")
	}
	return raw, nil
}

// Images returns absolute raster image URLs from the first MaxImages img
// elements, preferring src over data-src
func (e *ListingExtractor) Images(doc *goquery.Document) []string {
	var images []string
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= MaxImages {
			return false
		}
		src, _ := s.Attr("src")
		if src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			return true
		}

		src = helpers.ResolveURL(e.BaseURL, src)
		if helpers.HasExtension(src, ImageExtensions...) {
			images = append(images, src)
		}
		return true
	})
	return images
}

// BuildListing normalizes raw fields into a listing record
func BuildListing(raw *RawFields, scrapedAt time.Time) *record.Listing {
	price := normalize.Price(raw.PriceText)
	return &record.Listing{
		ID:              helpers.ListingID(raw.URL),
		Title:           raw.Title,
		Price:           price,
		Location:        raw.Location,
		Bedrooms:        normalize.Bedrooms(raw.Title),
		Bathrooms:       normalize.Bathrooms(raw.Title),
		Area:            normalize.Area(raw.PageText),
		PropertyType:    normalize.PropertyType(raw.Title),
		TransactionType: normalize.TransactionType(raw.Title, price),
		URL:             raw.URL,
		ScrapedAt:       scrapedAt,
	}
}
