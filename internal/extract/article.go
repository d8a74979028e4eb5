package extract

import (
	"bytes"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"sjsage522/propertyscraper/helpers"
	"sjsage522/propertyscraper/internal/normalize"
	"sjsage522/propertyscraper/internal/record"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// previewLength bounds Article.ContentPreview, in runes
const previewLength = 200

var publishedDateChain = Chain{
	metaContent(`meta[property="article:published_time"]`),
	metaContent(`meta[name="date"]`),
	timeDatetime,
	Const(record.NotAvailable),
}

var articleCategoryChain = Chain{
	metaContent(`meta[property="article:section"]`),
	FirstText(".category"),
	Const("News"),
}

// ExtractArticle builds an article record from a page using readability for
// the title, byline and body, and page metadata for the date and section
func ExtractArticle(body []byte, pageURL string, scrapedAt time.Time) (*record.Article, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, apperrors.NewValidation("extractor", "invalid article URL "+pageURL)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeParseMiss, "extractor", "readability failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeParseMiss, "extractor", "failed to parse HTML", err)
	}

	title := normalize.CollapseSpace(article.Title)
	if title == "" {
		title = Chain{FirstText("h1"), FirstText("title"), Const(record.NotAvailable)}.Apply(doc)
	}
	author := normalize.CollapseSpace(article.Byline)
	if author == "" {
		author = record.NotAvailable
	}

	return &record.Article{
		ID:             helpers.ListingID(pageURL),
		Title:          title,
		Author:         author,
		PublishedDate:  publishedDateChain.Apply(doc),
		Category:       articleCategoryChain.Apply(doc),
		ContentPreview: preview(normalize.CollapseSpace(article.Excerpt)),
		URL:            pageURL,
		ScrapedAt:      scrapedAt,
	}, nil
}

func metaContent(selector string) Strategy {
	return func(doc *goquery.Document) string {
		content, _ := doc.Find(selector).First().Attr("content")
		return normalize.CollapseSpace(content)
	}
}

func timeDatetime(doc *goquery.Document) string {
	datetime, _ := doc.Find("time[datetime]").First().Attr("datetime")
	return normalize.CollapseSpace(datetime)
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
