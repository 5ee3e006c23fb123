package movies

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"movie-notifier/models"
	"movie-notifier/utils"
)

// Labels the detail page uses on its attribute list. The site is Arabic;
// the markers are matched by substring against each list entry's text.
const (
	releaseDateLabel = "موعد الصدور :"
	qualityLabel     = "جودة الفيلم :"
)

// Detail page structure for the fields we extract.
const (
	storySelector  = "div.story p"
	ratingSelector = "div.imdbS"
)

// Enricher scrapes the supplementary attributes from a movie's detail
// page.
type Enricher struct {
	fetcher *Fetcher
	logger  *utils.Logger
}

// NewEnricher creates an Enricher using the given fetcher.
func NewEnricher(fetcher *Fetcher, logger *utils.Logger) *Enricher {
	return &Enricher{fetcher: fetcher, logger: logger}
}

// Enrich fetches url and extracts the detail attributes. It never fails
// outward: on any fetch or extraction problem the zero-value details
// are returned, so a broken detail page cannot block reporting the
// listing item itself. Missing fields stay empty and are substituted
// with placeholders at render time.
func (e *Enricher) Enrich(ctx context.Context, url string) *models.MovieDetails {
	details := &models.MovieDetails{}

	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.logger.Warn("[details] fetch %s failed: %v", url, err)
		return details
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		e.logger.Warn("[details] parse %s failed: %v", url, err)
		return details
	}

	details.Story = strings.TrimSpace(doc.Find(storySelector).First().Text())
	details.ReleaseYear = labeledValue(doc, releaseDateLabel)
	details.Quality = labeledValue(doc, qualityLabel)

	if rating := doc.Find(ratingSelector).First(); rating.Length() > 0 {
		details.Rating = strings.TrimSpace(rating.Find("strong").First().Text())
		if href, ok := rating.Find("a").First().Attr("href"); ok {
			details.RatingURL = strings.TrimSpace(href)
		}
	}

	return details
}

// labeledValue finds the list entry whose text contains label and
// returns the text of the anchor inside it.
func labeledValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if !strings.Contains(li.Text(), label) {
			return true
		}
		value = strings.TrimSpace(li.Find("a").First().Text())
		return false
	})
	return value
}
