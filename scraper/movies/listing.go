package movies

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"movie-notifier/models"
	"movie-notifier/utils"
)

// Listing page structure:
//   div.Block--Item   one container per movie
//   h3                title
//   li                one per genre tag
//   img[data-src]     poster (lazy-loaded)
//   a[href]           detail-page link
const (
	itemSelector   = "div.Block--Item"
	titleSelector  = "h3"
	genreSelector  = "li"
	posterSelector = "img"
	linkSelector   = "a[href]"
	posterAttr     = "data-src"
)

// ListingParser extracts movie entries from a category listing page.
type ListingParser struct {
	logger *utils.Logger
}

// NewListingParser creates a ListingParser.
func NewListingParser(logger *utils.Logger) *ListingParser {
	return &ListingParser{logger: logger}
}

// Parse returns the movies found on the page in document order; that
// order is the notification order. Containers without a title or a
// detail link are dropped, not errors, and a malformed container never
// aborts the rest of the listing.
func (p *ListingParser) Parse(page []byte) ([]*models.RawMovie, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var found []*models.RawMovie
	doc.Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		movie, ok := p.parseItem(item)
		if !ok {
			p.logger.Debug("[listing] dropping container #%d: no title or detail link", i)
			return
		}
		found = append(found, movie)
	})

	p.logger.Debug("[listing] extracted %d movies", len(found))
	return found, nil
}

func (p *ListingParser) parseItem(item *goquery.Selection) (*models.RawMovie, bool) {
	title := strings.TrimSpace(item.Find(titleSelector).First().Text())
	if title == "" {
		return nil, false
	}

	link, _ := item.Find(linkSelector).First().Attr("href")
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, false
	}

	var genres []string
	item.Find(genreSelector).Each(func(_ int, g *goquery.Selection) {
		if text := strings.TrimSpace(g.Text()); text != "" {
			genres = append(genres, text)
		}
	})

	poster, _ := item.Find(posterSelector).First().Attr(posterAttr)

	return &models.RawMovie{
		Title:     title,
		Genres:    genres,
		PosterURL: strings.TrimSpace(poster),
		DetailURL: link,
	}, true
}
