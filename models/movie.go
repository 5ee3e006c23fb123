package models

import (
	"strings"
	"time"
)

// Source is one named catalog category bound to a listing URL.
// Sources come from static configuration and are read-only at runtime.
type Source struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// Hashtag returns the category tag appended to every notification,
// e.g. "Hindi Movies" -> "#HindiMovies".
func (s Source) Hashtag() string {
	return "#" + strings.Join(strings.Fields(s.Name), "")
}

// RawMovie is a candidate entry extracted from a listing page. It only
// lives for the duration of one poll pass.
type RawMovie struct {
	Title     string
	Genres    []string
	PosterURL string
	DetailURL string
}

// MovieDetails holds the supplementary attributes scraped from a
// movie's detail page. Every field may be empty.
type MovieDetails struct {
	Story       string
	ReleaseYear string
	Quality     string
	Rating      string
	RatingURL   string
}

// ShownRecord is the durable dedup entry. Title is the sole identity
// key: at most one record per title exists, regardless of which source
// produced it. Records are written once and never updated or deleted.
type ShownRecord struct {
	ID          int64
	Title       string
	GenreList   string
	ReleaseYear string
	Quality     string
	Rating      string
	Story       string
	Link        string
	Hashtag     string
	AddedAt     time.Time
}

// Notification is the rendered message for one new movie. PosterURL
// decides at dispatch time whether delivery is a photo or a plain
// text message.
type Notification struct {
	Caption   string
	PosterURL string
	LinkText  string
	LinkURL   string
}
