package services

import (
	"fmt"
	"strings"
	"unicode"

	"movie-notifier/models"
	"movie-notifier/utils"
)

// markdownEscaper prefixes every character with special meaning in the
// Telegram MarkdownV2 dialect with a backslash.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`,
	"(", `\(`, ")", `\)`, "~", `\~`, "`", "\\`", ">", `\>`,
	"#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`, "|", `\|`,
	"{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

const (
	fieldPlaceholder = "N/A"
	storyPlaceholder = "No story available."
	watchButtonLabel = "Watch Now"
)

// EscapeMarkdown escapes all MarkdownV2 special characters in s.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// TitleKey normalises and escapes a raw title into the form used as the
// ledger identity key and in the rendered caption.
func TitleKey(title string) string {
	return EscapeMarkdown(normaliseText(title))
}

// Formatter renders movie notifications for the MarkdownV2 dialect.
type Formatter struct {
	logger *utils.Logger
}

// NewFormatter creates a Formatter.
func NewFormatter(logger *utils.Logger) *Formatter {
	return &Formatter{logger: logger}
}

// Render builds the notification for one new movie. The caption field
// order is fixed: title, genres, release year, quality, rating, story,
// category hashtag. The rating becomes a hyperlink only when the detail
// page supplied an external rating link. Missing detail fields fall
// back to placeholders; the story has its own explicit placeholder.
func (f *Formatter) Render(movie *models.RawMovie, details *models.MovieDetails, source models.Source) *models.Notification {
	title := TitleKey(movie.Title)
	genreList := EscapeMarkdown(joinGenres(movie.Genres))
	year := EscapeMarkdown(orPlaceholder(details.ReleaseYear))
	quality := EscapeMarkdown(orPlaceholder(details.Quality))
	rating := EscapeMarkdown(orPlaceholder(details.Rating))

	story := normaliseText(details.Story)
	if story == "" {
		story = storyPlaceholder
	}
	story = EscapeMarkdown(story)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎥 *Title:* %s\n", title)
	fmt.Fprintf(&sb, "📚 *Genres:* %s\n", genreList)
	fmt.Fprintf(&sb, "📅 *Release Year:* %s\n", year)
	fmt.Fprintf(&sb, "🎞 *Quality:* %s\n", quality)
	if details.RatingURL != "" {
		fmt.Fprintf(&sb, "⭐ *Rating:* [%s](%s)\n", rating, details.RatingURL)
	} else {
		fmt.Fprintf(&sb, "⭐ *Rating:* %s\n", rating)
	}
	fmt.Fprintf(&sb, "📖 *Story:*\n%s\n", story)
	fmt.Fprintf(&sb, "%s\n", EscapeMarkdown(source.Hashtag()))

	return &models.Notification{
		Caption:   sb.String(),
		PosterURL: movie.PosterURL,
		LinkText:  watchButtonLabel,
		LinkURL:   movie.DetailURL,
	}
}

// Record builds the durable dedup entry matching what Render dispatched.
// Stored fields carry the same escaping as the caption so the ledger key
// and the reported text agree.
func (f *Formatter) Record(movie *models.RawMovie, details *models.MovieDetails, source models.Source) *models.ShownRecord {
	story := normaliseText(details.Story)
	if story == "" {
		story = storyPlaceholder
	}

	return &models.ShownRecord{
		Title:       TitleKey(movie.Title),
		GenreList:   EscapeMarkdown(joinGenres(movie.Genres)),
		ReleaseYear: EscapeMarkdown(orPlaceholder(details.ReleaseYear)),
		Quality:     EscapeMarkdown(orPlaceholder(details.Quality)),
		Rating:      EscapeMarkdown(orPlaceholder(details.Rating)),
		Story:       EscapeMarkdown(story),
		Link:        movie.DetailURL,
		Hashtag:     source.Hashtag(),
	}
}

func joinGenres(genres []string) string {
	cleaned := make([]string, 0, len(genres))
	for _, g := range genres {
		if t := normaliseText(g); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ", ")
}

func orPlaceholder(s string) string {
	if t := normaliseText(s); t != "" {
		return t
	}
	return fieldPlaceholder
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
