package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-notifier/models"
	"movie-notifier/utils"
)

// fakeFetcher hands back a token per URL; the fake parser maps tokens to
// listings. Listing content is irrelevant to the poller itself.
type fakeFetcher struct {
	errs map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return []byte(url), nil
}

type fakeParser struct {
	listings map[string][]*models.RawMovie
}

func (p *fakeParser) Parse(page []byte) ([]*models.RawMovie, error) {
	return p.listings[string(page)], nil
}

type fakeEnricher struct {
	details map[string]*models.MovieDetails
}

func (e *fakeEnricher) Enrich(_ context.Context, url string) *models.MovieDetails {
	if d, ok := e.details[url]; ok {
		return d
	}
	return &models.MovieDetails{}
}

type fakeDispatcher struct {
	notifications []*models.Notification
	texts         []string
	failLinks     map[string]error
}

func (d *fakeDispatcher) SendNotification(_ context.Context, _ string, n *models.Notification) error {
	if err := d.failLinks[n.LinkURL]; err != nil {
		return err
	}
	d.notifications = append(d.notifications, n)
	return nil
}

func (d *fakeDispatcher) SendText(_ context.Context, _ string, text string) error {
	d.texts = append(d.texts, text)
	return nil
}

// memLedger is an in-memory storage.Ledger with injectable failures.
type memLedger struct {
	rows    map[string]*models.ShownRecord
	seenErr error
	markErr error
}

func newMemLedger() *memLedger {
	return &memLedger{rows: make(map[string]*models.ShownRecord)}
}

func (l *memLedger) Init() error { return nil }

func (l *memLedger) Seen(_ context.Context, title string) (bool, error) {
	if l.seenErr != nil {
		return false, l.seenErr
	}
	_, ok := l.rows[title]
	return ok, nil
}

func (l *memLedger) MarkSeen(_ context.Context, rec *models.ShownRecord) (bool, error) {
	if l.markErr != nil {
		return false, l.markErr
	}
	if _, ok := l.rows[rec.Title]; ok {
		return false, nil
	}
	l.rows[rec.Title] = rec
	return true, nil
}

func (l *memLedger) Close() error { return nil }

func movie(title string) *models.RawMovie {
	return &models.RawMovie{
		Title:     title,
		Genres:    []string{"Action"},
		DetailURL: "https://example.com/movies/" + title,
	}
}

type pollerFixture struct {
	poller     *Poller
	fetcher    *fakeFetcher
	parser     *fakeParser
	dispatcher *fakeDispatcher
	ledger     *memLedger
}

func newFixture(sources []models.Source, listings map[string][]*models.RawMovie) *pollerFixture {
	f := &pollerFixture{
		fetcher:    &fakeFetcher{errs: map[string]error{}},
		parser:     &fakeParser{listings: listings},
		dispatcher: &fakeDispatcher{failLinks: map[string]error{}},
		ledger:     newMemLedger(),
	}
	f.poller = NewPoller(PollerConfig{
		Sources:    sources,
		Fetcher:    f.fetcher,
		Parser:     f.parser,
		Enricher:   &fakeEnricher{},
		Formatter:  NewFormatter(utils.NewNopLogger()),
		Ledger:     f.ledger,
		Dispatcher: f.dispatcher,
		Logger:     utils.NewNopLogger(),
	})
	return f
}

func TestRunAllDedupsAcrossCycles(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	fix := newFixture([]models.Source{src}, map[string][]*models.RawMovie{
		src.URL: {movie("Alpha"), movie("Beta")},
	})

	first := fix.poller.RunAll(context.Background(), "42")
	assert.Equal(t, 2, first.Dispatched)

	second := fix.poller.RunAll(context.Background(), "42")
	assert.Equal(t, 0, second.Dispatched, "second cycle over identical content must dispatch nothing")
	assert.Equal(t, 0, second.ItemsNew)

	assert.Len(t, fix.ledger.rows, 2, "exactly one record per distinct title")
	assert.Len(t, fix.dispatcher.notifications, 2)
}

func TestTitleIsSoleIdentityKey(t *testing.T) {
	english := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	hindi := models.Source{Name: "Hindi Movies", URL: "https://example.com/hindi/"}
	fix := newFixture([]models.Source{english, hindi}, map[string][]*models.RawMovie{
		english.URL: {movie("Shared Title")},
		hindi.URL:   {movie("Shared Title")},
	})

	report := fix.poller.RunAll(context.Background(), "42")

	assert.Equal(t, 1, report.Dispatched, "identical title under two sources is dispatched at most once")
	require.Len(t, fix.ledger.rows, 1)
	rec := fix.ledger.rows["Shared Title"]
	require.NotNil(t, rec)
	assert.Equal(t, "#EnglishMovies", rec.Hashtag, "first source to process the title wins")
}

func TestPerItemFaultIsolation(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	items := []*models.RawMovie{
		movie("One"), movie("Two"), movie("Three"), movie("Four"), movie("Five"),
	}
	fix := newFixture([]models.Source{src}, map[string][]*models.RawMovie{src.URL: items})
	fix.dispatcher.failLinks[items[1].DetailURL] = errors.New("payload rejected")

	report := fix.poller.RunAll(context.Background(), "42")

	assert.Equal(t, 4, report.Dispatched)
	assert.Equal(t, 1, report.DispatchErrors)
	assert.Len(t, fix.ledger.rows, 4)
	_, recorded := fix.ledger.rows["Two"]
	assert.False(t, recorded, "a failed dispatch must not be marked seen")

	// next cycle retries only the failed item
	fix.dispatcher.failLinks = map[string]error{}
	retry := fix.poller.RunAll(context.Background(), "42")
	assert.Equal(t, 1, retry.Dispatched)
	assert.Len(t, fix.ledger.rows, 5)
}

func TestPerSourceFaultIsolation(t *testing.T) {
	hindi := models.Source{Name: "Hindi Movies", URL: "https://example.com/hindi/"}
	english := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	fix := newFixture([]models.Source{hindi, english}, map[string][]*models.RawMovie{
		english.URL: {movie("Solo")},
	})
	fix.fetcher.errs[hindi.URL] = fmt.Errorf("fetch %s: unexpected status 503", hindi.URL)

	report := fix.poller.RunAll(context.Background(), "42")

	assert.Equal(t, 2, report.SourcesScanned)
	assert.Equal(t, 1, report.FetchFailures)
	assert.Equal(t, 1, report.Dispatched, "the healthy source must still complete")
	assert.Empty(t, fix.dispatcher.texts, "scheduled cycles surface nothing to the chat")
}

func TestInteractiveFetchFailureMessage(t *testing.T) {
	src := models.Source{Name: "Hindi Movies", URL: "https://example.com/hindi/"}
	fix := newFixture([]models.Source{src}, nil)
	fix.fetcher.errs[src.URL] = errors.New("connection refused")

	fix.poller.RunSource(context.Background(), "42", src)

	require.Len(t, fix.dispatcher.texts, 1)
	assert.Equal(t, fetchFailedMessage, fix.dispatcher.texts[0])
}

func TestInteractiveZeroNewNotice(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	fix := newFixture([]models.Source{src}, map[string][]*models.RawMovie{
		src.URL: {movie("Old News")},
	})
	fix.poller.RunAll(context.Background(), "42") // records the title

	fix.poller.RunSource(context.Background(), "42", src)

	require.Len(t, fix.dispatcher.texts, 1)
	assert.Equal(t, noNewMoviesMessage, fix.dispatcher.texts[0])
}

func TestScheduledZeroNewStaysSilent(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	fix := newFixture([]models.Source{src}, nil)

	fix.poller.RunAll(context.Background(), "42")

	assert.Empty(t, fix.dispatcher.texts)
}

func TestLedgerReadErrorSkipsItem(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	fix := newFixture([]models.Source{src}, map[string][]*models.RawMovie{
		src.URL: {movie("Uncertain")},
	})
	fix.ledger.seenErr = errors.New("storage unavailable")

	report := fix.poller.RunAll(context.Background(), "42")

	assert.Equal(t, 0, report.Dispatched, "a ledger read error must never degrade to 'not seen'")
	assert.Equal(t, 1, report.LedgerErrors)
	assert.Empty(t, fix.dispatcher.notifications)

	// storage recovers: the item goes out on the next cycle
	fix.ledger.seenErr = nil
	retry := fix.poller.RunAll(context.Background(), "42")
	assert.Equal(t, 1, retry.Dispatched)
}

func TestSentButNotRecorded(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	fix := newFixture([]models.Source{src}, map[string][]*models.RawMovie{
		src.URL: {movie("Fragile")},
	})
	fix.ledger.markErr = errors.New("write rejected")

	report := fix.poller.RunAll(context.Background(), "42")

	assert.Equal(t, 1, report.Dispatched, "the notification was already sent")
	assert.Equal(t, 1, report.Unrecorded)
	assert.Empty(t, fix.ledger.rows)
}

func TestCaptionCarriesEnrichedDetails(t *testing.T) {
	src := models.Source{Name: "English Movies", URL: "https://example.com/english/"}
	item := movie("Detailed")
	fix := newFixture([]models.Source{src}, map[string][]*models.RawMovie{src.URL: {item}})
	fix.poller.enricher = &fakeEnricher{details: map[string]*models.MovieDetails{
		item.DetailURL: {ReleaseYear: "2024", Quality: "WEB-DL", Rating: "8.8"},
	}}

	fix.poller.RunAll(context.Background(), "42")

	require.Len(t, fix.dispatcher.notifications, 1)
	caption := fix.dispatcher.notifications[0].Caption
	assert.Contains(t, caption, "2024")
	assert.Contains(t, caption, `WEB\-DL`)
	assert.Contains(t, caption, `8\.8`)
}
