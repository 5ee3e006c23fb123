package services

import (
	"context"
	"time"

	"movie-notifier/models"
	"movie-notifier/storage"
	"movie-notifier/utils"
)

// Messages surfaced to the requester of an interactive cycle. Raw
// failure detail never reaches the chat, only the operational log.
const (
	noNewMoviesMessage = "No new movies found in this category."
	fetchFailedMessage = "An error occurred while fetching movies. Please try again later."
)

// Fetcher retrieves one page of raw markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser extracts listing entries from raw markup.
type Parser interface {
	Parse(page []byte) ([]*models.RawMovie, error)
}

// DetailEnricher scrapes supplementary attributes for one listing item.
// Implementations never fail outward; missing pages degrade to empty
// details.
type DetailEnricher interface {
	Enrich(ctx context.Context, url string) *models.MovieDetails
}

// Dispatcher delivers messages to a chat.
type Dispatcher interface {
	SendNotification(ctx context.Context, chatID string, n *models.Notification) error
	SendText(ctx context.Context, chatID string, text string) error
}

// PollerConfig wires the poller's collaborators.
type PollerConfig struct {
	Sources    []models.Source
	Fetcher    Fetcher
	Parser     Parser
	Enricher   DetailEnricher
	Formatter  *Formatter
	Ledger     storage.Ledger
	Dispatcher Dispatcher
	NotifyLog  *storage.NotifyLog // optional audit trail
	Logger     *utils.Logger
}

// Poller drives full passes over the configured sources: fetch the
// listing, filter out already-seen titles, enrich, render, dispatch,
// record. Cycles are serialized by an internal gate so a timer tick and
// an interactive request can never interleave ledger checks.
type Poller struct {
	sources    []models.Source
	fetcher    Fetcher
	parser     Parser
	enricher   DetailEnricher
	formatter  *Formatter
	ledger     storage.Ledger
	dispatcher Dispatcher
	notifyLog  *storage.NotifyLog
	reporter   *Reporter
	logger     *utils.Logger
	gate       utils.Gate
}

// NewPoller creates a Poller from its wired collaborators.
func NewPoller(cfg PollerConfig) *Poller {
	return &Poller{
		sources:    cfg.Sources,
		fetcher:    cfg.Fetcher,
		parser:     cfg.Parser,
		enricher:   cfg.Enricher,
		formatter:  cfg.Formatter,
		ledger:     cfg.Ledger,
		dispatcher: cfg.Dispatcher,
		notifyLog:  cfg.NotifyLog,
		reporter:   NewReporter(cfg.Logger),
		logger:     cfg.Logger,
	}
}

// RunAll runs one scheduled cycle over every configured source, in
// configuration order. A zero-new outcome stays silent.
func (p *Poller) RunAll(ctx context.Context, chatID string) *CycleReport {
	return p.run(ctx, chatID, p.sources, false)
}

// RunSource runs one interactively-triggered cycle for a single source.
// The requester is told when nothing new was found or when the listing
// fetch failed.
func (p *Poller) RunSource(ctx context.Context, chatID string, source models.Source) *CycleReport {
	return p.run(ctx, chatID, []models.Source{source}, true)
}

func (p *Poller) run(ctx context.Context, chatID string, sources []models.Source, interactive bool) *CycleReport {
	p.gate.Acquire()
	defer p.gate.Release()

	report := &CycleReport{Interactive: interactive, Started: time.Now()}

	for _, src := range sources {
		p.scanSource(ctx, chatID, src, interactive, report)
	}

	report.Finished = time.Now()

	if interactive && report.Dispatched == 0 && report.FetchFailures == 0 {
		if err := p.dispatcher.SendText(ctx, chatID, noNewMoviesMessage); err != nil {
			p.logger.Warn("[poller] could not deliver zero-new notice: %v", err)
		}
	}

	p.reporter.Log(report)
	return report
}

// scanSource processes one source. A listing-level failure aborts only
// this source; the caller moves on to the next one.
func (p *Poller) scanSource(ctx context.Context, chatID string, src models.Source, interactive bool, report *CycleReport) {
	report.SourcesScanned++
	p.logger.Info("[poller] scanning %q", src.Name)

	page, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		p.listingFailure(ctx, chatID, src, interactive, report, err)
		return
	}

	found, err := p.parser.Parse(page)
	if err != nil {
		p.listingFailure(ctx, chatID, src, interactive, report, err)
		return
	}

	report.ItemsListed += len(found)

	for _, movie := range found {
		p.processMovie(ctx, chatID, src, movie, report)
	}
}

func (p *Poller) listingFailure(ctx context.Context, chatID string, src models.Source, interactive bool, report *CycleReport, err error) {
	report.FetchFailures++
	p.logger.Error("[poller] %s: listing failed: %v", src.Name, err)
	if interactive {
		if serr := p.dispatcher.SendText(ctx, chatID, fetchFailedMessage); serr != nil {
			p.logger.Warn("[poller] could not deliver failure notice: %v", serr)
		}
	}
}

// processMovie runs the per-item sub-chain: seen-check, enrich, render,
// dispatch, record. Any failure skips this item only; the remaining
// items and sources are unaffected.
func (p *Poller) processMovie(ctx context.Context, chatID string, src models.Source, movie *models.RawMovie, report *CycleReport) {
	title := TitleKey(movie.Title)

	seen, err := p.ledger.Seen(ctx, title)
	if err != nil {
		// A broken ledger read is never treated as "not seen"; the item
		// is skipped this cycle and retried once storage recovers.
		report.LedgerErrors++
		p.logger.Error("[poller] %s: seen lookup for %q failed, skipping item: %v", src.Name, movie.Title, err)
		return
	}
	if seen {
		p.logger.Debug("[poller] %s: already reported %q", src.Name, movie.Title)
		return
	}
	report.ItemsNew++

	details := p.enricher.Enrich(ctx, movie.DetailURL)
	notification := p.formatter.Render(movie, details, src)

	if err := p.dispatcher.SendNotification(ctx, chatID, notification); err != nil {
		// Not marked seen: the item stays eligible for the next cycle.
		report.DispatchErrors++
		p.logger.Error("[poller] %s: dispatch for %q failed: %v", src.Name, movie.Title, err)
		return
	}
	report.Dispatched++

	rec := p.formatter.Record(movie, details, src)
	if _, err := p.ledger.MarkSeen(ctx, rec); err != nil {
		// The notification is already out. The item counts as done for
		// this cycle, at the documented risk of a future duplicate.
		report.Unrecorded++
		p.logger.Error("[poller] %s: notification sent but not recorded for %q: %v", src.Name, movie.Title, err)
	}

	if p.notifyLog != nil {
		if err := p.notifyLog.Record(rec.Title, src.Name, movie.DetailURL); err != nil {
			p.logger.Warn("[poller] audit log write failed: %v", err)
		}
	}

	p.logger.Info("[poller] %s: reported %q", src.Name, movie.Title)
}
