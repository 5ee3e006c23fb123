package services

import (
	"time"

	"movie-notifier/utils"
)

// CycleReport aggregates the outcome of one full poll cycle.
type CycleReport struct {
	Interactive    bool
	SourcesScanned int
	FetchFailures  int
	ItemsListed    int
	ItemsNew       int
	Dispatched     int
	DispatchErrors int
	LedgerErrors   int
	// Unrecorded counts notifications that were sent but whose ledger
	// write failed afterwards; those titles may be re-sent in a future
	// cycle.
	Unrecorded int

	Started  time.Time
	Finished time.Time
}

// Duration returns the wall-clock time the cycle took.
func (r *CycleReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Clean reports whether the cycle completed without any failure.
func (r *CycleReport) Clean() bool {
	return r.FetchFailures == 0 && r.DispatchErrors == 0 &&
		r.LedgerErrors == 0 && r.Unrecorded == 0
}

// Reporter logs cycle summaries.
type Reporter struct {
	logger *utils.Logger
}

// NewReporter creates a Reporter.
func NewReporter(logger *utils.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Log writes one summary line per cycle, at warn level when anything
// failed so operators can grep for troubled cycles.
func (rp *Reporter) Log(r *CycleReport) {
	kind := "scheduled"
	if r.Interactive {
		kind = "interactive"
	}

	format := "[cycle] %s cycle done in %s — sources: %d | listed: %d | new: %d | " +
		"dispatched: %d | fetch failures: %d | dispatch failures: %d | " +
		"ledger errors: %d | unrecorded: %d"
	args := []any{
		kind, r.Duration().Round(time.Millisecond), r.SourcesScanned,
		r.ItemsListed, r.ItemsNew, r.Dispatched, r.FetchFailures,
		r.DispatchErrors, r.LedgerErrors, r.Unrecorded,
	}

	if r.Clean() {
		rp.logger.Info(format, args...)
	} else {
		rp.logger.Warn(format, args...)
	}
}
