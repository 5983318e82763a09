package digest

import (
	"context"
	"log/slog"
)

// Result summarizes a finished run.
type Result struct {
	Reports int
	Digests int
}

// Pipeline scans reports and dispatches digests.
type Pipeline struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	log        *slog.Logger
}

// NewPipeline creates a Pipeline from its stages.
func NewPipeline(scanner *Scanner, dispatcher *Dispatcher, log *slog.Logger) *Pipeline {
	return &Pipeline{
		scanner:    scanner,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run executes one digest run. Errors from the store or the mailer abort
// the run; digests sent before the error are counted in the result.
func (p *Pipeline) Run(ctx context.Context, run *Run) (Result, error) {
	p.log.Info("starting digest run",
		"interval", run.Interval, "weekday", run.Weekday,
		"since", run.Start, "subscriptions", len(run.Subscriptions))

	reports, err := p.scanner.Scan(ctx, run)
	if err != nil {
		return Result{}, err
	}

	sent, err := p.dispatcher.Dispatch(ctx, run, reports)
	res := Result{Reports: len(reports), Digests: sent}
	if err != nil {
		return res, err
	}

	p.log.Info("digest run finished", "reports", res.Reports, "digests", res.Digests)
	return res, nil
}
