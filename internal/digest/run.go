// Package digest turns newly stored reports into per-subscription digests:
// it scans and scores reports, groups them by site and hands each digest to
// a mailer.
package digest

import (
	"time"

	"sitescripts/internal/model"
	"sitescripts/internal/subscriptions"
)

// FallbackURL identifies the default recipient of reports that are not
// tied to a subscription.
const FallbackURL = "https://fake.adblockplus.org"

// Run holds the parameters of one digest run. It is built once and not
// modified afterwards.
type Run struct {
	Interval model.Interval
	Weekday  int
	Now      time.Time
	// Start is the oldest creation time of reports taking part in the run.
	Start time.Time
	// Active maps every variant URL of a selected subscription to it.
	Active        map[string]*model.Subscription
	Subscriptions []*model.Subscription
	Fallback      model.Recipient
}

// NewRun builds the run context for interval ending at now.
func NewRun(interval model.Interval, weekday int, now time.Time, sel subscriptions.Selection, fallback model.Recipient) *Run {
	start := time.Unix(0, 0).UTC()
	if d, ok := interval.Window(); ok {
		start = now.Add(-d)
	}
	active := sel.ByURL
	if active == nil {
		active = map[string]*model.Subscription{}
	}
	return &Run{
		Interval:      interval,
		Weekday:       weekday,
		Now:           now,
		Start:         start,
		Active:        active,
		Subscriptions: sel.List,
		Fallback:      fallback,
	}
}

// Recipients lists everyone who may receive a digest in this run: the
// selected subscriptions followed by the fallback recipient.
func (r *Run) Recipients() []model.Recipient {
	out := make([]model.Recipient, 0, len(r.Subscriptions)+1)
	for _, s := range r.Subscriptions {
		out = append(out, s)
	}
	if r.Fallback != nil {
		out = append(out, r.Fallback)
	}
	return out
}
