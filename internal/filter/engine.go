// Package filter resolves which subscriptions a report concerns.
package filter

import (
	"sitescripts/internal/model"
)

// Matches holds the active subscriptions whose filters a report hit.
type Matches struct {
	// Subscriptions lists each matched subscription once, in order of
	// first hit.
	Subscriptions []*model.Subscription
	// URLs holds every active variant URL named by a filter hit.
	URLs map[string]bool
}

// MatchSubscriptions collects the filter hits of a report. Subscription
// ids that are not active are ignored.
func MatchSubscriptions(p *model.ReportPayload, active map[string]*model.Subscription) Matches {
	m := Matches{URLs: make(map[string]bool)}
	seen := make(map[*model.Subscription]bool)
	for _, f := range p.Filters {
		for _, url := range f.Subscriptions {
			s, ok := active[url]
			if !ok {
				continue
			}
			m.URLs[url] = true
			if seen[s] {
				continue
			}
			seen[s] = true
			m.Subscriptions = append(m.Subscriptions, s)
		}
	}
	return m
}

// Recipients returns who should receive the report.
//
// False negatives go to every active subscription the reporter had
// installed. False positives go only to those installed variants that a
// filter hit named; a hit on another variant of the same list does not
// count. Any other type goes to fallback, except in weekly runs.
// The result never lists a recipient twice.
func Recipients(
	p *model.ReportPayload,
	active map[string]*model.Subscription,
	matched Matches,
	interval model.Interval,
	fallback model.Recipient,
) []model.Recipient {
	if !p.Type.IsFilterIssue() {
		if interval == model.IntervalWeek || fallback == nil {
			return nil
		}
		return []model.Recipient{fallback}
	}

	var recipients []model.Recipient
	seen := make(map[*model.Subscription]bool)
	for _, ref := range p.Subscriptions {
		s, ok := active[ref.ID]
		if !ok || seen[s] {
			continue
		}
		if p.Type == model.TypeFalsePositive && !matched.URLs[ref.ID] {
			continue
		}
		seen[s] = true
		recipients = append(recipients, s)
	}
	return recipients
}
