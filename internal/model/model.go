// Package model defines the domain types used across the application.
package model

import "time"

// Interval selects which reports and subscriptions a digest run covers.
type Interval string

// Supported run intervals.
const (
	IntervalAll  Interval = "all"
	IntervalWeek Interval = "week"
	IntervalDay  Interval = "day"
)

// Window returns the length of the scan window ending at now.
// IntervalAll covers all time and reports ok=false.
func (i Interval) Window() (d time.Duration, ok bool) {
	switch i {
	case IntervalWeek:
		return 7 * 24 * time.Hour, true
	case IntervalDay:
		return 24 * time.Hour, true
	}
	return 0, false
}

// Cadence is how often a subscription wants to receive digests.
type Cadence string

// Supported digest cadences.
const (
	CadenceNone   Cadence = "none"
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Recipient is anything a digest can be addressed to: a registry
// subscription or the synthetic default inbox.
type Recipient interface {
	Identifier() string
	Name() string
	Email() string
	Cadence() Cadence
	Weekday() int
}

// Variant is one published flavour of a subscription.
type Variant struct {
	Title    string
	URL      string
	Complete bool
}

// Subscription is a filter list from the registry together with its
// maintainer address and digest preferences.
type Subscription struct {
	Title     string
	Address   string
	Digest    Cadence
	DigestDay int
	Variants  []Variant
}

// Identifier returns the URL of the first variant.
func (s *Subscription) Identifier() string {
	if len(s.Variants) == 0 {
		return ""
	}
	return s.Variants[0].URL
}

// Name returns the subscription title.
func (s *Subscription) Name() string { return s.Title }

// Email returns the maintainer address as written in the registry.
func (s *Subscription) Email() string { return s.Address }

// Cadence returns the configured digest cadence.
func (s *Subscription) Cadence() Cadence { return s.Digest }

// Weekday returns the configured digest day (0-6). Only meaningful for
// weekly subscriptions.
func (s *Subscription) Weekday() int { return s.DigestDay }

// DefaultRecipient receives reports that are not tied to any subscription.
type DefaultRecipient struct {
	URL         string
	DisplayName string
	Address     string
}

// Identifier returns the synthetic URL of the default recipient.
func (d *DefaultRecipient) Identifier() string { return d.URL }

// Name returns the configured display name.
func (d *DefaultRecipient) Name() string { return d.DisplayName }

// Email returns the configured recipient address.
func (d *DefaultRecipient) Email() string { return d.Address }

// Cadence is always daily.
func (d *DefaultRecipient) Cadence() Cadence { return CadenceDaily }

// Weekday is unused for daily recipients.
func (d *DefaultRecipient) Weekday() int { return -1 }

// Group is a bucket of reports for one site in a single digest.
type Group struct {
	Name    string
	Reports []*ReportView
	Weight  float64
	DumpAll bool
}

// Digest is everything the mailer needs to render and send one email.
type Digest struct {
	Email        string
	DigestLink   string
	Subscription Recipient
	Groups       []*Group
}
