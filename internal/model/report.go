package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType classifies a user submitted report.
type ReportType string

// Known report types.
const (
	TypeFalsePositive ReportType = "false positive"
	TypeFalseNegative ReportType = "false negative"
	TypeOther         ReportType = "other"
	TypeUnknown       ReportType = "unknown"
)

// IsFilterIssue reports whether the type is tied to filter subscriptions.
func (t ReportType) IsFilterIssue() bool {
	return t == TypeFalsePositive || t == TypeFalseNegative
}

const unknownValue = "unknown"

// StoredReport is a raw row from the report store.
type StoredReport struct {
	GUID      string
	Dump      []byte
	CreatedAt time.Time
}

// FilterMatch is a filter rule hit recorded with the report.
type FilterMatch struct {
	Subscriptions []string `json:"subscriptions"`
}

// SubscriptionRef is a subscription the reporter had installed.
type SubscriptionRef struct {
	ID string `json:"id"`
}

// ReportPayload is the decoded report dump. Optional fields are pointers
// or raw values so that presence can be told apart from emptiness.
type ReportPayload struct {
	Type             ReportType        `json:"type"`
	SiteName         string            `json:"siteName"`
	Comment          string            `json:"comment"`
	Filters          []FilterMatch     `json:"filters"`
	Subscriptions    []SubscriptionRef `json:"subscriptions"`
	Email            *string           `json:"email"`
	Screenshot       json.RawMessage   `json:"screenshot"`
	ScreenshotEdited bool              `json:"screenshotEdited"`
	KnownIssues      []json.RawMessage `json:"knownIssues"`
	Time             float64           `json:"time"`
}

// DecodePayload parses a report dump and fills in defaults:
// type and siteName become "unknown", subscription ids become "unknown".
func DecodePayload(data []byte) (ReportPayload, error) {
	var p ReportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ReportPayload{}, fmt.Errorf("decode report payload: %w", err)
	}
	if p.Type == "" {
		p.Type = TypeUnknown
	}
	if p.SiteName == "" {
		p.SiteName = unknownValue
	}
	for i := range p.Subscriptions {
		if p.Subscriptions[i].ID == "" {
			p.Subscriptions[i].ID = unknownValue
		}
	}
	return p, nil
}

// HasScreenshot reports whether a screenshot was attached.
func (p *ReportPayload) HasScreenshot() bool {
	return len(p.Screenshot) > 0 && !bytes.Equal(p.Screenshot, []byte("null"))
}

// HasEmail reports whether the reporter left an address.
func (p *ReportPayload) HasEmail() bool {
	return p.Email != nil
}

// CreatedAt converts the payload epoch seconds to a time.
func (p *ReportPayload) CreatedAt() time.Time {
	sec := int64(p.Time)
	nsec := int64((p.Time - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// ReportView is a report prepared for a digest.
type ReportView struct {
	GUID               string
	URL                string
	Weight             float64
	Site               string
	Recipients         []Recipient
	Comment            string
	Type               ReportType
	NumSubscriptions   int
	MatchSubscriptions []*Subscription
	Email              string
	Screenshot         bool
	ScreenshotEdited   bool
	KnownIssues        int
	Time               time.Time
}

// HasRecipient reports whether the report is addressed to r.
func (v *ReportView) HasRecipient(r Recipient) bool {
	for _, rec := range v.Recipients {
		if rec == r {
			return true
		}
	}
	return false
}
