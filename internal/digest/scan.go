package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sitescripts/internal/filter"
	"sitescripts/internal/model"
)

// ReportSource lists stored reports.
type ReportSource interface {
	ListReportsSince(ctx context.Context, since time.Time) ([]model.StoredReport, error)
}

// ReportSigner computes the access secret of a report link.
type ReportSigner interface {
	ReportSecret(guid string) string
}

// Scanner loads the reports of a run and prepares them for digests.
type Scanner struct {
	source  ReportSource
	signer  ReportSigner
	urlRoot string
	log     *slog.Logger
}

// NewScanner creates a Scanner. Report links are built as
// urlRoot + guid + "#secret=" + secret.
func NewScanner(source ReportSource, signer ReportSigner, urlRoot string, log *slog.Logger) *Scanner {
	return &Scanner{
		source:  source,
		signer:  signer,
		urlRoot: urlRoot,
		log:     log,
	}
}

// Scan returns the reports created since run.Start that have at least one
// recipient, in store order. Reports whose dump cannot be decoded are
// logged and skipped.
func (s *Scanner) Scan(ctx context.Context, run *Run) ([]*model.ReportView, error) {
	stored, err := s.source.ListReportsSince(ctx, run.Start)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	var views []*model.ReportView
	for _, sr := range stored {
		p, err := model.DecodePayload(sr.Dump)
		if err != nil {
			s.log.Warn("skip undecodable report", "guid", sr.GUID, "error", err)
			continue
		}
		if p.Time == 0 && !sr.CreatedAt.IsZero() {
			p.Time = epochSeconds(sr.CreatedAt)
		}

		matched := filter.MatchSubscriptions(&p, run.Active)
		recipients := filter.Recipients(&p, run.Active, matched, run.Interval, run.Fallback)
		if len(recipients) == 0 {
			continue
		}

		views = append(views, s.view(sr.GUID, &p, run, recipients, matched))
	}

	s.log.Debug("scanned reports", "stored", len(stored), "relevant", len(views))
	return views, nil
}

func (s *Scanner) view(guid string, p *model.ReportPayload, run *Run, recipients []model.Recipient, matched filter.Matches) *model.ReportView {
	v := &model.ReportView{
		GUID:               guid,
		URL:                s.urlRoot + guid + "#secret=" + s.signer.ReportSecret(guid),
		Weight:             Weight(p, run),
		Site:               p.SiteName,
		Recipients:         recipients,
		Comment:            sanitizeComment(p.Comment),
		Type:               p.Type,
		NumSubscriptions:   len(p.Subscriptions),
		MatchSubscriptions: matched.Subscriptions,
		Screenshot:         p.HasScreenshot(),
		ScreenshotEdited:   p.ScreenshotEdited,
		KnownIssues:        len(p.KnownIssues),
		Time:               p.CreatedAt(),
	}
	if p.HasEmail() {
		v.Email = *p.Email
	}
	return v
}

// sanitizeComment replaces control characters and other whitespace
// below 0x21 with plain spaces.
func sanitizeComment(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x20 {
			return ' '
		}
		return r
	}, s)
}
