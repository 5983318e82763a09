package digest

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"

	"sitescripts/internal/model"
	"sitescripts/internal/secret"
)

// Mailer renders and delivers a digest.
type Mailer interface {
	MailDigest(ctx context.Context, d *model.Digest) error
}

// DigestSigner computes the weekly secret of a digest link.
type DigestSigner interface {
	DigestSecret(id string, year, week int) string
}

// Dispatcher sends one digest per recipient with relevant reports.
type Dispatcher struct {
	mailer  Mailer
	signer  DigestSigner
	urlRoot string
	log     *slog.Logger
}

// NewDispatcher creates a Dispatcher. Digest links are built as
// urlRoot + "digest?id=<id>&secret=<secret>".
func NewDispatcher(mailer Mailer, signer DigestSigner, urlRoot string, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		signer:  signer,
		urlRoot: urlRoot,
		log:     log,
	}
}

// Dispatch mails the digests of a run and returns how many were sent.
// The first mailer error stops the run.
func (d *Dispatcher) Dispatch(ctx context.Context, run *Run, reports []*model.ReportView) (int, error) {
	sent := 0
	for _, rec := range run.Recipients() {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		selected := SelectReports(reports, rec)
		if len(selected) == 0 {
			continue
		}

		dg := d.build(rec, GroupReports(selected), run)
		if err := d.mailer.MailDigest(ctx, dg); err != nil {
			return sent, fmt.Errorf("mail digest for %s: %w", rec.Identifier(), err)
		}
		sent++
		d.log.Info("sent digest", "subscription", rec.Identifier(), "groups", len(dg.Groups), "reports", len(selected))
	}
	return sent, nil
}

func (d *Dispatcher) build(rec model.Recipient, groups []*model.Group, run *Run) *model.Digest {
	display, address := FormatAddress(rec.Email())
	id := secret.DigestID(address)
	year, week := run.Now.ISOWeek()
	link := fmt.Sprintf("%sdigest?id=%s&secret=%s",
		d.urlRoot, url.QueryEscape(id), url.QueryEscape(d.signer.DigestSecret(id, year, week)))

	return &model.Digest{
		Email:        display,
		DigestLink:   link,
		Subscription: rec,
		Groups:       groups,
	}
}

// FormatAddress parses raw ("Name <addr>" or a bare address) and returns
// a header-safe display form plus the bare address. Unparseable input is
// used verbatim as the address.
func FormatAddress(raw string) (display, address string) {
	a, err := mail.ParseAddress(raw)
	if err != nil {
		address = strings.TrimSpace(raw)
		return address, address
	}
	return a.String(), a.Address
}
