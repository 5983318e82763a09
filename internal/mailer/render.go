// Package mailer renders digests with liquid templates and delivers them
// through SMTP, Amazon SES or the log.
package mailer

import (
	"embed"
	"fmt"
	"strings"

	"github.com/osteele/liquid"

	"sitescripts/internal/model"
)

// groupPreview is how many reports of a site group the digest lists.
const groupPreview = 5

//go:embed templates/*.liquid
var templateFS embed.FS

// Message is a rendered digest email.
type Message struct {
	// To is the header form of the recipient, Envelope the bare address.
	To       string
	Envelope string
	Subject  string
	Body     string
}

// Renderer turns digests into messages.
type Renderer struct {
	subject *liquid.Template
	body    *liquid.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	subject, err := parseTemplate(engine, "templates/subject.liquid")
	if err != nil {
		return nil, err
	}
	body, err := parseTemplate(engine, "templates/digest.liquid")
	if err != nil {
		return nil, err
	}
	return &Renderer{subject: subject, body: body}, nil
}

func parseTemplate(engine *liquid.Engine, name string) (*liquid.Template, error) {
	src, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	tpl, perr := engine.ParseTemplate(src)
	if perr != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, perr)
	}
	return tpl, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ report.weight | weight }}
	engine.RegisterFilter("weight", func(w float64) string {
		return fmt.Sprintf("%.2f", w)
	})

	// {{ report.type | reporttype }}
	engine.RegisterFilter("reporttype", func(t string) string {
		switch model.ReportType(t) {
		case model.TypeFalsePositive:
			return "False positive"
		case model.TypeFalseNegative:
			return "False negative"
		case model.TypeOther:
			return "Other"
		}
		return "Unknown issue"
	})
}

// Render produces the message for d.
func (r *Renderer) Render(d *model.Digest) (Message, error) {
	bindings := digestBindings(d)

	subject, err := r.subject.RenderString(bindings)
	if err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	body, err := r.body.RenderString(bindings)
	if err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}

	return Message{
		To:       d.Email,
		Envelope: envelopeAddress(d.Email),
		Subject:  strings.TrimSpace(subject),
		Body:     body,
	}, nil
}

func digestBindings(d *model.Digest) liquid.Bindings {
	count := 0
	groups := make([]map[string]any, 0, len(d.Groups))
	for _, g := range d.Groups {
		reports := make([]map[string]any, 0, len(g.Reports))
		for _, r := range g.Reports {
			reports = append(reports, reportBindings(r))
		}
		count += len(g.Reports)
		more := 0
		if !g.DumpAll && len(g.Reports) > groupPreview {
			more = len(g.Reports) - groupPreview
		}
		groups = append(groups, map[string]any{
			"name":    g.Name,
			"weight":  g.Weight,
			"dumpAll": g.DumpAll,
			"reports": reports,
			"more":    more,
		})
	}

	return liquid.Bindings{
		"email":      d.Email,
		"digestLink": d.DigestLink,
		"subscription": map[string]any{
			"name":  d.Subscription.Name(),
			"url":   d.Subscription.Identifier(),
			"email": d.Subscription.Email(),
		},
		"groups":      groups,
		"reportCount": count,
	}
}

func reportBindings(r *model.ReportView) map[string]any {
	matched := make([]string, 0, len(r.MatchSubscriptions))
	for _, s := range r.MatchSubscriptions {
		matched = append(matched, s.Name())
	}
	return map[string]any{
		"guid":               r.GUID,
		"url":                r.URL,
		"weight":             r.Weight,
		"site":               r.Site,
		"comment":            r.Comment,
		"type":               string(r.Type),
		"numSubscriptions":   r.NumSubscriptions,
		"matchSubscriptions": matched,
		"email":              r.Email,
		"screenshot":         r.Screenshot,
		"screenshotEdited":   r.ScreenshotEdited,
		"knownIssues":        r.KnownIssues,
		"time":               r.Time,
	}
}
