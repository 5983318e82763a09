package digest

import (
	"regexp"
	"time"

	"sitescripts/internal/model"
)

// Weight adjustments.
const (
	baseWeight            = 1.0
	editedScreenshotBonus = 0.7
	plainScreenshotBonus  = 0.3
	knownIssuesPenalty    = 0.3
	testCommentPenalty    = 0.5
	commentBonus          = 0.5
	emailBonus            = 0.3
	maxRecencyBonus       = 0.2
)

var (
	testWordRe = regexp.MustCompile(`(?i)\btest\b`)
	nonSpaceRe = regexp.MustCompile(`\S`)
)

// Weight scores a report for ordering within a digest. Higher is more
// relevant; the value is unbounded.
func Weight(p *model.ReportPayload, run *Run) float64 {
	w := baseWeight

	if p.Type.IsFilterIssue() {
		n := len(p.Subscriptions)
		if n == 0 {
			n = 1
		}
		w /= float64(n)
	}

	if p.HasScreenshot() {
		if p.ScreenshotEdited {
			w += editedScreenshotBonus
		} else {
			w += plainScreenshotBonus
		}
	}

	if len(p.KnownIssues) > 0 {
		w -= knownIssuesPenalty
	}

	switch {
	case testWordRe.MatchString(p.Comment):
		w -= testCommentPenalty
	case nonSpaceRe.MatchString(p.Comment):
		w += commentBonus
	}

	if p.HasEmail() {
		w += emailBonus
	}

	return w + maxRecencyBonus*recency(p.Time, run.Start, run.Now)
}

// recency maps a creation time in epoch seconds to [0, 1] across the
// window from start to now. An empty window yields 0.
func recency(created float64, start, now time.Time) float64 {
	from := epochSeconds(start)
	span := epochSeconds(now) - from
	if span <= 0 {
		return 0
	}
	ratio := (created - from) / span
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
