package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"sitescripts/internal/model"
	"sitescripts/internal/storage"
	"sitescripts/internal/subscriptions"
)

const urlRoot = "https://reports.example.org/"

var (
	easyList = &model.Subscription{
		Title:     "EasyList",
		Address:   "EasyList Authors <easylist@example.org>",
		Digest:    model.CadenceDaily,
		DigestDay: 0,
		Variants: []model.Variant{
			{Title: "EasyList", URL: "https://easylist.example/easylist.txt"},
			{Title: "EasyList (min)", URL: "https://easylist.example/easylist-min.txt"},
		},
	}
	privacy = &model.Subscription{
		Title:    "Privacy",
		Address:  "privacy@example.org",
		Digest:   model.CadenceDaily,
		Variants: []model.Variant{{Title: "Privacy", URL: "https://privacy.example/list.txt"}},
	}
	weekly = &model.Subscription{
		Title:     "Weekly",
		Address:   "weekly@example.org",
		Digest:    model.CadenceWeekly,
		DigestDay: 2,
		Variants:  []model.Variant{{Title: "Weekly", URL: "https://weekly.example/list.txt"}},
	}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fallbackRecipient() *model.DefaultRecipient {
	return &model.DefaultRecipient{URL: FallbackURL, DisplayName: "Default", Address: "triage@example.org"}
}

func testRun(interval model.Interval, weekday int, now time.Time) *Run {
	subs := []*model.Subscription{easyList, privacy, weekly}
	return NewRun(interval, weekday, now, subscriptions.Select(subs, interval, weekday), fallbackRecipient())
}

type fakeSigner struct{}

func (fakeSigner) ReportSecret(guid string) string { return "sec-" + guid }

func (fakeSigner) DigestSecret(id string, year, week int) string {
	return fmt.Sprintf("dsec-%d-%d", year, week)
}

type mockMailer struct {
	mu      sync.Mutex
	digests []*model.Digest
	failOn  int
	err     error
}

func (m *mockMailer) MailDigest(_ context.Context, d *model.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil && len(m.digests) == m.failOn {
		return m.err
	}
	m.digests = append(m.digests, d)
	return nil
}

func (m *mockMailer) getDigests() []*model.Digest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*model.Digest, len(m.digests))
	copy(cp, m.digests)
	return cp
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func saveReport(t *testing.T, store storage.Storage, guid string, created time.Time, payload map[string]any) {
	t.Helper()
	if _, ok := payload["time"]; !ok {
		payload["time"] = created.Unix()
	}
	dump, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s: %v", guid, err)
	}
	r := &model.StoredReport{GUID: guid, Dump: dump, CreatedAt: created}
	if err := store.SaveReport(context.Background(), r); err != nil {
		t.Fatalf("save %s: %v", guid, err)
	}
}

func subs(ids ...string) []map[string]any {
	var out []map[string]any
	for _, id := range ids {
		out = append(out, map[string]any{"id": id})
	}
	return out
}

func filters(ids ...string) []map[string]any {
	return []map[string]any{{"subscriptions": ids}}
}

func guids(reports []*model.ReportView) []string {
	var out []string
	for _, r := range reports {
		out = append(out, r.GUID)
	}
	return out
}
