package digest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sitescripts/internal/model"
)

func report(guid, site string, weight float64) *model.ReportView {
	return &model.ReportView{GUID: guid, Site: site, Weight: weight}
}

type groupSummary struct {
	Name    string
	Reports []string
	Weight  float64
	DumpAll bool
}

func summarize(groups []*model.Group) []groupSummary {
	var out []groupSummary
	for _, g := range groups {
		out = append(out, groupSummary{Name: g.Name, Reports: guids(g.Reports), Weight: g.Weight, DumpAll: g.DumpAll})
	}
	return out
}

func TestGroupReports(t *testing.T) {
	tests := []struct {
		name    string
		reports []*model.ReportView
		want    []groupSummary
	}{
		{
			name:    "no reports",
			reports: nil,
			want:    nil,
		},
		{
			name: "two reports for one site and a singleton",
			reports: []*model.ReportView{
				report("r1", "example.com", 1.0),
				report("r2", "example.com", 1.5),
				report("r3", "other.com", 1.2),
			},
			want: []groupSummary{
				{Name: "example.com", Reports: []string{"r2", "r1"}, Weight: 2.5},
				{Name: "Misc", Reports: []string{"r3"}, Weight: 1.2, DumpAll: true},
			},
		},
		{
			name: "groups ordered by summed weight",
			reports: []*model.ReportView{
				report("a1", "a.com", 0.5),
				report("b1", "b.com", 1.0),
				report("a2", "a.com", 0.5),
				report("b2", "b.com", 1.0),
				report("c1", "c.com", 0.2),
				report("c2", "c.com", 0.2),
				report("c3", "c.com", 0.2),
			},
			want: []groupSummary{
				{Name: "b.com", Reports: []string{"b1", "b2"}, Weight: 2.0},
				{Name: "a.com", Reports: []string{"a1", "a2"}, Weight: 1.0},
				{Name: "c.com", Reports: []string{"c1", "c2", "c3"}, Weight: 0.6000000000000001},
			},
		},
		{
			name: "misc sorts last even when heavier",
			reports: []*model.ReportView{
				report("x1", "x.com", 0.1),
				report("x2", "x.com", 0.1),
				report("s1", "one.com", 2.0),
				report("s2", "two.com", 3.0),
			},
			want: []groupSummary{
				{Name: "x.com", Reports: []string{"x1", "x2"}, Weight: 0.2},
				{Name: "Misc", Reports: []string{"s2", "s1"}, Weight: 5.0, DumpAll: true},
			},
		},
		{
			name: "only singletons",
			reports: []*model.ReportView{
				report("s1", "one.com", 1.0),
				report("s2", "two.com", 1.0),
			},
			want: []groupSummary{
				{Name: "Misc", Reports: []string{"s1", "s2"}, Weight: 2.0, DumpAll: true},
			},
		},
		{
			name: "equal weights keep input order",
			reports: []*model.ReportView{
				report("p1", "p.com", 1.0),
				report("q1", "q.com", 1.0),
				report("p2", "p.com", 1.0),
				report("q2", "q.com", 1.0),
			},
			want: []groupSummary{
				{Name: "p.com", Reports: []string{"p1", "p2"}, Weight: 2.0},
				{Name: "q.com", Reports: []string{"q1", "q2"}, Weight: 2.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(GroupReports(tt.reports))
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("GroupReports() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroupReportsOrdering(t *testing.T) {
	var reports []*model.ReportView
	sites := []string{"a", "b", "c", "d", "a", "b", "c", "a", "e", "f", "f"}
	for i, site := range sites {
		reports = append(reports, report(site+string(rune('0'+i)), site, float64((i*7)%5)/2))
	}

	groups := GroupReports(reports)

	for i, g := range groups {
		if g.DumpAll {
			if i != len(groups)-1 {
				t.Errorf("misc group at position %d of %d", i, len(groups))
			}
		} else if len(g.Reports) < 2 {
			t.Errorf("group %s has %d reports, singletons belong in misc", g.Name, len(g.Reports))
		}
		for j := 1; j < len(g.Reports); j++ {
			if g.Reports[j-1].Weight < g.Reports[j].Weight {
				t.Errorf("group %s: report %d weight %v before %v", g.Name, j-1, g.Reports[j-1].Weight, g.Reports[j].Weight)
			}
		}
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].DumpAll {
			continue
		}
		if groups[i-1].Weight < groups[i].Weight {
			t.Errorf("group %s (%v) before heavier %s (%v)", groups[i-1].Name, groups[i-1].Weight, groups[i].Name, groups[i].Weight)
		}
	}

	total := 0
	for _, g := range groups {
		total += len(g.Reports)
	}
	if diff := cmp.Diff(len(reports), total); diff != "" {
		t.Errorf("report count mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectReports(t *testing.T) {
	def := fallbackRecipient()
	reports := []*model.ReportView{
		{GUID: "r1", Recipients: []model.Recipient{easyList}},
		{GUID: "r2", Recipients: []model.Recipient{privacy, easyList}},
		{GUID: "r3", Recipients: []model.Recipient{def}},
	}

	tests := []struct {
		name      string
		recipient model.Recipient
		want      []string
	}{
		{name: "easylist", recipient: easyList, want: []string{"r1", "r2"}},
		{name: "privacy", recipient: privacy, want: []string{"r2"}},
		{name: "default", recipient: def, want: []string{"r3"}},
		{name: "nobody", recipient: weekly, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guids(SelectReports(reports, tt.recipient))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectReports() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
