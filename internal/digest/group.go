package digest

import (
	"sort"

	"sitescripts/internal/model"
)

// MiscGroupName names the group collecting sites with a single report.
const MiscGroupName = "Misc"

// SelectReports returns the reports addressed to r, keeping their order.
func SelectReports(reports []*model.ReportView, r model.Recipient) []*model.ReportView {
	var selected []*model.ReportView
	for _, v := range reports {
		if v.HasRecipient(r) {
			selected = append(selected, v)
		}
	}
	return selected
}

// GroupReports buckets reports by site. Sites with a single report are
// collected in one Misc group that is always listed last. Other groups
// are ordered by summed weight and reports within every group by weight,
// both descending; equal weights keep their input order.
func GroupReports(reports []*model.ReportView) []*model.Group {
	var bySite []*model.Group
	index := make(map[string]*model.Group)
	for _, r := range reports {
		g, ok := index[r.Site]
		if !ok {
			g = &model.Group{Name: r.Site}
			index[r.Site] = g
			bySite = append(bySite, g)
		}
		g.Reports = append(g.Reports, r)
		g.Weight += r.Weight
	}

	var misc *model.Group
	groups := make([]*model.Group, 0, len(bySite)+1)
	for _, g := range bySite {
		if len(g.Reports) > 1 {
			groups = append(groups, g)
			continue
		}
		if misc == nil {
			misc = &model.Group{Name: MiscGroupName, DumpAll: true}
		}
		misc.Reports = append(misc.Reports, g.Reports[0])
		misc.Weight += g.Reports[0].Weight
	}
	if misc != nil {
		groups = append(groups, misc)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.DumpAll != b.DumpAll {
			return b.DumpAll
		}
		return a.Weight > b.Weight
	})
	for _, g := range groups {
		sort.SliceStable(g.Reports, func(i, j int) bool {
			return g.Reports[i].Weight > g.Reports[j].Weight
		})
	}
	return groups
}
