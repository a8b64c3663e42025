package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// CountColumn is the pseudo-metric name for the per-group row count. It can
// appear wherever a metric column is accepted (sorting, scaling).
const CountColumn = "count"

// GroupRow is the summary of one distinct grouping-key combination.
type GroupRow struct {
	Keys  []string
	Count int
	Means map[string]float64
}

// GroupSummary is the grouped view of a cleaned table. Key combinations are
// unique across Groups; the rows reference no source data.
type GroupSummary struct {
	GroupBy []string
	Metrics []string
	Groups  []GroupRow
}

// Metric returns the named aggregate for g. CountColumn maps to the row
// count unless a scaled value has shadowed it in Means. ok is false when no
// row in the group carried a value.
func (g *GroupRow) Metric(name string) (float64, bool) {
	if v, ok := g.Means[name]; ok {
		return v, true
	}
	if name == CountColumn {
		return float64(g.Count), true
	}
	return 0, false
}

// GroupBy partitions tab by one or two categorical columns and computes the
// row count plus the mean of each metric column per group. The grouping
// column order defines the pivot axes. sortBy picks the metric for the
// default descending presentation order; ties and an empty sortBy fall back
// to the key strings ascending, keeping output deterministic across runs.
func GroupBy(tab *CleanedTable, groupBy, metrics []string, sortBy string) (*GroupSummary, error) {
	if len(groupBy) == 0 || len(groupBy) > 2 {
		return nil, fmt.Errorf("group by wants one or two columns, got %d", len(groupBy))
	}

	type acc struct {
		keys   []string
		count  int
		sums   map[string]float64
		counts map[string]int
	}
	accs := make(map[string]*acc)

	for _, row := range tab.Rows {
		keys := make([]string, len(groupBy))
		for i, col := range groupBy {
			keys[i] = row.Strings[col]
		}
		id := strings.Join(keys, "\x1f")

		a := accs[id]
		if a == nil {
			a = &acc{
				keys:   keys,
				sums:   make(map[string]float64),
				counts: make(map[string]int),
			}
			accs[id] = a
		}
		a.count++
		for _, m := range metrics {
			if v, ok := row.Nums[m]; ok {
				a.sums[m] += v
				a.counts[m]++
			}
		}
	}

	summary := &GroupSummary{
		GroupBy: append([]string(nil), groupBy...),
		Metrics: append([]string(nil), metrics...),
		Groups:  make([]GroupRow, 0, len(accs)),
	}
	for _, a := range accs {
		g := GroupRow{
			Keys:  a.keys,
			Count: a.count,
			Means: make(map[string]float64, len(metrics)),
		}
		for _, m := range metrics {
			if n := a.counts[m]; n > 0 {
				g.Means[m] = a.sums[m] / float64(n)
			}
		}
		summary.Groups = append(summary.Groups, g)
	}

	sortGroups(summary.Groups, sortBy)
	return summary, nil
}

func sortGroups(groups []GroupRow, sortBy string) {
	sort.Slice(groups, func(i, j int) bool {
		if sortBy != "" {
			vi, oki := groups[i].Metric(sortBy)
			vj, okj := groups[j].Metric(sortBy)
			switch {
			case oki && okj && vi != vj:
				return vi > vj
			case oki != okj:
				return oki
			}
		}
		return keyLess(groups[i].Keys, groups[j].Keys)
	})
}

func keyLess(a, b []string) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// PivotTable is a two-dimensional reshape of a grouped summary: the first
// grouping key indexes rows, the second indexes columns.
type PivotTable struct {
	RowName string
	ColName string
	RowKeys []string
	ColKeys []string
	cells   map[string]map[string]float64
}

// Cell returns the aggregate for (rowKey, colKey). ok is false for key
// combinations with no observations — absent, never zero.
func (p *PivotTable) Cell(rowKey, colKey string) (float64, bool) {
	row, ok := p.cells[rowKey]
	if !ok {
		return 0, false
	}
	v, ok := row[colKey]
	return v, ok
}

// Pivot reshapes a two-key summary over the given metric. Axis keys are
// sorted ascending.
func Pivot(summary *GroupSummary, metric string) (*PivotTable, error) {
	if len(summary.GroupBy) != 2 {
		return nil, fmt.Errorf("pivot wants a summary grouped by two columns, got %d", len(summary.GroupBy))
	}

	p := &PivotTable{
		RowName: summary.GroupBy[0],
		ColName: summary.GroupBy[1],
		cells:   make(map[string]map[string]float64),
	}

	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)
	for _, g := range summary.Groups {
		rk, ck := g.Keys[0], g.Keys[1]
		if !rowSeen[rk] {
			rowSeen[rk] = true
			p.RowKeys = append(p.RowKeys, rk)
		}
		if !colSeen[ck] {
			colSeen[ck] = true
			p.ColKeys = append(p.ColKeys, ck)
		}
		v, ok := g.Metric(metric)
		if !ok {
			continue
		}
		if p.cells[rk] == nil {
			p.cells[rk] = make(map[string]float64)
		}
		p.cells[rk][ck] = v
	}

	sort.Strings(p.RowKeys)
	sort.Strings(p.ColKeys)
	return p, nil
}
