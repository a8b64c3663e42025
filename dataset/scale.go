package dataset

// ScaleMinMax rescales each listed metric of the summary independently onto
// [0,1] via (v - min) / (max - min). A zero-variance column — including the
// single-group case — maps every value to 0. The input summary is not
// mutated; group order and identity are preserved.
func ScaleMinMax(summary *GroupSummary, metrics []string) *GroupSummary {
	scaled := &GroupSummary{
		GroupBy: append([]string(nil), summary.GroupBy...),
		Metrics: append([]string(nil), summary.Metrics...),
		Groups:  make([]GroupRow, len(summary.Groups)),
	}
	for i, g := range summary.Groups {
		means := make(map[string]float64, len(g.Means))
		for k, v := range g.Means {
			means[k] = v
		}
		scaled.Groups[i] = GroupRow{
			Keys:  append([]string(nil), g.Keys...),
			Count: g.Count,
			Means: means,
		}
	}

	for _, m := range metrics {
		lo, hi, any := 0.0, 0.0, false
		for _, g := range scaled.Groups {
			v, ok := g.Metric(m)
			if !ok {
				continue
			}
			if !any || v < lo {
				lo = v
			}
			if !any || v > hi {
				hi = v
			}
			any = true
		}
		if !any {
			continue
		}

		for i := range scaled.Groups {
			g := &scaled.Groups[i]
			v, ok := g.Metric(m)
			if !ok {
				continue
			}
			if hi == lo {
				g.Means[m] = 0
				continue
			}
			g.Means[m] = (v - lo) / (hi - lo)
		}
	}
	return scaled
}
