package services

import (
	"fmt"
	"sort"
	"strings"

	"newhouse-analytics/models"
	"newhouse-analytics/utils"
)

// InsightService computes dataset-wide statistics over normalized rows.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the overview report. Rows with a null price are left
// out of the price statistics but still counted.
func (s *InsightService) Generate(rows []*models.NormalizedRow) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByDistrict: make(map[string]int),
	}

	if len(rows) == 0 {
		return report
	}

	report.TotalListings = len(rows)

	var priced []*models.NormalizedRow
	var totalPriced []*models.NormalizedRow

	for _, r := range rows {
		if r.UnitPrice.Valid {
			priced = append(priced, r)
		}
		if r.TotalPrice.Valid {
			totalPriced = append(totalPriced, r)
		}
		if r.District != "" {
			report.ListingsByDistrict[r.District]++
		}
	}
	report.Districts = len(report.ListingsByDistrict)

	if len(priced) > 0 {
		report.MinUnitPrice = float64(priced[0].UnitPrice.Int64)
		report.MaxUnitPrice = float64(priced[0].UnitPrice.Int64)
		var sum float64
		for _, r := range priced {
			v := float64(r.UnitPrice.Int64)
			sum += v
			if v < report.MinUnitPrice {
				report.MinUnitPrice = v
			}
			if v > report.MaxUnitPrice {
				report.MaxUnitPrice = v
			}
		}
		report.AvgUnitPrice = round2(sum / float64(len(priced)))
	}

	if len(totalPriced) > 0 {
		var sum float64
		for _, r := range totalPriced {
			sum += float64(r.TotalPrice.Int64)
			if report.MostExpensive == nil ||
				r.TotalPrice.Int64 > report.MostExpensive.TotalPrice.Int64 {
				report.MostExpensive = r
			}
		}
		report.AvgTotalPrice = round2(sum / float64(len(totalPriced)))
	}

	return report
}

// Print renders the report to the terminal.
func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 NEW-HOUSE DATASET INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Districts      : \033[1m%d\033[0m\n", r.Districts)
	fmt.Println()

	fmt.Printf("\033[1;33m  Unit Price (per ㎡)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AvgUnitPrice > 0 {
		fmt.Printf("  Average : \033[1;32m%.2f\033[0m\n", r.AvgUnitPrice)
		fmt.Printf("  Minimum : \033[1;32m%.2f\033[0m\n", r.MinUnitPrice)
		fmt.Printf("  Maximum : \033[1;32m%.2f\033[0m\n", r.MaxUnitPrice)
	} else {
		fmt.Printf("  No unit price data available\n")
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing (total price)\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostExpensive.Name, 50))
		fmt.Printf("  District : %s\n", r.MostExpensive.District)
		fmt.Printf("  Price    : \033[1;31m%d万\033[0m\n", r.MostExpensive.TotalPrice.Int64)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Listings by District\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsByDistrict) == 0 {
		fmt.Printf("  No district data\n")
	} else {
		type distCount struct {
			district string
			count    int
		}
		var dists []distCount
		for d, cnt := range r.ListingsByDistrict {
			dists = append(dists, distCount{d, cnt})
		}
		sort.Slice(dists, func(i, j int) bool {
			if dists[i].count != dists[j].count {
				return dists[i].count > dists[j].count
			}
			return dists[i].district < dists[j].district
		})
		for _, dc := range dists {
			bar := strings.Repeat("█", dc.count)
			fmt.Printf("  %-20s %s (%d)\n", truncate(dc.district, 18), bar, dc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max runes. Counting runes, not bytes, keeps CJK
// names intact.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
