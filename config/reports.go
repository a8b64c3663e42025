package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Report validation errors.
var (
	ErrNoReports         = errors.New("at least one report is required")
	ErrReportMissingName = errors.New("report name is required")
	ErrBadGroupBy        = errors.New("group_by must list one or two columns")
	ErrNoMetrics         = errors.New("at least one metric is required")
	ErrBadSortBy         = errors.New("sort_by must be one of the report's metrics")
	ErrBadPivotMetric    = errors.New("pivot must name one of the report's metrics")
	ErrPivotNeedsTwoKeys = errors.New("pivot requires exactly two group_by columns")
)

// CountMetric is the pseudo-metric usable in metrics, sort_by, and scaling:
// the number of listings per group.
const CountMetric = "count"

// ReportSpec defines one aggregation report over the normalized dataset.
type ReportSpec struct {
	Name     string   `yaml:"name"`
	GroupBy  []string `yaml:"group_by"`
	Metrics  []string `yaml:"metrics"`
	SortBy   string   `yaml:"sort_by"`
	Pivot    string   `yaml:"pivot"`    // metric to pivot over; empty = no pivot
	Scale    bool     `yaml:"scale"`    // min-max scale the metrics to [0,1]
	Required []string `yaml:"required"` // extra columns a row must carry
}

// Reports is the full report configuration.
type Reports struct {
	Reports []ReportSpec `yaml:"reports"`
}

// LoadReports reads the YAML report configuration at path. An empty path
// falls back to the built-in default report set.
func LoadReports(path string) (*Reports, error) {
	if path == "" {
		return DefaultReports(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reports config %q: %w", path, err)
	}

	var r Reports
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse reports config %q: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("reports config %q: %w", path, err)
	}
	return &r, nil
}

// Validate checks every report spec against the aggregation contract.
func (r *Reports) Validate() error {
	if len(r.Reports) == 0 {
		return ErrNoReports
	}
	for i, spec := range r.Reports {
		if err := spec.validate(); err != nil {
			return fmt.Errorf("report %d (%q): %w", i, spec.Name, err)
		}
	}
	return nil
}

func (s *ReportSpec) validate() error {
	if s.Name == "" {
		return ErrReportMissingName
	}
	if len(s.GroupBy) == 0 || len(s.GroupBy) > 2 {
		return ErrBadGroupBy
	}
	if len(s.Metrics) == 0 {
		return ErrNoMetrics
	}
	if s.SortBy != "" && !slices.Contains(s.Metrics, s.SortBy) {
		return ErrBadSortBy
	}
	if s.Pivot != "" {
		if len(s.GroupBy) != 2 {
			return ErrPivotNeedsTwoKeys
		}
		if !slices.Contains(s.Metrics, s.Pivot) {
			return ErrBadPivotMetric
		}
	}
	return nil
}

// RequiredColumns lists the table columns a row must carry for this report:
// grouping keys, real metric columns, and any extra required columns.
func (s *ReportSpec) RequiredColumns() []string {
	var cols []string
	cols = append(cols, s.GroupBy...)
	cols = append(cols, s.NumericColumns()...)
	for _, c := range s.Required {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// NumericColumns lists the metric columns that exist in the table, leaving
// out the count pseudo-metric.
func (s *ReportSpec) NumericColumns() []string {
	var cols []string
	for _, m := range s.Metrics {
		if m != CountMetric && !slices.Contains(cols, m) {
			cols = append(cols, m)
		}
	}
	return cols
}

// DefaultReports mirrors the stock report set: price by district, price by
// listing type, the district×type price matrix, and the scaled per-district
// profile.
func DefaultReports() *Reports {
	return &Reports{Reports: []ReportSpec{
		{
			Name:    "average_price_per_district",
			GroupBy: []string{"district"},
			Metrics: []string{"unit_price", "total_price", CountMetric},
			SortBy:  "unit_price",
		},
		{
			Name:    "average_price_per_type",
			GroupBy: []string{"type"},
			Metrics: []string{"unit_price", "total_price", CountMetric},
			SortBy:  "unit_price",
		},
		{
			Name:    "district_type_price_matrix",
			GroupBy: []string{"district", "type"},
			Metrics: []string{"unit_price", "total_price"},
			Pivot:   "unit_price",
		},
		{
			Name:     "district_profile",
			GroupBy:  []string{"district"},
			Metrics:  []string{"area", "room_count", "unit_price", "total_price", CountMetric},
			Scale:    true,
			Required: []string{"name", "type"},
		},
	}}
}
