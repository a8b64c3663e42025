package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"newhouse-analytics/config"
	"newhouse-analytics/dataset"
	"newhouse-analytics/exporter"
	"newhouse-analytics/models"
	"newhouse-analytics/scraper/newhouse"
	"newhouse-analytics/services"
	"newhouse-analytics/storage"
	"newhouse-analytics/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "newhouse",
		Short:         "New-house listing normalization and analytics pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScrapeCmd(), newNormalizeCmd(), newReportCmd(), newRunCmd())
	return root
}

func setup() (*config.Config, *utils.Logger) {
	cfg := config.Load()
	return cfg, utils.New(utils.ParseLevel(cfg.LogLevel))
}

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Collect raw listing records from the listing portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()

			records, err := newhouse.New(cfg, logger).Scrape()
			if err != nil {
				logger.Error("Scrape failed: %v", err)
				return err
			}
			if len(records) == 0 {
				logger.Error("No listings were collected. Exiting.")
				return fmt.Errorf("no listings collected")
			}

			if err := writeRawJSON(cfg.RawJSONPath, records); err != nil {
				logger.Error("Failed to write raw records: %v", err)
				return err
			}
			logger.Info("Saved %d raw records to %s", len(records), cfg.RawJSONPath)
			return nil
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize the raw JSON source into the tabular artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			rows, err := normalize(cfg, logger)
			if err != nil {
				return err
			}
			if store {
				_, err = storeRows(cfg, logger, rows)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "also persist normalized rows to PostgreSQL")
	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Run the configured aggregation reports over the tabular artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			return report(cfg, logger)
		},
	}
}

func newRunCmd() *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Normalize the raw source, then run every report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()

			rows, err := normalize(cfg, logger)
			if err != nil {
				return err
			}

			insightRows := rows
			if store {
				if insightRows, err = storeRows(cfg, logger, rows); err != nil {
					return err
				}
			}

			insightSvc := services.NewInsightService(logger)
			insightSvc.Print(insightSvc.Generate(insightRows))

			return report(cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "also persist normalized rows to PostgreSQL")
	return cmd
}

// normalize drives the raw JSON → normalized CSV step and returns the rows
// it wrote. A batch where every entry was skipped still yields the
// schema-complete header, so downstream readers see an empty table rather
// than a missing file.
func normalize(cfg *config.Config, logger *utils.Logger) ([]*models.NormalizedRow, error) {
	normalizer := services.NewNormalizer(logger)

	entries, err := normalizer.ReadRecords(cfg.RawJSONPath)
	if err != nil {
		logger.Error("Raw source ingestion failed: %v", err)
		return nil, err
	}

	rows := normalizer.NormalizeAll(entries)
	if len(rows) == 0 {
		logger.Warn("No records survived normalization — writing header-only artifact")
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return nil, err
	}
	defer csvWriter.Close()

	if err := csvWriter.WriteRows(rows); err != nil {
		logger.Error("CSV write failed: %v", err)
		return nil, err
	}
	logger.Info("Normalized dataset saved to %s (%d rows)", cfg.CSVOutputPath, len(rows))
	return rows, nil
}

// storeRows persists the batch to PostgreSQL and returns the rows read back
// from the table, so insights reflect what was actually stored.
func storeRows(cfg *config.Config, logger *utils.Logger, rows []*models.NormalizedRow) ([]*models.NormalizedRow, error) {
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		return nil, err
	}
	defer pgWriter.Close()

	if err := pgWriter.WriteRows(rows); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return nil, err
	}
	logger.Info("Normalized rows stored in PostgreSQL (table: listings)")

	return fetchForInsights(pgWriter, rows, logger), nil
}

// fetchForInsights prefers the rows the store hands back; if the read-back
// fails it falls back to the in-memory batch rather than aborting the run.
func fetchForInsights(reader storage.RowReader, fallback []*models.NormalizedRow, logger *utils.Logger) []*models.NormalizedRow {
	rows, err := reader.FetchAll()
	if err != nil {
		logger.Error("Failed to fetch rows back from storage, using in-memory batch: %v", err)
		return fallback
	}
	logger.Info("Fetched %d rows back from storage for insights", len(rows))
	return rows
}

// report re-ingests the tabular artifact once per configured report and
// exports the grouped results. Structural failures (missing file, schema
// violations) abort the affected report with a diagnostic; an empty table
// after cleaning just skips it.
func report(cfg *config.Config, logger *utils.Logger) error {
	reports, err := config.LoadReports(cfg.ReportsPath)
	if err != nil {
		logger.Error("Report configuration rejected: %v", err)
		return err
	}

	ingestor := dataset.NewIngestor(logger)
	exp := exporter.New(cfg.ReportDir, logger)

	var failed int
	for _, spec := range reports.Reports {
		if err := runReport(ingestor, exp, cfg.CSVOutputPath, spec, logger); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed", failed, len(reports.Reports))
	}
	logger.Info("All %d reports written to %s", len(reports.Reports), cfg.ReportDir)
	return nil
}

func runReport(ingestor *dataset.Ingestor, exp *exporter.Exporter, source string,
	spec config.ReportSpec, logger *utils.Logger) error {

	tab, err := ingestor.Ingest(source, spec.RequiredColumns(), spec.NumericColumns())
	if err != nil {
		switch {
		case errors.Is(err, dataset.ErrMissingColumn):
			logger.Error("[report %s] Schema violation: %v", spec.Name, err)
		case errors.Is(err, dataset.ErrSourceNotFound),
			errors.Is(err, dataset.ErrSourceEmpty),
			errors.Is(err, dataset.ErrSourceMalformed):
			logger.Error("[report %s] Source unusable: %v", spec.Name, err)
		default:
			logger.Error("[report %s] Ingestion failed: %v", spec.Name, err)
		}
		return err
	}
	if tab.Empty() {
		logger.Warn("[report %s] No rows after cleaning — nothing to do", spec.Name)
		return nil
	}

	summary, err := dataset.GroupBy(tab, spec.GroupBy, spec.Metrics, spec.SortBy)
	if err != nil {
		logger.Error("[report %s] Grouping failed: %v", spec.Name, err)
		return err
	}
	if spec.Scale {
		summary = dataset.ScaleMinMax(summary, spec.Metrics)
	}

	if spec.Pivot != "" {
		pivot, err := dataset.Pivot(summary, spec.Pivot)
		if err != nil {
			logger.Error("[report %s] Pivot failed: %v", spec.Name, err)
			return err
		}
		return exp.ExportPivot(spec.Name, pivot)
	}
	return exp.ExportSummary(spec.Name, summary)
}

func writeRawJSON(path string, records []models.RawRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create raw output dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode raw records: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
