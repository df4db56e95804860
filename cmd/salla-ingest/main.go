// cmd/salla-ingest/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/cache"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/config"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/mapper"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/pipeline"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/reader"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/schema"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/validate"
)

func main() {
	input := flag.String("input", "", "path to the export file to ingest (required)")
	platform := flag.String("platform", "", "force a platform schema instead of detecting one")
	clean := flag.Bool("clean", false, "run the removal pass after validation")
	noCache := flag.Bool("no-cache", false, "skip the on-disk mapping cache")
	yes := flag.Bool("yes", false, "approve aggregation without prompting")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: salla-ingest -input <file.csv> [-platform name] [-clean] [-yes]")
		os.Exit(2)
	}

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, cfg, *input, *platform, *clean, *noCache, *yes); err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg *config.Config, input, platform string, clean, noCache, yes bool) error {
	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	raw, meta, err := reader.New(logger, cfg.ChunkSize).ReadFile(input)
	if err != nil {
		return err
	}

	var store cache.Store
	cacheKey := ""
	if !noCache {
		s, err := cache.OpenSQLite(cfg.CachePath, logger)
		if err != nil {
			logger.Warn("mapping cache unavailable", zap.Error(err))
		} else {
			store = s
			defer s.Close()
			cacheKey = cache.FileKey(meta.Path, meta.SizeBytes)
		}
	}

	opts := pipeline.Options{
		Platform: platform,
		CacheKey: cacheKey,
		Clean:    clean,
	}
	if !yes {
		opts.ConfirmAggregation = promptAggregation
	}

	matcher := mapper.NewWithConfig(logger, matcherConfig(cfg))
	validator := validate.NewWithConfig(logger, validatorConfig(cfg))
	p := pipeline.NewWithComponents(logger, registry, store, matcher, validator)

	result, err := p.Run(context.Background(), raw, opts)
	if err != nil {
		return err
	}

	printResult(result)
	if !result.Report.IsValid {
		return errors.New("dataset failed validation, see report above")
	}
	return nil
}

// matcherConfig applies the operator-tunable matching thresholds on
// top of the matcher defaults.
func matcherConfig(cfg *config.Config) mapper.Config {
	mc := mapper.DefaultConfig()
	mc.ConfidenceThreshold = cfg.ConfidenceThreshold
	mc.SuggestionFloor = cfg.SuggestionFloor
	mc.SuggestionLimit = cfg.SuggestionLimit
	return mc
}

// validatorConfig applies the operator-tunable validation thresholds
// on top of the validator defaults.
func validatorConfig(cfg *config.Config) validate.Config {
	vc := validate.DefaultConfig()
	vc.ErrorCeiling = cfg.ErrorCeiling
	return vc
}

func loadRegistry(cfg *config.Config, logger *zap.Logger) (*schema.Registry, error) {
	if cfg.RegistryPath != "" {
		return schema.Load(cfg.RegistryPath, logger)
	}
	return schema.Default(logger)
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// promptAggregation asks the operator before collapsing line items,
// since aggregation changes row cardinality and cannot be undone from
// the output alone.
func promptAggregation(d model.Detection) bool {
	fmt.Printf("\nLine-item data detected (confidence %.2f):\n", d.Confidence)
	for _, indicator := range d.Indicators {
		fmt.Printf("  - %s\n", indicator)
	}
	fmt.Printf("Proposed strategy: %s\n", d.Strategy)
	fmt.Print("Aggregate line items into orders? [y/N]: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func printResult(r *pipeline.Result) {
	fmt.Printf("\nRun %s (%s, %s)\n", r.RunID, r.Platform, r.Duration.Round(1e6))

	fmt.Println("\nMapped fields:")
	for _, field := range r.Mapping.MappedFields() {
		fm := r.Mapping.Fields[field]
		fmt.Printf("  %-16s <- %-24s (%.2f)\n", field, fm.Source, fm.Confidence)
	}

	if r.Aggregation != nil {
		fmt.Printf("\nAggregated %d rows into %d orders (%.1f items/order, revenue %.2f)\n",
			r.Aggregation.OriginalRows, r.Aggregation.AggregatedRows,
			r.Aggregation.AvgItemsPerOrder, r.Aggregation.TotalRevenue)
	}
	if r.AggregationDeclined {
		fmt.Println("\nAggregation declined: output remains at line-item level")
	}

	rep := r.Report
	fmt.Printf("\nValidation: valid=%v quality=%.2f rows=%d\n", rep.IsValid, rep.QualityScore, rep.TotalRows)
	for _, e := range rep.Errors {
		fmt.Printf("  ERROR   %s\n", e)
	}
	for _, w := range rep.Warnings {
		fmt.Printf("  warning %s\n", w)
	}

	if r.Cleaning != nil {
		fmt.Printf("\nCleaning: %d -> %d rows\n", r.Cleaning.OriginalRows, r.Cleaning.FinalRows)
		for _, step := range r.Cleaning.Steps {
			fmt.Printf("  %s\n", step)
		}
	}
}
