// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/aggregate"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/cache"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/mapper"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/schema"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/validate"
)

// requiredIDFields are the identity columns the cleaner refuses to
// leave empty.
var requiredIDFields = []string{"order_id", "customer_id"}

// Options controls one pipeline run.
type Options struct {
	// Platform forces a platform schema instead of detecting one.
	Platform string

	// CacheKey enables the mapping cache for this run, read before
	// matching and written after a successful run. Derive it with
	// cache.FileKey. Empty disables caching.
	CacheKey string

	// ConfirmAggregation gates the aggregation step, since collapsing
	// line items changes row cardinality and is not silently
	// reversible. Nil approves automatically; returning false skips
	// aggregation and leaves the table at line-item level.
	ConfirmAggregation func(model.Detection) bool

	// Clean runs the removal pass after validation.
	Clean bool
}

// Result carries every artifact of a run for display and audit.
type Result struct {
	RunID    string
	Platform string
	Mapping  *model.Mapping

	Detection model.Detection
	// AggregationDeclined is set when detection asked for aggregation
	// but the confirmation gate refused it.
	AggregationDeclined bool
	Aggregation         *model.AggregationSummary

	Report   *model.ValidationReport
	Cleaning *model.CleaningSummary

	// Table is the final canonical table after every applied stage.
	Table *table.Table

	Duration time.Duration
}

// Pipeline runs the full ingestion pass: platform detection, schema
// matching, granularity detection, aggregation, validation and the
// opt-in cleaning step. One synchronous batch pass per call; no stage
// runs concurrently.
type Pipeline struct {
	logger     *zap.Logger
	registry   *schema.Registry
	matcher    *mapper.Matcher
	detector   *aggregate.Detector
	aggregator *aggregate.Aggregator
	validator  *validate.Validator
	cleaner    *validate.Cleaner
	store      cache.Store
}

// New assembles a pipeline. The store may be nil to disable mapping
// caching regardless of Options.CacheKey.
func New(logger *zap.Logger, registry *schema.Registry, store cache.Store) *Pipeline {
	return &Pipeline{
		logger:     logger,
		registry:   registry,
		matcher:    mapper.New(logger),
		detector:   aggregate.NewDetector(logger),
		aggregator: aggregate.NewAggregator(logger),
		validator:  validate.New(logger),
		cleaner:    validate.NewCleaner(logger),
		store:      store,
	}
}

// NewWithComponents assembles a pipeline from pre-built components,
// for callers that need non-default thresholds.
func NewWithComponents(logger *zap.Logger, registry *schema.Registry, store cache.Store,
	matcher *mapper.Matcher, validator *validate.Validator) *Pipeline {
	p := New(logger, registry, store)
	p.matcher = matcher
	p.validator = validator
	return p
}

// Run executes one ingestion pass over a fully materialized raw table.
// Fatal schema and aggregation problems return an error immediately;
// validation problems accumulate in the report and only halt the run
// past the error ceiling.
func (p *Pipeline) Run(ctx context.Context, raw *table.Table, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String()}

	logger := p.logger.With(zap.String("run_id", result.RunID))
	logger.Info("pipeline run starting",
		zap.Int("rows", raw.Len()),
		zap.Int("columns", len(raw.Columns())),
	)

	result.Platform = opts.Platform
	if result.Platform == "" {
		result.Platform = p.registry.DetectPlatform(raw.Columns())
	}
	ps := p.registry.Schema(result.Platform)
	logger.Info("platform selected", zap.String("platform", result.Platform))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Mapping = p.resolveMapping(raw, ps, opts, logger)
	result.Mapping.Platform = result.Platform
	canonical := mapper.Project(raw, result.Mapping, ps)

	result.Detection = p.detector.Detect(canonical)

	// The fatal gate runs after granularity detection: a line-item
	// dataset has no order identifier yet, aggregation synthesizes it.
	missing := unmappedRequired(result.Mapping, ps)
	if result.Detection.RequiresAggregation {
		missing = without(missing, "order_id")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{
			Platform:   result.Platform,
			Fields:     missing,
			Candidates: candidatesFor(result.Mapping, missing),
		}
	}

	if result.Detection.RequiresAggregation {
		if opts.ConfirmAggregation != nil && !opts.ConfirmAggregation(result.Detection) {
			result.AggregationDeclined = true
			logger.Warn("aggregation declined, keeping line-item rows",
				zap.String("strategy", result.Detection.Strategy.String()))
		} else {
			aggregated, summary, err := p.aggregator.Aggregate(canonical, result.Detection.Strategy)
			if err != nil {
				return nil, err
			}
			canonical = aggregated
			result.Aggregation = summary
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	validated, report, err := p.validator.Validate(canonical, ps)
	result.Report = report
	if report != nil {
		report.Warnings = append(result.Mapping.Warnings, report.Warnings...)
	}
	if err != nil {
		return result, err
	}
	canonical = validated

	if opts.Clean {
		cleaned, summary := p.cleaner.Clean(canonical, requiredIDFields)
		canonical = cleaned
		result.Cleaning = summary
	}

	result.Table = canonical
	p.storeMapping(opts.CacheKey, result.Mapping, logger)

	result.Duration = time.Since(start)
	logger.Info("pipeline run finished",
		zap.String("platform", result.Platform),
		zap.Bool("is_valid", report.IsValid),
		zap.Int("final_rows", canonical.Len()),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// resolveMapping returns the cached mapping when one exists for the
// key, otherwise computes a fresh match. Cache failures degrade to a
// fresh match.
func (p *Pipeline) resolveMapping(raw *table.Table, ps *schema.PlatformSchema, opts Options, logger *zap.Logger) *model.Mapping {
	if p.store != nil && opts.CacheKey != "" {
		cached, ok, err := p.store.Get(opts.CacheKey)
		if err != nil {
			logger.Warn("mapping cache read failed",
				zap.String("key", opts.CacheKey), zap.Error(err))
		} else if ok && mappingUsable(cached, raw) {
			logger.Info("mapping cache hit", zap.String("key", opts.CacheKey))
			return cached
		}
	}
	return p.matcher.Match(raw.Columns(), ps)
}

func (p *Pipeline) storeMapping(key string, mapping *model.Mapping, logger *zap.Logger) {
	if p.store == nil || key == "" {
		return
	}
	if err := p.store.Put(key, mapping); err != nil {
		logger.Warn("mapping cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

// mappingUsable rejects a cached mapping whose source columns no
// longer exist in the raw table.
func mappingUsable(mapping *model.Mapping, raw *table.Table) bool {
	for _, field := range mapping.MappedFields() {
		source, _ := mapping.Source(field)
		if !raw.HasColumn(source) {
			return false
		}
	}
	return len(mapping.MappedFields()) > 0
}

func unmappedRequired(mapping *model.Mapping, ps *schema.PlatformSchema) []string {
	missing := []string{}
	for _, field := range ps.RequiredFields() {
		if !mapping.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func without(fields []string, drop string) []string {
	out := fields[:0]
	for _, f := range fields {
		if f != drop {
			out = append(out, f)
		}
	}
	return out
}

func candidatesFor(mapping *model.Mapping, fields []string) map[string][]model.Suggestion {
	out := make(map[string][]model.Suggestion, len(fields))
	for _, field := range fields {
		out[field] = mapping.Suggestions[field]
	}
	return out
}
