// Package verify checks dataset generations against the benchmark
// invariants. Every problem is recorded in the report; nothing found in the
// data stops the run.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/metrics"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/policy"
	"github.com/yenchangchen131/BEARS-dataset/pkg/repository"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

// Phase is a state of one verify run
type Phase string

const (
	PhaseInit          Phase = "INIT"
	PhaseFileExistence Phase = "FILE_EXISTENCE"
	PhaseSkip          Phase = "SKIP"
	PhasePairChecks    Phase = "PAIR_CHECKS"
	PhaseCrossChecks   Phase = "CROSS_CHECKS"
	PhaseDone          Phase = "DONE"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Validator runs the verify command
type Validator struct {
	storage adapter.Storage
	cfg     *model.Config
	dir     string

	script       *Script
	queryFields  []*field
	corpusFields []*field

	policy  *policy.Engine
	repo    repository.Repository
	metrics *metrics.Metrics
	output  io.Writer
	format  Format
	now     func() time.Time

	phases []Phase
}

// Option is a functional option for Validator
type Option func(*Validator)

func WithOutput(w io.Writer) Option {
	return func(v *Validator) {
		v.output = w
	}
}

func WithFormat(f Format) Option {
	return func(v *Validator) {
		v.format = f
	}
}

// WithPolicy adds checks defined by Rego rules
func WithPolicy(e *policy.Engine) Option {
	return func(v *Validator) {
		v.policy = e
	}
}

func WithRepository(repo repository.Repository) Option {
	return func(v *Validator) {
		v.repo = repo
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator for the generations stored under dir
func New(storage adapter.Storage, cfg *model.Config, dir string, opts ...Option) (*Validator, error) {
	script, err := ParseScript(cfg.Verify.TargetLanguage)
	if err != nil {
		return nil, err
	}
	queryFields, err := resolveFields(querySchema())
	if err != nil {
		return nil, err
	}
	corpusFields, err := resolveFields(corpusSchema())
	if err != nil {
		return nil, err
	}

	v := &Validator{
		storage:      storage,
		cfg:          cfg,
		dir:          dir,
		script:       script,
		queryFields:  queryFields,
		corpusFields: corpusFields,
		output:       os.Stdout,
		format:       FormatText,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Phases returns the states visited by the last run
func (v *Validator) Phases() []Phase {
	return v.phases
}

func (v *Validator) enter(ctx context.Context, p Phase, generation string) {
	v.phases = append(v.phases, p)
	logging.From(ctx).Debug("verify phase", "phase", p, "generation", generation)
}

// Run verifies both generations and, when all four files exist, their
// consistency. The returned error is only about rendering or storing the
// report, never about the data.
func (v *Validator) Run(ctx context.Context) (*Report, error) {
	report := v.Verify(ctx)

	switch v.format {
	case FormatJSON:
		if err := report.RenderJSON(v.output); err != nil {
			return report, err
		}
	default:
		report.Render(v.output)
	}

	if err := v.recordRun(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// Verify runs every check and returns the report
func (v *Validator) Verify(ctx context.Context) *Report {
	v.phases = nil
	v.enter(ctx, PhaseInit, "")

	report := &Report{}
	loaded := make(map[model.Generation]*records)
	allExist := true

	for _, gen := range model.AllGenerations() {
		label := gen.Label()
		v.enter(ctx, PhaseFileExistence, label)

		if missing := v.checkFiles(ctx, report, gen); len(missing) > 0 {
			allExist = false
			v.enter(ctx, PhaseSkip, label)
			report.add(&Check{
				Generation: label,
				Stage:      StageFileExistence,
				Name:       "generation",
				Status:     StatusSkip,
				Message:    fmt.Sprintf("%s checks skipped (missing: %s)", label, strings.Join(missing, ", ")),
			})
			continue
		}

		recs, err := v.load(ctx, gen)
		if err != nil {
			logging.From(ctx).Warn("failed to load generation", "generation", label, "error", err)
			report.add(&Check{
				Generation: label,
				Stage:      StageFileExistence,
				Name:       "load",
				Status:     StatusFail,
				Message:    fmt.Sprintf("%s data could not be read: %v", label, err),
				Violations: 1,
			})
			continue
		}

		v.enter(ctx, PhasePairChecks, label)
		for _, c := range v.pairChecks(ctx, recs, gen == model.GenerationProcessed) {
			report.add(c)
		}
		loaded[gen] = recs
	}

	if allExist {
		v.enter(ctx, PhaseCrossChecks, CrossLabel)
		raw, rawOK := loaded[model.GenerationRaw]
		processed, procOK := loaded[model.GenerationProcessed]
		if rawOK && procOK {
			for _, c := range v.checkCross(raw, processed) {
				report.add(c)
			}
		} else {
			report.add(&Check{
				Generation: CrossLabel,
				Stage:      StageCrossChecks,
				Name:       "cross",
				Status:     StatusSkip,
				Message:    "cross checks skipped because a generation could not be read",
			})
		}
	}

	v.enter(ctx, PhaseDone, "")

	if v.metrics != nil {
		for _, c := range report.Checks {
			v.metrics.CountCheck(c.Generation, string(c.Status))
		}
	}
	return report
}

// checkFiles records one check per file of gen and returns the missing ones
func (v *Validator) checkFiles(ctx context.Context, report *Report, gen model.Generation) []string {
	var missing []string
	for _, name := range []string{gen.QueriesFile(), gen.CorpusFile()} {
		c := &Check{Generation: gen.Label(), Stage: StageFileExistence, Name: name}
		ok, err := v.storage.Exists(ctx, path.Join(v.dir, name))
		switch {
		case err != nil:
			c.Status = StatusFail
			c.Message = fmt.Sprintf("cannot stat %s: %v", name, err)
			c.Violations = 1
			missing = append(missing, name)
		case ok:
			c.Status = StatusPass
			c.Message = name + " exists"
		default:
			c.Status = StatusSkip
			c.Message = name + " not found"
			missing = append(missing, name)
		}
		report.add(c)
	}
	return missing
}

func (v *Validator) load(ctx context.Context, gen model.Generation) (*records, error) {
	qKey, cKey := gen.Paths(v.dir)
	recs := &records{label: gen.Label()}

	var err error
	if recs.queries, err = v.readArray(ctx, qKey); err != nil {
		return nil, err
	}
	if recs.corpus, err = v.readArray(ctx, cKey); err != nil {
		return nil, err
	}
	return recs, nil
}

func (v *Validator) readArray(ctx context.Context, key string) ([]any, error) {
	var out []any
	if err := dataset.ReadJSON(ctx, v.storage, key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *Validator) pairChecks(ctx context.Context, recs *records, checkLanguage bool) []*Check {
	var out []*Check
	out = append(out, v.checkCounts(recs)...)
	out = append(out, v.checkSchemas(recs)...)
	out = append(out, v.checkReferences(recs)...)
	out = append(out, v.checkUniqueness(recs)...)
	if checkLanguage {
		out = append(out, v.checkLanguage(recs)...)
	}
	if v.policy != nil {
		out = append(out, v.checkPolicy(ctx, recs)...)
	}
	return out
}

func (v *Validator) checkPolicy(ctx context.Context, recs *records) []*Check {
	result, err := v.policy.Evaluate(ctx, &policy.Input{
		Generation: recs.label,
		Queries:    recs.queries,
		Corpus:     recs.corpus,
	})
	if err != nil {
		return []*Check{{
			Generation: recs.label,
			Stage:      StagePolicy,
			Name:       "policy",
			Status:     StatusFail,
			Message:    fmt.Sprintf("policy evaluation failed: %v", err),
			Violations: 1,
		}}
	}

	if len(result.Fail) == 0 && len(result.Warn) == 0 {
		return []*Check{{
			Generation: recs.label,
			Stage:      StagePolicy,
			Name:       "policy",
			Status:     StatusPass,
			Message:    "no policy violations",
		}}
	}

	var out []*Check
	for _, msg := range result.Fail {
		out = append(out, &Check{Generation: recs.label, Stage: StagePolicy, Name: "policy", Status: StatusFail, Message: msg, Violations: 1})
	}
	for _, msg := range result.Warn {
		out = append(out, &Check{Generation: recs.label, Stage: StagePolicy, Name: "policy", Status: StatusWarn, Message: msg, Violations: 1})
	}
	return out
}

func (v *Validator) recordRun(ctx context.Context, report *Report) error {
	if v.repo == nil {
		return nil
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal verify report")
	}

	run := &model.RunRecord{
		ID:        model.NewRunID(),
		Kind:      model.RunKindVerify,
		CreatedAt: v.now(),
		Seed:      int64(v.cfg.Seed),
		Failed:    report.Failed(),
		Summary:   report.Summary(),
		Report:    string(raw),
	}
	if err := v.repo.PutRun(ctx, run); err != nil {
		return goerr.Wrap(err, "failed to record verify run")
	}
	return nil
}
