// Package build runs the extraction pipeline and writes the raw generation.
package build

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/metrics"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/repository"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/extract"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

// ReportFile is written next to the raw generation
const ReportFile = "build_report.json"

// UseCase provides the build command
type UseCase struct {
	storage adapter.Storage
	cfg     *model.Config
	rawDir  string
	outDir  string

	repo    repository.Repository
	metrics *metrics.Metrics
	output  io.Writer
	now     func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the writer the text report is printed to
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithRepository stores a run record after each build
func WithRepository(repo repository.Repository) Option {
	return func(uc *UseCase) {
		uc.repo = repo
	}
}

// WithMetrics records composition gauges
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCase) {
		uc.metrics = m
	}
}

// WithClock replaces time.Now for run records
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a build UseCase reading sources from rawDir and writing the
// raw generation to outDir
func New(storage adapter.Storage, cfg *model.Config, rawDir, outDir string, opts ...Option) *UseCase {
	uc := &UseCase{
		storage: storage,
		cfg:     cfg,
		rawDir:  rawDir,
		outDir:  outDir,
		output:  os.Stdout,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Run loads all sources, assembles the raw generation and writes it out.
// Under-filled sources are reported, not treated as errors.
func (uc *UseCase) Run(ctx context.Context) (*Report, error) {
	logger := logging.From(ctx)

	datasets, err := dataset.LoadSources(ctx, uc.storage, uc.rawDir, uc.cfg.Sources)
	if err != nil {
		return nil, err
	}
	for _, sc := range uc.cfg.OrderedSources() {
		logger.Info("loaded source", "source", sc.Name, "records", datasets[sc.Name].Len())
	}

	rng := extract.NewRandom(uc.cfg.Seed)
	out, err := Assemble(ctx, uc.cfg, datasets, rng)
	if err != nil {
		return nil, err
	}

	gen := &dataset.Generation{
		Kind:    model.GenerationRaw,
		Queries: out.Queries,
		Corpus:  out.Corpus,
	}
	if err := dataset.Save(ctx, uc.storage, uc.outDir, gen); err != nil {
		return nil, goerr.Wrap(err, "failed to save raw generation")
	}
	if err := dataset.WriteJSON(ctx, uc.storage, path.Join(uc.outDir, ReportFile), out.Report); err != nil {
		return nil, goerr.Wrap(err, "failed to save build report")
	}

	out.Report.Render(uc.output)
	uc.recordMetrics(out.Report)

	if err := uc.recordRun(ctx, out.Report); err != nil {
		return nil, err
	}

	return out.Report, nil
}

func (uc *UseCase) recordMetrics(r *Report) {
	if uc.metrics == nil {
		return
	}
	for _, s := range r.Sources {
		uc.metrics.SetQueries(s.Source.String(), s.Accepted)
	}
	uc.metrics.SetDocuments("gold", r.GoldDocs)
	uc.metrics.SetDocuments("hard_negative", r.HardNegatives)
	uc.metrics.SetDocuments("random_negative", r.RandomNegatives)
}

func (uc *UseCase) recordRun(ctx context.Context, r *Report) error {
	if uc.repo == nil {
		return nil
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal build report")
	}

	run := &model.RunRecord{
		ID:        model.NewRunID(),
		Kind:      model.RunKindBuild,
		CreatedAt: uc.now(),
		Seed:      int64(r.Seed),
		Summary:   r.Summary(),
		Report:    string(raw),
	}
	if err := uc.repo.PutRun(ctx, run); err != nil {
		return goerr.Wrap(err, "failed to record build run")
	}
	logging.From(ctx).Debug("recorded build run", "id", run.ID)
	return nil
}
