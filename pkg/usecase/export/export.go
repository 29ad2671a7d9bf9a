// Package export publishes one stored generation to database sinks.
package export

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

var ErrNoSink = goerr.New("no export destination configured")

// Sink receives a whole generation
type Sink interface {
	Name() string
	WriteGeneration(ctx context.Context, gen model.Generation, queries []*model.Query, corpus []*model.Document) error
}

// Result reports what was exported
type Result struct {
	Generation model.Generation
	Queries    int
	Documents  int
	Sinks      []string
}

type UseCase struct {
	storage adapter.Storage
	dir     string
	sinks   []Sink
	now     func() time.Time
}

type Option func(*UseCase)

func WithSink(s Sink) Option {
	return func(uc *UseCase) {
		uc.sinks = append(uc.sinks, s)
	}
}

func New(storage adapter.Storage, dir string, opts ...Option) *UseCase {
	uc := &UseCase{
		storage: storage,
		dir:     dir,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run loads gen from storage and writes it to every sink in order
func (uc *UseCase) Run(ctx context.Context, gen model.Generation) (*Result, error) {
	if len(uc.sinks) == 0 {
		return nil, ErrNoSink
	}

	g, err := dataset.Load(ctx, uc.storage, uc.dir, gen)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load generation", goerr.V("generation", gen))
	}

	result := &Result{Generation: gen, Queries: len(g.Queries), Documents: len(g.Corpus)}
	for _, s := range uc.sinks {
		start := uc.now()
		if err := s.WriteGeneration(ctx, gen, g.Queries, g.Corpus); err != nil {
			return nil, goerr.Wrap(err, "failed to export generation", goerr.V("sink", s.Name()), goerr.V("generation", gen))
		}
		logging.From(ctx).Info("generation exported",
			"sink", s.Name(),
			"generation", gen,
			"queries", result.Queries,
			"documents", result.Documents,
			"elapsed", uc.now().Sub(start),
		)
		result.Sinks = append(result.Sinks, s.Name())
	}
	return result, nil
}

type sqliteSink struct {
	db *adapter.SQLite
}

// NewSQLiteSink writes into a local SQLite database
func NewSQLiteSink(db *adapter.SQLite) Sink {
	return &sqliteSink{db: db}
}

func (s *sqliteSink) Name() string { return "sqlite" }

func (s *sqliteSink) WriteGeneration(ctx context.Context, gen model.Generation, queries []*model.Query, corpus []*model.Document) error {
	return s.db.WriteGeneration(ctx, gen, queries, corpus)
}
