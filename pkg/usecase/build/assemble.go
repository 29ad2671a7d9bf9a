package build

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/extract"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

var ErrMissingSource = goerr.New("configured source was not loaded")

// Output is the assembled raw generation
type Output struct {
	Queries []*model.Query
	Corpus  []*model.Document
	Report  *Report
}

// Assemble runs every configured extractor in pipeline order on one shared
// registry and random sequence, pads the corpus with random negatives up to
// cfg.CorpusSize and shuffles the corpus once at the end.
func Assemble(ctx context.Context, cfg *model.Config, datasets map[model.Source]source.Dataset, rng extract.Shuffler) (*Output, error) {
	reg := extract.NewRegistry()
	report := &Report{
		Seed:         cfg.Seed,
		Requested:    cfg.TotalRequested(),
		CorpusTarget: cfg.CorpusSize,
	}

	var (
		queries []*model.Query
		gold    []*model.Document
		hardNeg []*model.Document
	)

	for _, sc := range cfg.OrderedSources() {
		ds, ok := datasets[sc.Name]
		if !ok {
			return nil, goerr.Wrap(ErrMissingSource, "cannot extract", goerr.V("source", sc.Name))
		}
		x, err := extract.New(ds)
		if err != nil {
			return nil, err
		}

		res := x.Extract(ctx, reg, rng, sc.Count)
		queries = append(queries, res.Queries...)
		gold = append(gold, res.Gold...)
		hardNeg = append(hardNeg, res.HardNegatives...)
		report.Sources = append(report.Sources, SourceReport{Source: sc.Name, Stats: res.Stats})
	}

	report.Queries = len(queries)
	report.GoldDocs = len(gold)
	report.HardNegatives = len(hardNeg)
	report.Shortfall = cfg.CorpusSize - (len(gold) + len(hardNeg))

	var randomNeg []*model.Document
	if report.Shortfall > 0 {
		bf := NewBackfill(negativePools(datasets)...)
		randomNeg, report.BackfillPool = bf.Collect(ctx, reg, rng, report.Shortfall)
	}
	report.RandomNegatives = len(randomNeg)

	corpus := make([]*model.Document, 0, len(gold)+len(hardNeg)+len(randomNeg))
	corpus = append(corpus, gold...)
	corpus = append(corpus, hardNeg...)
	corpus = append(corpus, randomNeg...)
	rng.Shuffle(len(corpus), func(i, j int) {
		corpus[i], corpus[j] = corpus[j], corpus[i]
	})

	report.CorpusSize = len(corpus)
	for _, d := range corpus {
		if d.IsGold {
			report.GoldFlagged++
		}
	}
	report.NonGold = report.CorpusSize - report.GoldFlagged

	logging.From(ctx).Info("assembled corpus",
		"queries", report.Queries,
		"gold", report.GoldDocs,
		"hard_negatives", report.HardNegatives,
		"random_negatives", report.RandomNegatives,
		"corpus", report.CorpusSize,
	)

	return &Output{Queries: queries, Corpus: corpus, Report: report}, nil
}

func negativePools(datasets map[model.Source]source.Dataset) []source.NegativePool {
	var pools []source.NegativePool
	for _, src := range model.AllSources() {
		if p, ok := datasets[src].(source.NegativePool); ok {
			pools = append(pools, p)
		}
	}
	return pools
}
