// Package extract converts native source records into normalized queries
// and documents. Every source has its own Extractor variant; all variants
// share the Registry and the random sequence handed in by the caller.
package extract

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

var ErrUnsupportedDataset = goerr.New("unsupported dataset type")

// Shuffler is the injected random sequence. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewRandom returns the process-wide random sequence for seed
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Extractor produces queries and documents from one source
type Extractor interface {
	Source() model.Source
	// Extract samples up to count queries. Accepted content is added to reg.
	// Fewer than count queries is not an error.
	Extract(ctx context.Context, reg *Registry, rng Shuffler, count int) *Result
}

// Stats summarizes one extraction
type Stats struct {
	Requested       int `json:"requested"`
	Candidates      int `json:"candidates"`
	Accepted        int `json:"accepted"`
	GoldDocs        int `json:"gold_docs"`
	HardNegatives   int `json:"hard_negatives"`
	DroppedGoldRefs int `json:"dropped_gold_refs"`
	Skipped         int `json:"skipped"`
}

// Result is the output of one extractor
type Result struct {
	Source        model.Source
	Queries       []*model.Query
	Gold          []*model.Document
	HardNegatives []*model.Document
	Stats         Stats
}

// New returns the extractor variant for ds
func New(ds source.Dataset) (Extractor, error) {
	switch v := ds.(type) {
	case *source.DRCD:
		return &drcdExtractor{ds: v}, nil
	case *source.SQuAD:
		return &squadExtractor{ds: v}, nil
	case *source.MSMarco:
		return &marcoExtractor{ds: v}, nil
	case *source.MultiHop:
		return &multiHopExtractor{ds: v}, nil
	default:
		return nil, goerr.Wrap(ErrUnsupportedDataset, "no extractor", goerr.V("type", ds))
	}
}

func newResult(src model.Source, count int) *Result {
	return &Result{Source: src, Stats: Stats{Requested: count}}
}

func (r *Result) accept(reg *Registry, q *model.Query, docs []*model.Document) {
	r.Queries = append(r.Queries, q)
	for _, d := range docs {
		if d.IsGold {
			r.Gold = append(r.Gold, d)
		} else {
			r.HardNegatives = append(r.HardNegatives, d)
		}
		reg.Add(d.Content)
	}
	r.Stats.Accepted = len(r.Queries)
	r.Stats.GoldDocs = len(r.Gold)
	r.Stats.HardNegatives = len(r.HardNegatives)
}

func (r *Result) log(ctx context.Context) {
	logger := logging.From(ctx)
	logger.Info("extracted source",
		"source", r.Source,
		"queries", r.Stats.Accepted,
		"gold", r.Stats.GoldDocs,
		"hard_negatives", r.Stats.HardNegatives,
	)
	if r.Stats.Accepted < r.Stats.Requested {
		logger.Info("source under-filled",
			"source", r.Source,
			"requested", r.Stats.Requested,
			"accepted", r.Stats.Accepted,
			"candidates", r.Stats.Candidates,
		)
	}
}

func shuffle[T any](rng Shuffler, items []T) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func singleHopQuery(src model.Source, originalID, question, answer string, doc model.DocID) *model.Query {
	return &model.Query{
		QuestionID:   model.NewQuestionID(src, originalID),
		Question:     question,
		GoldAnswer:   answer,
		GoldDocIDs:   []model.DocID{doc},
		Source:       src,
		QuestionType: src.QuestionType(),
	}
}

func newDocument(src model.Source, originalID, content string, gold bool) *model.Document {
	return &model.Document{
		DocID:          model.NewDocID(src, originalID),
		Content:        content,
		OriginalSource: src,
		OriginalID:     originalID,
		IsGold:         gold,
	}
}
