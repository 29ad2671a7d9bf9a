// Package translate produces the processed generation from the raw one by
// translating every non-native record with an LLM provider. Identifiers,
// flags and order are carried over unchanged.
package translate

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrency = 4
	DefaultRate        = rate.Limit(5)
)

// Result counts what one translate run did
type Result struct {
	Queries   int `json:"queries"`
	Documents int `json:"documents"`
	// Texts is the number of distinct strings sent to the provider
	Texts  int `json:"texts"`
	Exempt int `json:"exempt"`
}

type UseCase struct {
	storage    adapter.Storage
	cfg        *model.Config
	dir        string
	translator Translator

	concurrency int
	limiter     *rate.Limiter
	progress    io.Writer
}

type Option func(*UseCase)

// WithConcurrency sets the number of in-flight provider calls
func WithConcurrency(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// WithRateLimit sets requests per second and burst of provider calls
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(uc *UseCase) {
		uc.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithProgress sets where the spinner is drawn. nil disables it.
func WithProgress(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.progress = w
	}
}

func New(storage adapter.Storage, cfg *model.Config, dir string, translator Translator, opts ...Option) *UseCase {
	uc := &UseCase{
		storage:     storage,
		cfg:         cfg,
		dir:         dir,
		translator:  translator,
		concurrency: DefaultConcurrency,
		limiter:     rate.NewLimiter(DefaultRate, 1),
		progress:    os.Stderr,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// texts collects distinct strings to translate. Each string is sent once
// and every field holding it receives the same translation.
type texts struct {
	index   map[string]int
	values  []string
	setters [][]func(string)
}

func (t *texts) add(s string, set func(string)) {
	if strings.TrimSpace(s) == "" {
		return
	}
	i, ok := t.index[s]
	if !ok {
		i = len(t.values)
		t.index[s] = i
		t.values = append(t.values, s)
		t.setters = append(t.setters, nil)
	}
	t.setters[i] = append(t.setters[i], set)
}

// Run reads the raw generation under dir and writes the processed one
func (uc *UseCase) Run(ctx context.Context) (*Result, error) {
	logger := logging.From(ctx)

	raw, err := dataset.Load(ctx, uc.storage, uc.dir, model.GenerationRaw)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load raw generation")
	}

	processed := &dataset.Generation{
		Kind:    model.GenerationProcessed,
		Queries: make([]*model.Query, len(raw.Queries)),
		Corpus:  make([]*model.Document, len(raw.Corpus)),
	}

	native := uc.cfg.Verify.NativeSource
	pending := &texts{index: make(map[string]int)}
	result := &Result{Queries: len(raw.Queries), Documents: len(raw.Corpus)}

	for i, q := range raw.Queries {
		out := *q
		out.GoldDocIDs = slices.Clone(q.GoldDocIDs)
		processed.Queries[i] = &out
		if q.Source == native {
			result.Exempt++
			continue
		}
		pending.add(q.Question, func(s string) { out.Question = s })
		pending.add(q.GoldAnswer, func(s string) { out.GoldAnswer = s })
	}
	for i, d := range raw.Corpus {
		out := *d
		processed.Corpus[i] = &out
		if d.OriginalSource == native {
			result.Exempt++
			continue
		}
		pending.add(d.Content, func(s string) { out.Content = s })
	}
	result.Texts = len(pending.values)

	logger.Info("translating raw generation",
		"texts", result.Texts,
		"exempt", result.Exempt,
		"concurrency", uc.concurrency,
	)

	translated, err := uc.translateAll(ctx, pending.values)
	if err != nil {
		return nil, err
	}
	for i, setters := range pending.setters {
		for _, set := range setters {
			set(translated[i])
		}
	}

	if err := dataset.Save(ctx, uc.storage, uc.dir, processed); err != nil {
		return nil, goerr.Wrap(err, "failed to save processed generation")
	}

	logger.Info("processed generation written", "dir", uc.dir, "queries", result.Queries, "documents", result.Documents)
	return result, nil
}

// translateAll returns translations in the order of values
func (uc *UseCase) translateAll(ctx context.Context, values []string) ([]string, error) {
	out := make([]string, len(values))
	if len(values) == 0 {
		return out, nil
	}

	var spin *spinner.Spinner
	var done atomic.Int64
	if uc.progress != nil {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(uc.progress))
		spin.Suffix = fmt.Sprintf(" translating 0/%d", len(values))
		spin.Start()
		defer spin.Stop()
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)
	for i, text := range values {
		eg.Go(func() error {
			if err := uc.limiter.Wait(ctx); err != nil {
				return goerr.Wrap(err, "rate limiter aborted")
			}
			s, err := uc.translator.Translate(ctx, text)
			if err != nil {
				return goerr.Wrap(err, "failed to translate", goerr.V("index", i))
			}
			out[i] = s

			n := done.Add(1)
			if spin != nil {
				spin.Lock()
				spin.Suffix = fmt.Sprintf(" translating %d/%d", n, len(values))
				spin.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
