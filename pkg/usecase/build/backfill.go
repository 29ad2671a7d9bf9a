package build

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/extract"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

// Backfill draws random negatives from content no extractor used. Only
// sources implementing source.NegativePool take part; multi-hop datasets
// are kept out of the pool.
type Backfill struct {
	pools    []source.NegativePool
	counters map[model.Source]int
}

// NewBackfill returns a collector scanning pools in pipeline order
func NewBackfill(pools ...source.NegativePool) *Backfill {
	sorted := slices.Clone(pools)
	slices.SortStableFunc(sorted, func(a, b source.NegativePool) int {
		return a.Source().Order() - b.Source().Order()
	})
	return &Backfill{
		pools:    sorted,
		counters: make(map[model.Source]int),
	}
}

// Collect returns up to k unused documents and the size of the pool they
// were drawn from. Every scanned content string is added to reg, so a
// second call never returns the same content.
func (b *Backfill) Collect(ctx context.Context, reg *extract.Registry, rng extract.Shuffler, k int) ([]*model.Document, int) {
	if k <= 0 {
		return nil, 0
	}

	var pool []*model.Document
	for _, p := range b.pools {
		src := p.Source()
		for _, content := range p.NegativeContents() {
			if strings.TrimSpace(content) == "" || reg.Contains(content) {
				continue
			}
			reg.Add(content)

			originalID := "neg_" + strconv.Itoa(b.counters[src])
			b.counters[src]++
			pool = append(pool, &model.Document{
				DocID:          model.NewDocID(src, originalID),
				Content:        content,
				OriginalSource: src,
				OriginalID:     originalID,
				IsGold:         false,
			})
		}
	}

	available := len(pool)
	logging.From(ctx).Info("collected negative pool", "available", available, "requested", k)

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > k {
		pool = pool[:k]
	}
	return pool, available
}
