package build

import (
	"fmt"
	"io"
	"strings"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/extract"
)

// SourceReport is the extraction statistics of one source
type SourceReport struct {
	Source model.Source `json:"source"`
	extract.Stats
}

// Report summarizes the composition of one build
type Report struct {
	Seed            uint64         `json:"seed"`
	CorpusTarget    int            `json:"corpus_target"`
	Sources         []SourceReport `json:"sources"`
	Requested       int            `json:"requested"`
	Queries         int            `json:"queries"`
	GoldDocs        int            `json:"gold_docs"`
	HardNegatives   int            `json:"hard_negatives"`
	RandomNegatives int            `json:"random_negatives"`
	Shortfall       int            `json:"shortfall"`
	BackfillPool    int            `json:"backfill_pool"`
	CorpusSize      int            `json:"corpus_size"`
	GoldFlagged     int            `json:"gold_flagged"`
	NonGold         int            `json:"non_gold"`
}

// Summary is a one line description used in run listings
func (r *Report) Summary() string {
	return fmt.Sprintf("%d queries, %d documents (%d gold, %d hard negative, %d random negative)",
		r.Queries, r.CorpusSize, r.GoldDocs, r.HardNegatives, r.RandomNegatives)
}

// Render writes the report as text
func (r *Report) Render(w io.Writer) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "Build summary")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Seed: %d\n", r.Seed)
	fmt.Fprintf(w, "Queries: %d (requested %d)\n", r.Queries, r.Requested)
	for _, s := range r.Sources {
		fmt.Fprintf(w, "  - %-9s %3d / %-3d (candidates %d, gold %d, hard negatives %d",
			s.Source, s.Accepted, s.Requested, s.Candidates, s.GoldDocs, s.HardNegatives)
		if s.DroppedGoldRefs > 0 {
			fmt.Fprintf(w, ", dropped gold refs %d", s.DroppedGoldRefs)
		}
		fmt.Fprintln(w, ")")
	}
	fmt.Fprintf(w, "\nCorpus: %d (target %d)\n", r.CorpusSize, r.CorpusTarget)
	fmt.Fprintf(w, "  - gold documents:   %d\n", r.GoldDocs)
	fmt.Fprintf(w, "  - hard negatives:   %d\n", r.HardNegatives)
	fmt.Fprintf(w, "  - random negatives: %d (shortfall %d, pool %d)\n", r.RandomNegatives, r.Shortfall, r.BackfillPool)
	fmt.Fprintf(w, "  - is_gold=true:  %d\n", r.GoldFlagged)
	fmt.Fprintf(w, "  - is_gold=false: %d\n", r.NonGold)
}
