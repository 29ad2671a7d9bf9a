package build_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/metrics"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/repository"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/build"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/extract"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	gt.NoError(t, err)
	gt.NoError(t, os.WriteFile(path, data, 0644))
}

// writeFixtures writes small but sufficient source files for all five
// datasets into dir
func writeFixtures(t *testing.T, dir string) {
	t.Helper()

	var drcd []any
	for a := range 10 {
		var paras []any
		for p := range 2 {
			var qas []any
			for q := range 2 {
				qas = append(qas, map[string]any{
					"id":       fmt.Sprintf("%d-%d-%d", a, p, q),
					"question": fmt.Sprintf("第%d篇第%d段問題%d?", a, p, q),
					"answers":  []any{map[string]any{"text": "答案", "answer_start": 0}},
				})
			}
			paras = append(paras, map[string]any{
				"context": fmt.Sprintf("台灣段落 %d-%d", a, p),
				"qas":     qas,
			})
		}
		drcd = append(drcd, map[string]any{"title": fmt.Sprintf("文章%d", a), "paragraphs": paras})
	}
	writeJSON(t, filepath.Join(dir, "drcd.json"), drcd)

	var squad []any
	for i := range 30 {
		answers := []string{"answer"}
		if i%5 == 0 {
			answers = []string{}
		}
		squad = append(squad, map[string]any{
			"id":       fmt.Sprintf("sq%d", i),
			"title":    "T",
			"context":  fmt.Sprintf("squad context %d", i),
			"question": fmt.Sprintf("squad question %d?", i),
			"answers":  map[string]any{"text": answers, "answer_start": []int{}},
		})
	}
	writeJSON(t, filepath.Join(dir, "squad_v2.json"), squad)

	var marco []any
	for i := range 20 {
		marco = append(marco, map[string]any{
			"query_id": 1000 + i,
			"query":    fmt.Sprintf("marco query %d", i),
			"passages": map[string]any{
				"is_selected":  []int{0, 1, 0},
				"passage_text": []string{fmt.Sprintf("marco %d a", i), fmt.Sprintf("marco %d b", i), fmt.Sprintf("marco %d c", i)},
				"url":          []string{"u", "u", "u"},
			},
			"answers": []string{"marco answer"},
		})
	}
	writeJSON(t, filepath.Join(dir, "ms_marco.json"), marco)

	multiHop := func(prefix string, pairs bool) []any {
		var records []any
		for i := range 15 {
			titles := []string{"G1", "G2", "N1", "N2"}
			var sentences [][]string
			for _, title := range titles {
				sentences = append(sentences, []string{fmt.Sprintf("%s %d %s.", prefix, i, title), "More."})
			}
			rec := map[string]any{
				"question": fmt.Sprintf("%s question %d?", prefix, i),
				"answer":   "yes",
			}
			if pairs {
				rec["_id"] = fmt.Sprintf("%s%d", prefix, i)
				var ctx []any
				for j, title := range titles {
					ctx = append(ctx, []any{title, sentences[j]})
				}
				rec["context"] = ctx
				rec["supporting_facts"] = []any{[]any{"G1", 0}, []any{"G2", 0}}
			} else {
				rec["id"] = fmt.Sprintf("%s%d", prefix, i)
				rec["context"] = map[string]any{"title": titles, "sentences": sentences}
				rec["supporting_facts"] = map[string]any{"title": []string{"G1", "G2"}, "sent_id": []int{0, 0}}
			}
			records = append(records, rec)
		}
		return records
	}
	writeJSON(t, filepath.Join(dir, "hotpotqa.json"), multiHop("hotpot", false))
	writeJSON(t, filepath.Join(dir, "2wiki.json"), multiHop("wiki", true))
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.CorpusSize = 100
	for i := range cfg.Sources {
		cfg.Sources[i].Count = 5
	}
	return cfg
}

func TestBuildRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, "raw"), 0755))
	writeFixtures(t, filepath.Join(dir, "raw"))

	st := adapter.NewFileStorage(dir)
	repo := repository.NewMemory()
	m := metrics.New()
	var buf bytes.Buffer

	uc := build.New(st, testConfig(), "raw", "processed",
		build.WithOutput(&buf),
		build.WithRepository(repo),
		build.WithMetrics(m),
		build.WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	report, err := uc.Run(ctx)
	gt.NoError(t, err)

	gt.Equal(t, report.Queries, 25)
	gt.Equal(t, report.GoldDocs, 35)
	gt.Equal(t, report.HardNegatives, 30)
	gt.Equal(t, report.Shortfall, 35)
	gt.Equal(t, report.RandomNegatives, 35)
	gt.Equal(t, report.CorpusSize, 100)
	gt.Equal(t, report.GoldFlagged, 35)
	gt.Equal(t, report.NonGold, 65)
	gt.S(t, buf.String()).Contains("Corpus: 100 (target 100)")

	gen, err := dataset.Load(ctx, st, "processed", model.GenerationRaw)
	gt.NoError(t, err)
	gt.A(t, gen.Queries).Length(25)
	gt.A(t, gen.Corpus).Length(100)

	// queries keep source order
	gt.Equal(t, gen.Queries[0].Source, model.SourceDRCD)
	gt.Equal(t, gen.Queries[24].Source, model.Source2Wiki)

	contents := map[string]bool{}
	docs := map[model.DocID]*model.Document{}
	for _, d := range gen.Corpus {
		gt.False(t, contents[d.Content])
		gt.NotEqual(t, d.Content, "")
		contents[d.Content] = true
		_, dup := docs[d.DocID]
		gt.False(t, dup)
		docs[d.DocID] = d
	}

	qids := map[model.QuestionID]bool{}
	perSource := map[model.Source]int{}
	for _, q := range gen.Queries {
		gt.False(t, qids[q.QuestionID])
		qids[q.QuestionID] = true
		perSource[q.Source]++
		gt.A(t, q.GoldDocIDs).Longer(0)
		for _, id := range q.GoldDocIDs {
			d, ok := docs[id]
			gt.True(t, ok)
			gt.True(t, d.IsGold)
		}
	}
	for _, src := range model.AllSources() {
		gt.Equal(t, perSource[src], 5)
	}

	var stored build.Report
	gt.NoError(t, dataset.ReadJSON(ctx, st, "processed/"+build.ReportFile, &stored))
	gt.Equal(t, stored.CorpusSize, 100)

	runs, err := repo.ListRuns(ctx, model.RunKindBuild, 10)
	gt.NoError(t, err)
	gt.A(t, runs).Length(1)
	gt.Equal(t, runs[0].Seed, int64(42))
	gt.S(t, runs[0].Summary).Contains("25 queries")

	families, err := m.Gatherer().Gather()
	gt.NoError(t, err)
	gt.A(t, families).Length(2)
}

func TestBuildIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, "raw"), 0755))
	writeFixtures(t, filepath.Join(dir, "raw"))
	st := adapter.NewFileStorage(dir)

	var buf bytes.Buffer
	_, err := build.New(st, testConfig(), "raw", "a", build.WithOutput(&buf)).Run(ctx)
	gt.NoError(t, err)
	_, err = build.New(st, testConfig(), "raw", "b", build.WithOutput(&buf)).Run(ctx)
	gt.NoError(t, err)

	for _, name := range []string{"queries_raw.json", "corpus_raw.json", build.ReportFile} {
		a, err := os.ReadFile(filepath.Join(dir, "a", name))
		gt.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dir, "b", name))
		gt.NoError(t, err)
		gt.True(t, bytes.Equal(a, b)).Describe(name)
	}
}

func TestBuildMissingSourceFile(t *testing.T) {
	st := adapter.NewFileStorage(t.TempDir())
	var buf bytes.Buffer
	_, err := build.New(st, testConfig(), "raw", "out", build.WithOutput(&buf)).Run(context.Background())
	gt.Error(t, err)
}

func TestAssembleNoBackfillWhenFull(t *testing.T) {
	ds, err := source.Decode(model.SourceMSMarco, []byte(`[
		{"query_id":1,"query":"q","passages":{"is_selected":[1,0,0],"passage_text":["a","b","c"]},"answers":["x"]}
	]`))
	gt.NoError(t, err)

	cfg := model.DefaultConfig()
	cfg.CorpusSize = 3
	cfg.Sources = []model.SourceConfig{{Name: model.SourceMSMarco, File: "m.json", Count: 1}}

	out, err := build.Assemble(context.Background(), cfg, map[model.Source]source.Dataset{model.SourceMSMarco: ds}, extract.NewRandom(1))
	gt.NoError(t, err)
	gt.A(t, out.Queries).Length(1)
	gt.Equal(t, out.Report.Requested, 1)
	gt.Equal(t, out.Report.Shortfall, 0)
	gt.Equal(t, out.Report.RandomNegatives, 0)
	gt.A(t, out.Corpus).Length(3)
}

func TestAssembleMissingDataset(t *testing.T) {
	cfg := model.DefaultConfig()
	_, err := build.Assemble(context.Background(), cfg, map[model.Source]source.Dataset{}, extract.NewRandom(1))
	gt.Error(t, err)
}
