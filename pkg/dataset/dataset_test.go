package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
)

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := adapter.NewFileStorage(dir)

	doc := &model.Document{
		DocID:          model.NewDocID(model.SourceDRCD, "1"),
		Content:        "台灣 <b>&</b>",
		OriginalSource: model.SourceDRCD,
		OriginalID:     "1",
		IsGold:         true,
	}
	g := &dataset.Generation{
		Kind: model.GenerationRaw,
		Queries: []*model.Query{{
			QuestionID:   model.NewQuestionID(model.SourceDRCD, "1"),
			Question:     "問題?",
			GoldAnswer:   "答",
			GoldDocIDs:   []model.DocID{doc.DocID},
			Source:       model.SourceDRCD,
			QuestionType: model.QuestionTypeSingleHop,
		}},
		Corpus: []*model.Document{doc},
	}

	exists, err := dataset.Exists(ctx, st, "out", model.GenerationRaw)
	gt.NoError(t, err)
	gt.False(t, exists)

	gt.NoError(t, dataset.Save(ctx, st, "out", g))

	exists, err = dataset.Exists(ctx, st, "out", model.GenerationRaw)
	gt.NoError(t, err)
	gt.True(t, exists)

	raw, err := os.ReadFile(filepath.Join(dir, "out", "corpus_raw.json"))
	gt.NoError(t, err)
	gt.S(t, string(raw)).Contains(`"content": "台灣 <b>&</b>"`)
	gt.S(t, string(raw)).Contains("\n  {\n    \"doc_id\"")

	loaded, err := dataset.Load(ctx, st, "out", model.GenerationRaw)
	gt.NoError(t, err)
	gt.Equal(t, loaded.Queries, g.Queries)
	gt.Equal(t, loaded.Corpus, g.Corpus)
}

func TestLoadSources(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "squad.json"),
		[]byte(`[{"id":"a","context":"c","question":"q","answers":{"text":["x"]}}]`), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "marco.json"),
		[]byte(`[{"query_id":1,"query":"q","passages":{"is_selected":[1],"passage_text":["p"]},"answers":["a"]}]`), 0644))

	st := adapter.NewFileStorage(dir)
	loaded, err := dataset.LoadSources(ctx, st, ".", []model.SourceConfig{
		{Name: model.SourceMSMarco, File: "marco.json", Count: 1},
		{Name: model.SourceSQuADv2, File: "squad.json", Count: 1},
	})
	gt.NoError(t, err)
	gt.Equal(t, len(loaded), 2)

	_, ok := loaded[model.SourceSQuADv2].(*source.SQuAD)
	gt.True(t, ok)
	gt.Equal(t, loaded[model.SourceMSMarco].Len(), 1)

	_, err = dataset.LoadSources(ctx, st, ".", []model.SourceConfig{
		{Name: model.SourceDRCD, File: "missing.json", Count: 1},
	})
	gt.Error(t, err)
}
