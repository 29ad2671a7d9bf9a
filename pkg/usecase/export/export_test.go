package export_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/dataset"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/export"
)

func writeGeneration(t *testing.T, st adapter.Storage, docs int) {
	t.Helper()
	g := &dataset.Generation{
		Kind: model.GenerationRaw,
		Queries: []*model.Query{
			{QuestionID: "q1", Question: "臺北在哪裡？", GoldAnswer: "臺灣", GoldDocIDs: []model.DocID{"d0"}, Source: model.SourceDRCD, QuestionType: model.QuestionTypeSingleHop},
		},
	}
	for i := range docs {
		g.Corpus = append(g.Corpus, &model.Document{
			DocID:          model.DocID(fmt.Sprintf("d%d", i)),
			Content:        fmt.Sprintf("content %d", i),
			OriginalSource: model.SourceDRCD,
			OriginalID:     fmt.Sprintf("neg_%d", i),
			IsGold:         i == 0,
		})
	}
	gt.NoError(t, dataset.Save(context.Background(), st, "out", g))
}

func TestExportSQLite(t *testing.T) {
	ctx := context.Background()
	st := adapter.NewFileStorage(t.TempDir())
	writeGeneration(t, st, 3)

	db, err := adapter.NewSQLite(ctx, filepath.Join(t.TempDir(), "bears.db"))
	gt.NoError(t, err)
	defer db.Close()

	result, err := export.New(st, "out", export.WithSink(export.NewSQLiteSink(db))).Run(ctx, model.GenerationRaw)
	gt.NoError(t, err)
	gt.Equal(t, result.Queries, 1)
	gt.Equal(t, result.Documents, 3)
	gt.Equal(t, result.Sinks, []string{"sqlite"})

	var n int
	gt.NoError(t, db.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM corpus").Scan(&n))
	gt.Equal(t, n, 3)
}

func TestExportNoSink(t *testing.T) {
	_, err := export.New(adapter.NewFileStorage(t.TempDir()), "out").Run(context.Background(), model.GenerationRaw)
	gt.True(t, errors.Is(err, export.ErrNoSink))
}

func TestExportMissingGeneration(t *testing.T) {
	ctx := context.Background()
	st := adapter.NewFileStorage(t.TempDir())
	writeGeneration(t, st, 1)

	db, err := adapter.NewSQLite(ctx, filepath.Join(t.TempDir(), "bears.db"))
	gt.NoError(t, err)
	defer db.Close()

	_, err = export.New(st, "out", export.WithSink(export.NewSQLiteSink(db))).Run(ctx, model.GenerationProcessed)
	gt.Error(t, err)
}

type fakeBigQuery struct {
	tables  map[string]bigquery.Schema
	batches map[string][]int
}

func (f *fakeBigQuery) EnsureTable(ctx context.Context, table string, schema bigquery.Schema) error {
	f.tables[table] = schema
	return nil
}

func (f *fakeBigQuery) Insert(ctx context.Context, table string, rows any) error {
	f.batches[table] = append(f.batches[table], reflect.ValueOf(rows).Len())
	return nil
}

func (f *fakeBigQuery) Query(ctx context.Context, query string) ([]map[string]any, error) {
	return nil, nil
}

func TestExportBigQueryBatches(t *testing.T) {
	ctx := context.Background()
	st := adapter.NewFileStorage(t.TempDir())
	writeGeneration(t, st, 1201)

	bq := &fakeBigQuery{tables: map[string]bigquery.Schema{}, batches: map[string][]int{}}
	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	result, err := export.New(st, "out", export.WithSink(export.NewBigQuerySink(bq, now))).Run(ctx, model.GenerationRaw)
	gt.NoError(t, err)
	gt.Equal(t, result.Sinks, []string{"bigquery"})

	gt.A(t, bq.tables[export.QueriesTable]).Length(9)
	gt.A(t, bq.tables[export.CorpusTable]).Length(8)
	gt.Equal(t, bq.batches[export.QueriesTable], []int{1})
	gt.Equal(t, bq.batches[export.CorpusTable], []int{500, 500, 201})

	var repeated bool
	for _, f := range bq.tables[export.QueriesTable] {
		if f.Name == "gold_doc_ids" {
			repeated = f.Repeated
		}
	}
	gt.True(t, repeated)
}
