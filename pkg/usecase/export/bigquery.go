package export

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

const (
	QueriesTable = "queries"
	CorpusTable  = "corpus"

	// streaming inserts are limited per request
	insertBatchSize = 500
)

type queryRow struct {
	Generation   string    `bigquery:"generation"`
	ExportedAt   time.Time `bigquery:"exported_at"`
	Position     int       `bigquery:"position"`
	QuestionID   string    `bigquery:"question_id"`
	Question     string    `bigquery:"question"`
	GoldAnswer   string    `bigquery:"gold_answer"`
	GoldDocIDs   []string  `bigquery:"gold_doc_ids"`
	Source       string    `bigquery:"source_dataset"`
	QuestionType string    `bigquery:"question_type"`
}

type documentRow struct {
	Generation     string    `bigquery:"generation"`
	ExportedAt     time.Time `bigquery:"exported_at"`
	Position       int       `bigquery:"position"`
	DocID          string    `bigquery:"doc_id"`
	Content        string    `bigquery:"content"`
	OriginalSource string    `bigquery:"original_source"`
	OriginalID     string    `bigquery:"original_id"`
	IsGold         bool      `bigquery:"is_gold"`
}

type bigQuerySink struct {
	client adapter.BigQuery
	now    func() time.Time
}

// NewBigQuerySink appends generations to the queries and corpus tables.
// Each export is told apart by its exported_at timestamp.
func NewBigQuerySink(client adapter.BigQuery, now func() time.Time) Sink {
	if now == nil {
		now = time.Now
	}
	return &bigQuerySink{client: client, now: now}
}

func (s *bigQuerySink) Name() string { return "bigquery" }

func (s *bigQuerySink) WriteGeneration(ctx context.Context, gen model.Generation, queries []*model.Query, corpus []*model.Document) error {
	querySchema, err := bigquery.InferSchema(queryRow{})
	if err != nil {
		return goerr.Wrap(err, "failed to infer query schema")
	}
	docSchema, err := bigquery.InferSchema(documentRow{})
	if err != nil {
		return goerr.Wrap(err, "failed to infer document schema")
	}

	if err := s.client.EnsureTable(ctx, QueriesTable, querySchema); err != nil {
		return err
	}
	if err := s.client.EnsureTable(ctx, CorpusTable, docSchema); err != nil {
		return err
	}

	at := s.now()
	qRows := make([]*queryRow, len(queries))
	for i, q := range queries {
		ids := make([]string, len(q.GoldDocIDs))
		for j, id := range q.GoldDocIDs {
			ids[j] = string(id)
		}
		qRows[i] = &queryRow{
			Generation:   string(gen),
			ExportedAt:   at,
			Position:     i,
			QuestionID:   string(q.QuestionID),
			Question:     q.Question,
			GoldAnswer:   q.GoldAnswer,
			GoldDocIDs:   ids,
			Source:       string(q.Source),
			QuestionType: string(q.QuestionType),
		}
	}
	dRows := make([]*documentRow, len(corpus))
	for i, d := range corpus {
		dRows[i] = &documentRow{
			Generation:     string(gen),
			ExportedAt:     at,
			Position:       i,
			DocID:          string(d.DocID),
			Content:        d.Content,
			OriginalSource: string(d.OriginalSource),
			OriginalID:     d.OriginalID,
			IsGold:         d.IsGold,
		}
	}

	if err := insertBatches(ctx, s.client, QueriesTable, qRows); err != nil {
		return err
	}
	return insertBatches(ctx, s.client, CorpusTable, dRows)
}

func insertBatches[T any](ctx context.Context, client adapter.BigQuery, table string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := client.Insert(ctx, table, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
