package adapter_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
)

type bqRow struct {
	ID   string `bigquery:"id"`
	Text string `bigquery:"text"`
}

func TestBigQuery(t *testing.T) {
	projectID := os.Getenv("TEST_BIGQUERY_PROJECT")
	if projectID == "" {
		t.Skip("TEST_BIGQUERY_PROJECT is not set")
	}

	datasetID := os.Getenv("TEST_BIGQUERY_DATASET")
	if datasetID == "" {
		t.Skip("TEST_BIGQUERY_DATASET is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewBigQuery(ctx, projectID, datasetID)
	gt.NoError(t, err)

	table := "adapter_test_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
	schema, err := bigquery.InferSchema(bqRow{})
	gt.NoError(t, err)

	t.Run("EnsureTable", func(t *testing.T) {
		gt.NoError(t, client.EnsureTable(ctx, table, schema))
		// second call finds the table
		gt.NoError(t, client.EnsureTable(ctx, table, schema))
	})

	t.Run("InsertAndQuery", func(t *testing.T) {
		gt.NoError(t, client.Insert(ctx, table, []*bqRow{{ID: "a", Text: "臺北"}, {ID: "b", Text: "Paris"}}))

		rows, err := client.Query(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s`", table))
		gt.NoError(t, err)
		gt.A(t, rows).Length(1)
		t.Logf("rows: %v", rows[0]["n"])
	})
}
