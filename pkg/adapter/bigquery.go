package adapter

import (
	"context"
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// BigQuery is an interface for BigQuery operations on one dataset
type BigQuery interface {
	// EnsureTable creates the table with schema unless it already exists
	EnsureTable(ctx context.Context, table string, schema bigquery.Schema) error

	// Insert streams rows into the table. rows is a slice of structs.
	Insert(ctx context.Context, table string, rows any) error

	// Query runs a query and returns all result rows
	Query(ctx context.Context, query string) ([]map[string]any, error)
}

type bigqueryClient struct {
	client    *bigquery.Client
	datasetID string
}

// NewBigQuery creates a new BigQuery client bound to datasetID
func NewBigQuery(ctx context.Context, projectID, datasetID string) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryClient{
		client:    client,
		datasetID: datasetID,
	}, nil
}

func (bq *bigqueryClient) EnsureTable(ctx context.Context, table string, schema bigquery.Schema) error {
	tbl := bq.client.Dataset(bq.datasetID).Table(table)

	_, err := tbl.Metadata(ctx)
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return goerr.Wrap(err, "failed to get table metadata", goerr.V("table", table))
	}

	if err := tbl.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return goerr.Wrap(err, "failed to create table", goerr.V("table", table))
	}
	return nil
}

func (bq *bigqueryClient) Insert(ctx context.Context, table string, rows any) error {
	inserter := bq.client.Dataset(bq.datasetID).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return goerr.Wrap(err, "failed to insert rows", goerr.V("table", table))
	}
	return nil
}

func (bq *bigqueryClient) Query(ctx context.Context, query string) ([]map[string]any, error) {
	q := bq.client.Query(query)
	q.DefaultDatasetID = bq.datasetID

	job, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query")
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to wait for query completion")
	}
	if status.Err() != nil {
		return nil, goerr.Wrap(status.Err(), "query execution failed")
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read query result")
	}

	var results []map[string]any
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate query result")
		}

		rowMap := make(map[string]any, len(row))
		for k, v := range row {
			rowMap[k] = v
		}
		results = append(results, rowMap)
	}

	return results, nil
}
