package repository

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const runCollection = "runs"

// Firestore implements Repository on a Firestore database
type Firestore struct {
	client *firestore.Client
}

// New creates a Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutRun(ctx context.Context, run *model.RunRecord) error {
	if err := run.Kind.Validate(); err != nil {
		return err
	}
	if _, err := r.client.Collection(runCollection).Doc(string(run.ID)).Set(ctx, run); err != nil {
		return goerr.Wrap(err, "failed to put run", goerr.V("id", run.ID))
	}
	return nil
}

func (r *Firestore) GetRun(ctx context.Context, id model.RunID) (*model.RunRecord, error) {
	snap, err := r.client.Collection(runCollection).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(ErrNotFound, "no such run", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get run", goerr.V("id", id))
	}

	var run model.RunRecord
	if err := snap.DataTo(&run); err != nil {
		return nil, goerr.Wrap(err, "failed to decode run", goerr.V("id", id))
	}
	return &run, nil
}

func (r *Firestore) ListRuns(ctx context.Context, kind model.RunKind, limit int) ([]*model.RunRecord, error) {
	col := r.client.Collection(runCollection)

	// filtering on kind while ordering by created_at would need a composite
	// index, so filtered results are sorted locally
	var q firestore.Query
	if kind == "" {
		q = col.OrderBy("created_at", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
	} else {
		q = col.Where("kind", "==", string(kind))
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var runs []*model.RunRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate runs")
		}

		var run model.RunRecord
		if err := snap.DataTo(&run); err != nil {
			return nil, goerr.Wrap(err, "failed to decode run", goerr.V("doc", snap.Ref.ID))
		}
		runs = append(runs, &run)
	}

	return newestFirst(runs, limit), nil
}

func newestFirst(runs []*model.RunRecord, limit int) []*model.RunRecord {
	slices.SortStableFunc(runs, func(a, b *model.RunRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs
}
