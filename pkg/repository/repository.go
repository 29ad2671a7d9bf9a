package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

var ErrNotFound = goerr.New("run record not found")

// Repository defines the interface for run report persistence
type Repository interface {
	// PutRun saves a run record, replacing any record with the same ID
	PutRun(ctx context.Context, run *model.RunRecord) error

	// GetRun retrieves a run record by ID
	GetRun(ctx context.Context, id model.RunID) (*model.RunRecord, error)

	// ListRuns retrieves the newest run records first. An empty kind
	// matches every kind.
	ListRuns(ctx context.Context, kind model.RunKind, limit int) ([]*model.RunRecord, error)
}
