package repository

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

// Memory is an in-process Repository used when no Firestore project is
// configured and in tests
type Memory struct {
	mu   sync.RWMutex
	runs map[model.RunID]*model.RunRecord
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[model.RunID]*model.RunRecord)}
}

func (r *Memory) PutRun(ctx context.Context, run *model.RunRecord) error {
	if err := run.Kind.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *run
	r.runs[run.ID] = &copied
	return nil
}

func (r *Memory) GetRun(ctx context.Context, id model.RunID) (*model.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "no such run", goerr.V("id", id))
	}
	copied := *run
	return &copied, nil
}

func (r *Memory) ListRuns(ctx context.Context, kind model.RunKind, limit int) ([]*model.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []*model.RunRecord
	for _, run := range r.runs {
		if kind != "" && run.Kind != kind {
			continue
		}
		copied := *run
		runs = append(runs, &copied)
	}
	return newestFirst(runs, limit), nil
}
