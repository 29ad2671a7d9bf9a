package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidRunKind = goerr.New("invalid run kind")

type RunID string

// NewRunID generates a new unique RunID
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

type RunKind string

const (
	RunKindBuild  RunKind = "build"
	RunKindVerify RunKind = "verify"
)

// Validate checks if the run kind is valid
func (k RunKind) Validate() error {
	switch k {
	case RunKindBuild, RunKindVerify:
		return nil
	default:
		return goerr.Wrap(ErrInvalidRunKind, "unknown run kind", goerr.V("kind", k))
	}
}

// RunRecord is the stored summary of one build or verify run
type RunRecord struct {
	ID        RunID     `firestore:"id" json:"id"`
	Kind      RunKind   `firestore:"kind" json:"kind"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	Seed      int64     `firestore:"seed" json:"seed"`
	Failed    bool      `firestore:"failed" json:"failed"`
	Summary   string    `firestore:"summary" json:"summary"`

	// Report is the full JSON report of the run
	Report string `firestore:"report" json:"report"`
}
