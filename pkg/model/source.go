package model

import (
	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidSource = goerr.New("invalid source dataset")

// Source is the tag of one of the five upstream QA datasets
type Source string

const (
	SourceDRCD     Source = "drcd"
	SourceSQuADv2  Source = "squad_v2"
	SourceMSMarco  Source = "ms_marco"
	SourceHotpotQA Source = "hotpotqa"
	Source2Wiki    Source = "2wiki"
)

// AllSources returns every source in pipeline processing order.
func AllSources() []Source {
	return []Source{
		SourceDRCD,
		SourceSQuADv2,
		SourceMSMarco,
		SourceHotpotQA,
		Source2Wiki,
	}
}

// Validate checks if the source is one of the known datasets
func (s Source) Validate() error {
	switch s {
	case SourceDRCD, SourceSQuADv2, SourceMSMarco, SourceHotpotQA, Source2Wiki:
		return nil
	default:
		return goerr.Wrap(ErrInvalidSource, "unknown source", goerr.V("source", s))
	}
}

// Order returns the position of the source in processing order, or -1.
func (s Source) Order() int {
	for i, src := range AllSources() {
		if src == s {
			return i
		}
	}
	return -1
}

// QuestionType returns the hop type of questions drawn from the source
func (s Source) QuestionType() QuestionType {
	switch s {
	case SourceHotpotQA, Source2Wiki:
		return QuestionTypeMultiHop
	default:
		return QuestionTypeSingleHop
	}
}

func (s Source) String() string { return string(s) }

type QuestionType string

const (
	QuestionTypeSingleHop QuestionType = "single-hop"
	QuestionTypeMultiHop  QuestionType = "multi-hop"
)
