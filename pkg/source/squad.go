package source

import (
	"encoding/json"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

// SQuAD is the flat record-per-question layout of SQuAD v2 exports. An
// unanswerable question has an empty answers.text list.
type SQuAD struct {
	Records []SQuADRecord
}

type SQuADRecord struct {
	ID       flexString   `json:"id"`
	Title    string       `json:"title"`
	Context  string       `json:"context"`
	Question string       `json:"question"`
	Answers  SQuADAnswers `json:"answers"`
}

type SQuADAnswers struct {
	Text        []string `json:"text"`
	AnswerStart []int    `json:"answer_start"`
}

func (x SQuADRecord) RecordID() string { return string(x.ID) }

func (x *SQuAD) Source() model.Source { return model.SourceSQuADv2 }
func (x *SQuAD) Len() int             { return len(x.Records) }
func (x *SQuAD) sealed()              {}

func (x *SQuAD) NegativeContents() []string {
	out := make([]string, 0, len(x.Records))
	for _, r := range x.Records {
		out = append(out, r.Context)
	}
	return out
}

func decodeSQuAD(records []json.RawMessage) (*SQuAD, error) {
	ds := &SQuAD{Records: make([]SQuADRecord, len(records))}
	for i, raw := range records {
		if err := decodeRecord(model.SourceSQuADv2, i, raw, &ds.Records[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
