package source

import (
	"encoding/json"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

// NoAnswerPresent is the MS MARCO marker for unanswerable queries
const NoAnswerPresent = "No Answer Present."

// MSMarco is the query-with-passages layout. Passage lists are parallel
// arrays indexed together.
type MSMarco struct {
	Records []MSMarcoRecord
}

type MSMarcoRecord struct {
	QueryID   flexString      `json:"query_id"`
	Query     string          `json:"query"`
	QueryType string          `json:"query_type"`
	Passages  MSMarcoPassages `json:"passages"`
	Answers   []string        `json:"answers"`
}

type MSMarcoPassages struct {
	IsSelected  []int    `json:"is_selected"`
	PassageText []string `json:"passage_text"`
	URL         []string `json:"url"`
}

func (x MSMarcoRecord) RecordID() string { return string(x.QueryID) }

// Selected reports whether passage i is marked as answer-bearing
func (x MSMarcoPassages) Selected(i int) bool {
	return i < len(x.IsSelected) && x.IsSelected[i] == 1
}

// HasSelected reports whether any passage is marked as answer-bearing
func (x MSMarcoPassages) HasSelected() bool {
	for _, s := range x.IsSelected {
		if s == 1 {
			return true
		}
	}
	return false
}

func (x *MSMarco) Source() model.Source { return model.SourceMSMarco }
func (x *MSMarco) Len() int             { return len(x.Records) }
func (x *MSMarco) sealed()              {}

func (x *MSMarco) NegativeContents() []string {
	var out []string
	for _, r := range x.Records {
		out = append(out, r.Passages.PassageText...)
	}
	return out
}

func decodeMSMarco(records []json.RawMessage) (*MSMarco, error) {
	ds := &MSMarco{Records: make([]MSMarcoRecord, len(records))}
	for i, raw := range records {
		if err := decodeRecord(model.SourceMSMarco, i, raw, &ds.Records[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
