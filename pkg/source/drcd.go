package source

import (
	"encoding/json"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

// DRCD is the SQuAD-1.1 style nested layout: articles hold paragraphs which
// hold question/answer entries.
type DRCD struct {
	Articles []DRCDArticle
}

type DRCDArticle struct {
	ID         flexString      `json:"id"`
	Title      string          `json:"title"`
	Paragraphs []DRCDParagraph `json:"paragraphs"`
}

type DRCDParagraph struct {
	ID      flexString `json:"id"`
	Context string     `json:"context"`
	QAs     []DRCDQA   `json:"qas"`
}

type DRCDQA struct {
	ID       flexString   `json:"id"`
	Question string       `json:"question"`
	Answers  []DRCDAnswer `json:"answers"`
}

type DRCDAnswer struct {
	Text        string `json:"text"`
	AnswerStart int    `json:"answer_start"`
}

// QAID returns the native id, empty when the record has none
func (x DRCDQA) QAID() string { return string(x.ID) }

func (x *DRCD) Source() model.Source { return model.SourceDRCD }
func (x *DRCD) Len() int             { return len(x.Articles) }
func (x *DRCD) sealed()              {}

func (x *DRCD) NegativeContents() []string {
	var out []string
	for _, a := range x.Articles {
		for _, p := range a.Paragraphs {
			out = append(out, p.Context)
		}
	}
	return out
}

func decodeDRCD(records []json.RawMessage) (*DRCD, error) {
	ds := &DRCD{Articles: make([]DRCDArticle, len(records))}
	for i, raw := range records {
		if err := decodeRecord(model.SourceDRCD, i, raw, &ds.Articles[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
