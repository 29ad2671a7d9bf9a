package source

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

// MultiHop holds HotpotQA style records. Tag distinguishes hotpotqa from the
// 2wiki variant, which also accepts list-of-pairs context and _id.
type MultiHop struct {
	Tag     model.Source
	Records []MultiHopRecord
}

// MultiHopRecord is the normalized form of one multi-hop question
type MultiHopRecord struct {
	ID               string
	Question         string
	Answer           string
	SupportingTitles []string
	Paragraphs       []TitledParagraph
}

// TitledParagraph is one context paragraph. Content is the sentences joined
// by a single space.
type TitledParagraph struct {
	Title   string
	Content string
}

// IsSupporting reports whether title is referenced by a supporting fact
func (x MultiHopRecord) IsSupporting(title string) bool {
	for _, t := range x.SupportingTitles {
		if t == title {
			return true
		}
	}
	return false
}

func (x *MultiHop) Source() model.Source { return x.Tag }
func (x *MultiHop) Len() int             { return len(x.Records) }
func (x *MultiHop) sealed()              {}

type multiHopWire struct {
	ID              *flexString     `json:"id"`
	LegacyID        *flexString     `json:"_id"`
	Question        string          `json:"question"`
	Answer          string          `json:"answer"`
	SupportingFacts json.RawMessage `json:"supporting_facts"`
	Context         json.RawMessage `json:"context"`
}

func decodeMultiHop(src model.Source, records []json.RawMessage, allowPairs bool) (*MultiHop, error) {
	ds := &MultiHop{Tag: src, Records: make([]MultiHopRecord, len(records))}
	for i, raw := range records {
		var w multiHopWire
		if err := decodeRecord(src, i, raw, &w); err != nil {
			return nil, err
		}

		rec := MultiHopRecord{Question: w.Question, Answer: w.Answer}
		switch {
		case w.ID != nil:
			rec.ID = string(*w.ID)
		case allowPairs && w.LegacyID != nil:
			rec.ID = string(*w.LegacyID)
		}

		titles, err := decodeSupportingFacts(w.SupportingFacts, allowPairs)
		if err != nil {
			return nil, &DecodeError{Source: src, Index: i, Field: "supporting_facts", Err: err}
		}
		rec.SupportingTitles = titles

		paras, err := decodeContext(w.Context, allowPairs)
		if err != nil {
			return nil, &DecodeError{Source: src, Index: i, Field: "context", Err: err}
		}
		rec.Paragraphs = paras

		ds.Records[i] = rec
	}
	return ds, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func leading(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func decodeSupportingFacts(raw json.RawMessage, allowPairs bool) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}

	switch leading(raw) {
	case '{':
		var facts struct {
			Title  []string `json:"title"`
			SentID []int    `json:"sent_id"`
		}
		if err := json.Unmarshal(raw, &facts); err != nil {
			return nil, err
		}
		return facts.Title, nil

	case '[':
		if !allowPairs {
			break
		}
		var pairs [][]json.RawMessage
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, err
		}
		titles := make([]string, 0, len(pairs))
		for _, pair := range pairs {
			if len(pair) == 0 {
				return nil, goerr.Wrap(ErrSchema, "empty supporting fact pair")
			}
			var title string
			if err := json.Unmarshal(pair[0], &title); err != nil {
				return nil, err
			}
			titles = append(titles, title)
		}
		return titles, nil
	}

	return nil, goerr.Wrap(ErrSchema, "unexpected supporting_facts shape", goerr.V("value", truncate(raw)))
}

func decodeContext(raw json.RawMessage, allowPairs bool) ([]TitledParagraph, error) {
	if isNull(raw) {
		return nil, nil
	}

	switch leading(raw) {
	case '{':
		var ctx struct {
			Title     []string       `json:"title"`
			Sentences []sentenceList `json:"sentences"`
		}
		if err := json.Unmarshal(raw, &ctx); err != nil {
			return nil, err
		}
		// titles without sentences are ignored
		n := min(len(ctx.Title), len(ctx.Sentences))
		paras := make([]TitledParagraph, n)
		for i := range n {
			paras[i] = TitledParagraph{Title: ctx.Title[i], Content: string(ctx.Sentences[i])}
		}
		return paras, nil

	case '[':
		if !allowPairs {
			break
		}
		var pairs [][]json.RawMessage
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, err
		}
		paras := make([]TitledParagraph, 0, len(pairs))
		for _, pair := range pairs {
			if len(pair) != 2 {
				return nil, goerr.Wrap(ErrSchema, "context pair must be [title, sentences]", goerr.V("length", len(pair)))
			}
			var p TitledParagraph
			if err := json.Unmarshal(pair[0], &p.Title); err != nil {
				return nil, err
			}
			var s sentenceList
			if err := json.Unmarshal(pair[1], &s); err != nil {
				return nil, err
			}
			p.Content = string(s)
			paras = append(paras, p)
		}
		return paras, nil
	}

	return nil, goerr.Wrap(ErrSchema, "unexpected context shape", goerr.V("value", truncate(raw)))
}

// sentenceList is a paragraph given either as a list of sentences or as
// one plain string
type sentenceList string

func (s *sentenceList) UnmarshalJSON(data []byte) error {
	switch leading(data) {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = sentenceList(text)
	case '[':
		var sentences []string
		if err := json.Unmarshal(data, &sentences); err != nil {
			return err
		}
		*s = sentenceList(strings.Join(sentences, " "))
	case 'n':
		*s = ""
	default:
		return goerr.Wrap(ErrSchema, "sentences must be a string or a list of strings")
	}
	return nil
}

func truncate(raw json.RawMessage) string {
	const limit = 64
	if len(raw) <= limit {
		return string(raw)
	}
	end := limit
	for end > 0 && !utf8.RuneStart(raw[end]) {
		end--
	}
	return string(raw[:end]) + "..."
}
