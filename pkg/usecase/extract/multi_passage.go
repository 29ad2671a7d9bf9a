package extract

import (
	"context"
	"fmt"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
)

type marcoExtractor struct {
	ds *source.MSMarco
}

type marcoCandidate struct {
	originalID string
	record     *source.MSMarcoRecord
}

func (x *marcoExtractor) Source() model.Source { return model.SourceMSMarco }

func (x *marcoExtractor) Extract(ctx context.Context, reg *Registry, rng Shuffler, count int) *Result {
	src := x.Source()
	res := newResult(src, count)

	var candidates []marcoCandidate
	for i := range x.ds.Records {
		rec := &x.ds.Records[i]
		if !answerable(rec.Answers) || !rec.Passages.HasSelected() {
			continue
		}
		candidates = append(candidates, marcoCandidate{
			originalID: recordID(rec.RecordID(), i),
			record:     rec,
		})
	}
	res.Stats.Candidates = len(candidates)

	shuffle(rng, candidates)

	emitted := make(map[model.QuestionID]struct{})
	for _, c := range candidates {
		if len(res.Queries) >= count {
			break
		}
		qid := model.NewQuestionID(src, c.originalID)
		if _, ok := emitted[qid]; ok {
			res.Stats.Skipped++
			continue
		}

		docs, goldIDs, ok := classifyPassages(src, reg, c.originalID, c.record.Passages)
		if !ok {
			res.Stats.Skipped++
			continue
		}
		emitted[qid] = struct{}{}

		res.accept(reg, &model.Query{
			QuestionID:   qid,
			Question:     c.record.Query,
			GoldAnswer:   c.record.Answers[0],
			GoldDocIDs:   goldIDs,
			Source:       src,
			QuestionType: src.QuestionType(),
		}, docs)
	}

	res.log(ctx)
	return res
}

// answerable rejects empty answer lists, the "No Answer Present." marker
// and a blank first answer
func answerable(answers []string) bool {
	if len(answers) == 0 || blank(answers[0]) {
		return false
	}
	return !(len(answers) == 1 && answers[0] == source.NoAnswerPresent)
}

// classifyPassages splits the passages of one query into gold and hard
// negative documents. ok is false when any non-blank passage is already
// registered or no gold passage remains.
func classifyPassages(src model.Source, reg *Registry, originalID string, p source.MSMarcoPassages) (docs []*model.Document, goldIDs []model.DocID, ok bool) {
	var texts []string
	for _, t := range p.PassageText {
		if !blank(t) {
			texts = append(texts, t)
		}
	}
	if reg.ContainsAny(texts) {
		return nil, nil, false
	}

	n := min(len(p.IsSelected), len(p.PassageText))
	seen := make(map[string]*model.Document, n)
	for i := range n {
		text := p.PassageText[i]
		if blank(text) {
			continue
		}
		if prev, dup := seen[text]; dup {
			// a selected repeat makes the kept copy gold
			if p.Selected(i) && !prev.IsGold {
				prev.IsGold = true
				goldIDs = append(goldIDs, prev.DocID)
			}
			continue
		}

		doc := newDocument(src, fmt.Sprintf("%s_p%d", originalID, i), text, p.Selected(i))
		seen[text] = doc
		docs = append(docs, doc)
		if doc.IsGold {
			goldIDs = append(goldIDs, doc.DocID)
		}
	}

	return docs, goldIDs, len(goldIDs) > 0
}
