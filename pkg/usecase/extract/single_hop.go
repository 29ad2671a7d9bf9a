package extract

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
)

type singleHopCandidate struct {
	originalID string
	question   string
	answer     string
	context    string
}

// selectSingleHop shuffles admissible candidates and greedily accepts the
// first count of them, at most one per context string.
func selectSingleHop(ctx context.Context, src model.Source, reg *Registry, rng Shuffler, count int, candidates []singleHopCandidate) *Result {
	res := newResult(src, count)
	res.Stats.Candidates = len(candidates)

	shuffle(rng, candidates)

	emitted := make(map[model.QuestionID]struct{})
	for _, c := range candidates {
		if len(res.Queries) >= count {
			break
		}
		if reg.Contains(c.context) {
			res.Stats.Skipped++
			continue
		}
		qid := model.NewQuestionID(src, c.originalID)
		if _, ok := emitted[qid]; ok {
			res.Stats.Skipped++
			continue
		}
		emitted[qid] = struct{}{}

		doc := newDocument(src, c.originalID, c.context, true)
		res.accept(reg, singleHopQuery(src, c.originalID, c.question, c.answer, doc.DocID), []*model.Document{doc})
	}

	res.log(ctx)
	return res
}

type drcdExtractor struct {
	ds *source.DRCD
}

func (x *drcdExtractor) Source() model.Source { return model.SourceDRCD }

func (x *drcdExtractor) Extract(ctx context.Context, reg *Registry, rng Shuffler, count int) *Result {
	var candidates []singleHopCandidate
	for i, article := range x.ds.Articles {
		for j, para := range article.Paragraphs {
			if blank(para.Context) || reg.Contains(para.Context) {
				continue
			}
			for k, qa := range para.QAs {
				if len(qa.Answers) == 0 || blank(qa.Answers[0].Text) {
					continue
				}
				id := qa.QAID()
				if id == "" {
					id = fmt.Sprintf("a%d-p%d-q%d", i, j, k)
				}
				candidates = append(candidates, singleHopCandidate{
					originalID: id,
					question:   qa.Question,
					answer:     qa.Answers[0].Text,
					context:    para.Context,
				})
			}
		}
	}

	return selectSingleHop(ctx, x.Source(), reg, rng, count, candidates)
}

type squadExtractor struct {
	ds *source.SQuAD
}

func (x *squadExtractor) Source() model.Source { return model.SourceSQuADv2 }

func (x *squadExtractor) Extract(ctx context.Context, reg *Registry, rng Shuffler, count int) *Result {
	var candidates []singleHopCandidate
	for i, rec := range x.ds.Records {
		// unanswerable questions carry an empty answer list
		if len(rec.Answers.Text) == 0 || blank(rec.Answers.Text[0]) {
			continue
		}
		if blank(rec.Context) || reg.Contains(rec.Context) {
			continue
		}
		candidates = append(candidates, singleHopCandidate{
			originalID: recordID(rec.RecordID(), i),
			question:   rec.Question,
			answer:     rec.Answers.Text[0],
			context:    rec.Context,
		})
	}

	return selectSingleHop(ctx, x.Source(), reg, rng, count, candidates)
}

// recordID falls back to the record position when the native id is absent
func recordID(id string, index int) string {
	if id != "" {
		return id
	}
	return "r" + strconv.Itoa(index)
}
