package extract

import (
	"context"
	"strconv"

	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

// multiHopExtractor handles hotpotqa and its 2wiki variant. Shape
// differences between the two are resolved while decoding.
type multiHopExtractor struct {
	ds *source.MultiHop
}

type multiHopCandidate struct {
	originalID string
	record     *source.MultiHopRecord
}

func (x *multiHopExtractor) Source() model.Source { return x.ds.Tag }

func (x *multiHopExtractor) Extract(ctx context.Context, reg *Registry, rng Shuffler, count int) *Result {
	src := x.Source()
	res := newResult(src, count)

	var candidates []multiHopCandidate
	for i := range x.ds.Records {
		rec := &x.ds.Records[i]
		if blank(rec.Answer) {
			continue
		}
		candidates = append(candidates, multiHopCandidate{
			originalID: recordID(rec.ID, i),
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

		split := classifyParagraphs(src, reg, c.originalID, c.record)
		if !split.ok() {
			res.Stats.Skipped++
			continue
		}
		emitted[qid] = struct{}{}

		if len(split.droppedTitles) > 0 {
			res.Stats.DroppedGoldRefs += len(split.droppedTitles)
			logging.From(ctx).Warn("supporting title has no paragraph content",
				"source", src,
				"question_id", qid,
				"titles", split.droppedTitles,
			)
		}

		res.accept(reg, &model.Query{
			QuestionID:   qid,
			Question:     c.record.Question,
			GoldAnswer:   c.record.Answer,
			GoldDocIDs:   split.goldIDs,
			Source:       src,
			QuestionType: src.QuestionType(),
		}, split.docs)
	}

	res.log(ctx)
	return res
}

type paragraphSplit struct {
	docs          []*model.Document
	goldIDs       []model.DocID
	droppedTitles []string
	collided      bool
}

func (s paragraphSplit) ok() bool {
	return !s.collided && len(s.goldIDs) > 0
}

func classifyParagraphs(src model.Source, reg *Registry, originalID string, rec *source.MultiHopRecord) paragraphSplit {
	var split paragraphSplit

	seenContent := make(map[string]*model.Document, len(rec.Paragraphs))
	seenID := make(map[string]struct{}, len(rec.Paragraphs))
	goldTitles := make(map[string]struct{})

	for i, p := range rec.Paragraphs {
		if blank(p.Content) {
			continue
		}
		if reg.Contains(p.Content) {
			split.collided = true
			return split
		}
		gold := rec.IsSupporting(p.Title)
		if prev, dup := seenContent[p.Content]; dup {
			if gold {
				goldTitles[p.Title] = struct{}{}
				if !prev.IsGold {
					prev.IsGold = true
					split.goldIDs = append(split.goldIDs, prev.DocID)
				}
			}
			continue
		}

		docOriginalID := originalID + "_" + p.Title
		for {
			if _, taken := seenID[docOriginalID]; !taken {
				break
			}
			docOriginalID += "_" + strconv.Itoa(i)
		}
		seenID[docOriginalID] = struct{}{}

		doc := newDocument(src, docOriginalID, p.Content, gold)
		seenContent[p.Content] = doc
		split.docs = append(split.docs, doc)
		if gold {
			split.goldIDs = append(split.goldIDs, doc.DocID)
			goldTitles[p.Title] = struct{}{}
		}
	}

	reported := make(map[string]struct{})
	for _, title := range rec.SupportingTitles {
		if _, ok := goldTitles[title]; ok {
			continue
		}
		if _, ok := reported[title]; ok {
			continue
		}
		reported[title] = struct{}{}
		split.droppedTitles = append(split.droppedTitles, title)
	}

	return split
}
