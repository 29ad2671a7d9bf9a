package extract_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/extract"
)

// keepOrder leaves candidates in file order so tests can reason about
// greedy acceptance
type keepOrder struct{}

func (keepOrder) Shuffle(int, func(i, j int)) {}

func newExtractor(t *testing.T, src model.Source, data string) extract.Extractor {
	t.Helper()
	ds, err := source.Decode(src, []byte(data))
	gt.NoError(t, err)
	x, err := extract.New(ds)
	gt.NoError(t, err)
	gt.Equal(t, x.Source(), src)
	return x
}

func TestSingleHopDuplicateContext(t *testing.T) {
	data := `[
		{"id":"s0","context":"shared context","question":"q0?","answers":{"text":["a0"],"answer_start":[0]}},
		{"id":"s1","context":"shared context","question":"q1?","answers":{"text":["a1"],"answer_start":[0]}},
		{"id":"s2","context":"other context","question":"q2?","answers":{"text":["a2"],"answer_start":[0]}}
	]`
	x := newExtractor(t, model.SourceSQuADv2, data)

	reg := extract.NewRegistry()
	res := x.Extract(context.Background(), reg, keepOrder{}, 2)

	gt.A(t, res.Queries).Length(2)
	gt.A(t, res.Gold).Length(2)
	gt.A(t, res.HardNegatives).Length(0)
	gt.NotEqual(t, res.Gold[0].Content, res.Gold[1].Content)
	gt.Equal(t, res.Queries[0].GoldDocIDs, []model.DocID{model.NewDocID(model.SourceSQuADv2, "s0")})
	gt.Equal(t, res.Queries[1].QuestionID, model.NewQuestionID(model.SourceSQuADv2, "s2"))
	gt.Equal(t, res.Stats.Skipped, 1)
	gt.True(t, reg.Contains("shared context"))
	gt.True(t, reg.Contains("other context"))
}

func TestSQuADFiltersUnanswerable(t *testing.T) {
	data := `[
		{"id":"s0","context":"c0","question":"q0?","answers":{"text":[],"answer_start":[]}},
		{"id":"s1","context":"","question":"q1?","answers":{"text":["a1"],"answer_start":[0]}},
		{"id":"s2","context":"c2","question":"q2?","answers":{"text":["a2"],"answer_start":[0]}}
	]`
	x := newExtractor(t, model.SourceSQuADv2, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 20)
	gt.A(t, res.Queries).Length(1)
	gt.Equal(t, res.Stats.Candidates, 1)
	gt.Equal(t, res.Stats.Requested, 20)
	gt.Equal(t, res.Queries[0].GoldAnswer, "a2")
	gt.Equal(t, res.Queries[0].QuestionType, model.QuestionTypeSingleHop)
}

func TestDRCD(t *testing.T) {
	data := `[{"title":"t","paragraphs":[
		{"context":"段落甲","qas":[
			{"id":"d1","question":"問一?","answers":[{"text":"答一","answer_start":0}]},
			{"id":"d2","question":"問二?","answers":[{"text":"答二","answer_start":0}]}
		]},
		{"context":"段落乙","qas":[{"question":"問三?","answers":[{"text":"答三","answer_start":0}]}]},
		{"context":"段落丙","qas":[{"id":"d4","question":"問四?","answers":[]}]}
	]}]`
	x := newExtractor(t, model.SourceDRCD, data)

	reg := extract.NewRegistry()
	res := x.Extract(context.Background(), reg, keepOrder{}, 5)

	gt.A(t, res.Queries).Length(2)
	gt.Equal(t, res.Gold[0].OriginalID, "d1")
	// missing id falls back to the position of the entry
	gt.Equal(t, res.Gold[1].OriginalID, "a0-p1-q0")
	gt.Equal(t, res.Queries[1].GoldAnswer, "答三")
	gt.False(t, reg.Contains("段落丙"))
}

func TestRegistrySharedAcrossExtractors(t *testing.T) {
	drcd := newExtractor(t, model.SourceDRCD, `[{"paragraphs":[{"context":"same","qas":[
		{"id":"d1","question":"q?","answers":[{"text":"a"}]}]}]}]`)
	squad := newExtractor(t, model.SourceSQuADv2, `[
		{"id":"s1","context":"same","question":"q?","answers":{"text":["a"]}}]`)

	reg := extract.NewRegistry()
	gt.A(t, drcd.Extract(context.Background(), reg, keepOrder{}, 1).Queries).Length(1)
	res := squad.Extract(context.Background(), reg, keepOrder{}, 1)
	gt.A(t, res.Queries).Length(0)
	gt.Equal(t, res.Stats.Candidates, 0)
}

func TestMSMarcoPassageSplit(t *testing.T) {
	data := `[{"query_id":1,"query":"what?","passages":{
		"is_selected":[0,1,0],"passage_text":["neg one","gold passage","neg two"],"url":["a","b","c"]},
		"answers":["because"]}]`
	x := newExtractor(t, model.SourceMSMarco, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 1)
	gt.A(t, res.Queries).Length(1)
	gt.A(t, res.Gold).Length(1)
	gt.A(t, res.HardNegatives).Length(2)
	gt.A(t, res.Queries[0].GoldDocIDs).Length(1)

	gold := res.Gold[0]
	gt.True(t, gold.IsGold)
	gt.Equal(t, gold.OriginalID, "1_p1")
	gt.Equal(t, gold.DocID, model.NewDocID(model.SourceMSMarco, "1_p1"))
	gt.Equal(t, res.Queries[0].GoldDocIDs[0], gold.DocID)
	for _, neg := range res.HardNegatives {
		gt.False(t, neg.IsGold)
	}
}

func TestMSMarcoFilters(t *testing.T) {
	data := `[
		{"query_id":1,"query":"q1","passages":{"is_selected":[1],"passage_text":["p1"]},"answers":["No Answer Present."]},
		{"query_id":2,"query":"q2","passages":{"is_selected":[1],"passage_text":["p2"]},"answers":[]},
		{"query_id":3,"query":"q3","passages":{"is_selected":[0],"passage_text":["p3"]},"answers":["a3"]},
		{"query_id":4,"query":"q4","passages":{"is_selected":[1],"passage_text":["p4"]},"answers":[" "]},
		{"query_id":5,"query":"q5","passages":{"is_selected":[0,1],"passage_text":["dup","p5"]},"answers":["a5"]},
		{"query_id":6,"query":"q6","passages":{"is_selected":[1,0,0],"passage_text":["p6","dup","dup"]},"answers":["a6"]}
	]`
	x := newExtractor(t, model.SourceMSMarco, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 10)
	gt.Equal(t, res.Stats.Candidates, 2)
	// q6 collides with q5 on "dup" and is rejected as a whole
	gt.A(t, res.Queries).Length(1)
	gt.Equal(t, res.Queries[0].Question, "q5")
	gt.Equal(t, res.Stats.Skipped, 1)
}

func TestMSMarcoDedupeWithinItem(t *testing.T) {
	data := `[{"query_id":"x","query":"q","passages":{"is_selected":[1,0,0],"passage_text":["g","n","n"]},"answers":["a"]}]`
	x := newExtractor(t, model.SourceMSMarco, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 1)
	gt.A(t, res.HardNegatives).Length(1)
	gt.Equal(t, res.HardNegatives[0].OriginalID, "x_p1")
}

func TestMSMarcoSelectedRepeat(t *testing.T) {
	data := `[{"query_id":"m","query":"q","passages":{"is_selected":[0,1],"passage_text":["same text","same text"]},"answers":["a"]}]`
	x := newExtractor(t, model.SourceMSMarco, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 1)
	gt.A(t, res.Queries).Length(1)
	gt.A(t, res.Gold).Length(1)
	gt.A(t, res.HardNegatives).Length(0)
	gt.True(t, res.Gold[0].IsGold)
	gt.Equal(t, res.Gold[0].OriginalID, "m_p0")
	gt.Equal(t, res.Queries[0].GoldDocIDs, []model.DocID{res.Gold[0].DocID})
}

const hotpotData = `[
	{"id":"h1","question":"who?","answer":"her",
	 "supporting_facts":{"title":["A","B","Missing"],"sent_id":[0,0,0]},
	 "context":{"title":["A","B","C","C"],"sentences":[["a1.","a2."],["b1."],["c1."],["c2."]]}},
	{"id":"h2","question":"what?","answer":"",
	 "supporting_facts":{"title":["X"],"sent_id":[0]},
	 "context":{"title":["X"],"sentences":[["x1."]]}},
	{"id":"h3","question":"where?","answer":"there",
	 "supporting_facts":{"title":["D"],"sent_id":[0]},
	 "context":{"title":["D","E"],"sentences":[["b1."],["e1."]]}}
]`

func TestMultiHop(t *testing.T) {
	x := newExtractor(t, model.SourceHotpotQA, hotpotData)

	reg := extract.NewRegistry()
	res := x.Extract(context.Background(), reg, keepOrder{}, 5)

	// h2 has no answer; h3 collides with h1 on "b1." and is rejected
	gt.Equal(t, res.Stats.Candidates, 2)
	gt.A(t, res.Queries).Length(1)
	gt.Equal(t, res.Stats.Skipped, 1)

	q := res.Queries[0]
	gt.Equal(t, q.QuestionType, model.QuestionTypeMultiHop)
	gt.A(t, q.GoldDocIDs).Length(2)
	gt.Equal(t, q.GoldDocIDs[0], model.NewDocID(model.SourceHotpotQA, "h1_A"))
	gt.Equal(t, res.Gold[0].Content, "a1. a2.")

	gt.A(t, res.HardNegatives).Length(2)
	gt.Equal(t, res.HardNegatives[0].OriginalID, "h1_C")
	gt.Equal(t, res.HardNegatives[1].OriginalID, "h1_C_3")

	gt.Equal(t, res.Stats.DroppedGoldRefs, 1)
	gt.False(t, reg.Contains("e1."))
}

func Test2WikiVariant(t *testing.T) {
	data := `[{"_id":"w1","question":"q?","answer":"a",
		"supporting_facts":[["P",0]],
		"context":[["P",["p1."]],["Q",["q1."]]]}]`
	x := newExtractor(t, model.Source2Wiki, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 1)
	gt.A(t, res.Queries).Length(1)
	gt.Equal(t, res.Queries[0].Source, model.Source2Wiki)
	gt.Equal(t, res.Gold[0].OriginalID, "w1_P")
	gt.Equal(t, res.HardNegatives[0].OriginalID, "w1_Q")
}

func TestExtractDeterministic(t *testing.T) {
	var records []string
	for i := range 50 {
		records = append(records, fmt.Sprintf(`{"id":"s%d","context":"context %d","question":"q%d?","answers":{"text":["a"]}}`, i, i, i))
	}
	data := "[" + strings.Join(records, ",") + "]"

	run := func() []model.QuestionID {
		x := newExtractor(t, model.SourceSQuADv2, data)
		res := x.Extract(context.Background(), extract.NewRegistry(), extract.NewRandom(42), 10)
		var ids []model.QuestionID
		for _, q := range res.Queries {
			ids = append(ids, q.QuestionID)
		}
		return ids
	}

	first := run()
	gt.A(t, first).Length(10)
	gt.Equal(t, first, run())
}

func TestMultiHopSupportingRepeat(t *testing.T) {
	data := `[{"id":"h","question":"q?","answer":"a",
		"supporting_facts":{"title":["B"],"sent_id":[0]},
		"context":{"title":["A","B","C"],"sentences":[["dup."],["dup."],["c."]]}}]`
	x := newExtractor(t, model.SourceHotpotQA, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 1)
	gt.A(t, res.Queries).Length(1)
	gt.A(t, res.Gold).Length(1)
	gt.Equal(t, res.Gold[0].Content, "dup.")
	gt.Equal(t, res.Queries[0].GoldDocIDs, []model.DocID{res.Gold[0].DocID})
	gt.A(t, res.HardNegatives).Length(1)
	gt.Equal(t, res.HardNegatives[0].Content, "c.")
	gt.Equal(t, res.Stats.DroppedGoldRefs, 0)
}

func TestMultiHopRepeatedTitleIDs(t *testing.T) {
	data := `[{"id":"h","question":"q?","answer":"a",
		"supporting_facts":{"title":["A"],"sent_id":[0]},
		"context":{"title":["A","A","A_1"],"sentences":[["one."],["two."],["three."]]}}]`
	x := newExtractor(t, model.SourceHotpotQA, data)

	res := x.Extract(context.Background(), extract.NewRegistry(), keepOrder{}, 1)
	gt.A(t, res.Queries).Length(1)

	seen := map[model.DocID]string{}
	for _, d := range append(res.Gold, res.HardNegatives...) {
		_, dup := seen[d.DocID]
		gt.False(t, dup)
		seen[d.DocID] = d.OriginalID
	}
	gt.Equal(t, len(seen), 3)
	gt.Equal(t, seen[model.NewDocID(model.SourceHotpotQA, "h_A_1")], "h_A_1")
	gt.Equal(t, seen[model.NewDocID(model.SourceHotpotQA, "h_A_1_2")], "h_A_1_2")
}
