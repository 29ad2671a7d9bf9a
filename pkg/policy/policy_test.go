package policy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/policy"
)

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	rules := `package verify

fail contains msg if {
	some q in input.queries
	q.gold_answer == ""
	msg := sprintf("empty gold answer: %s", [q.question_id])
}

warn contains msg if {
	count(input.corpus) < 2
	msg := sprintf("%s corpus is tiny", [input.generation])
}
`
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "verify.rego"), []byte(rules), 0644))

	engine, err := policy.Load(ctx, dir)
	gt.NoError(t, err)
	gt.NotNil(t, engine)

	result, err := engine.Evaluate(ctx, &policy.Input{
		Generation: "raw",
		Queries: []any{
			map[string]any{"question_id": "q1", "gold_answer": ""},
			map[string]any{"question_id": "q2", "gold_answer": "ok"},
		},
		Corpus: []any{map[string]any{"doc_id": "d1"}},
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Fail, []string{"empty gold answer: q1"})
	gt.Equal(t, result.Warn, []string{"raw corpus is tiny"})

	result, err = engine.Evaluate(ctx, &policy.Input{
		Generation: "processed",
		Queries:    []any{map[string]any{"question_id": "q2", "gold_answer": "ok"}},
		Corpus:     []any{map[string]any{"doc_id": "d1"}, map[string]any{"doc_id": "d2"}},
	})
	gt.NoError(t, err)
	gt.A(t, result.Fail).Length(0)
	gt.A(t, result.Warn).Length(0)
}

func TestLoadEmptyDir(t *testing.T) {
	engine, err := policy.Load(context.Background(), t.TempDir())
	gt.NoError(t, err)
	gt.Nil(t, engine)
}

func TestLoadInvalidPolicy(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "bad.rego"), []byte("package verify\nfail contains"), 0644))
	_, err := policy.Load(context.Background(), dir)
	gt.Error(t, err)
}
