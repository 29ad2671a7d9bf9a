// Package policy evaluates user supplied Rego rules against a generation.
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

// Query is evaluated on every generation. Package verify may define the
// sets fail and warn, each holding human readable messages.
const Query = "data.verify"

// Input is the document rules see as input
type Input struct {
	Generation string `json:"generation"`
	Queries    []any  `json:"queries"`
	Corpus     []any  `json:"corpus"`
}

// Result holds the messages produced by the rules, sorted
type Result struct {
	Fail []string
	Warn []string
}

// Engine holds the prepared verify query
type Engine struct {
	query *rego.PreparedEvalQuery
}

// printHook forwards Rego print() output to the context logger
type printHook struct {
	ctx context.Context
}

func (h *printHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Load reads every .rego file in policyDir. It returns nil without error
// when the directory has no policy files.
func Load(ctx context.Context, policyDir string) (*Engine, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+2)
	options = append(options, rego.Query(Query), rego.EnablePrintStatements(true))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare query", goerr.V("query", Query))
	}

	logging.From(ctx).Debug("loaded policies", "dir", policyDir, "files", len(files))
	return &Engine{query: &prepared}, nil
}

// Evaluate runs the rules on input
func (e *Engine) Evaluate(ctx context.Context, input *Input) (*Result, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&printHook{ctx: ctx}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate verify policy", goerr.V("generation", input.Generation))
	}

	result := &Result{}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return result, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("verify policy must be an object", goerr.V("value", rs[0].Expressions[0].Value))
	}
	result.Fail = messages(data["fail"])
	result.Warn = messages(data["warn"])
	return result, nil
}

func messages(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprint(item))
		}
	}
	slices.Sort(out)
	return out
}
