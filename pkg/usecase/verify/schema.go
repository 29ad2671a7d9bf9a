package verify

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

// field is one required record field and the JSON Schema its value must
// satisfy
type field struct {
	name     string
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

func identifier() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", MinLength: jsonschema.Ptr(1)}
}

func enumOf[T ~string](values []T) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

func querySchema() []*field {
	return []*field{
		{name: "question_id", schema: identifier()},
		{name: "question", schema: &jsonschema.Schema{Type: "string"}},
		{name: "gold_answer", schema: &jsonschema.Schema{Type: "string"}},
		{name: "gold_doc_ids", schema: &jsonschema.Schema{
			Type:     "array",
			Items:    identifier(),
			MinItems: jsonschema.Ptr(1),
		}},
		{name: "source_dataset", schema: enumOf(model.AllSources())},
		{name: "question_type", schema: enumOf([]model.QuestionType{model.QuestionTypeSingleHop, model.QuestionTypeMultiHop})},
	}
}

func corpusSchema() []*field {
	return []*field{
		{name: "doc_id", schema: identifier()},
		{name: "content", schema: &jsonschema.Schema{Type: "string", MinLength: jsonschema.Ptr(1)}},
		{name: "original_source", schema: enumOf(model.AllSources())},
		{name: "original_id", schema: &jsonschema.Schema{Type: "string"}},
		{name: "is_gold", schema: &jsonschema.Schema{Type: "boolean"}},
	}
}

func resolveFields(fields []*field) ([]*field, error) {
	for _, f := range fields {
		r, err := f.schema.Resolve(nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve field schema", goerr.V("field", f.name))
		}
		f.resolved = r
	}
	return fields, nil
}

// schemaResult separates missing fields from present fields with a wrong
// type or value; both count as failures
type schemaResult struct {
	missing []string
	invalid []string
}

func (r *schemaResult) all() []string {
	out := make([]string, 0, len(r.missing)+len(r.invalid))
	out = append(out, r.missing...)
	return append(out, r.invalid...)
}

func checkSchema(kind string, records []any, fields []*field) *schemaResult {
	res := &schemaResult{}
	for i, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			res.invalid = append(res.invalid, fmt.Sprintf("%s[%d] is %s, not an object", kind, i, jsonTypeName(rec)))
			continue
		}
		for _, f := range fields {
			v, ok := obj[f.name]
			if !ok {
				res.missing = append(res.missing, fmt.Sprintf("%s[%d] missing field %s", kind, i, f.name))
				continue
			}
			if err := f.resolved.Validate(v); err != nil {
				res.invalid = append(res.invalid, fmt.Sprintf("%s[%d].%s invalid (%s): %v", kind, i, f.name, jsonTypeName(v), err))
			}
		}
	}
	return res
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
