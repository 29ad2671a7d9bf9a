// Package source decodes the native JSON layouts of the five upstream QA
// datasets into typed records. Each layout is a distinct Dataset variant so
// extractors dispatch on the type instead of probing map keys.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

var (
	ErrUnknownSource = goerr.New("no decoder for source")
	ErrSchema        = goerr.New("record does not match source schema")
)

// Dataset is the sealed sum type of decoded source files
type Dataset interface {
	Source() model.Source
	Len() int

	sealed()
}

// NegativePool is implemented by datasets that may donate random negatives
// to the corpus. Multi-hop datasets deliberately do not implement it.
type NegativePool interface {
	Dataset
	// NegativeContents returns candidate content strings in file order
	NegativeContents() []string
}

// DecodeError reports which record and field broke the expected schema
type DecodeError struct {
	Source model.Source
	Index  int
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s[%d]: %v", e.Source, e.Index, e.Err)
	}
	return fmt.Sprintf("%s[%d].%s: %v", e.Source, e.Index, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a whole source file. The file must be a JSON array of
// records in the native layout of src.
func Decode(src model.Source, data []byte) (Dataset, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, goerr.Wrap(err, "source file is not a JSON array", goerr.V("source", src))
	}

	switch src {
	case model.SourceDRCD:
		return decodeDRCD(records)
	case model.SourceSQuADv2:
		return decodeSQuAD(records)
	case model.SourceMSMarco:
		return decodeMSMarco(records)
	case model.SourceHotpotQA:
		return decodeMultiHop(src, records, false)
	case model.Source2Wiki:
		return decodeMultiHop(src, records, true)
	default:
		return nil, goerr.Wrap(ErrUnknownSource, "cannot decode", goerr.V("source", src))
	}
}

func decodeRecord(src model.Source, idx int, raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return &DecodeError{Source: src, Index: idx, Field: field, Err: err}
	}
	return nil
}

// flexString accepts JSON strings and numbers. Native IDs are integers in
// some releases (MS MARCO query_id) and strings in others.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return goerr.Wrap(ErrSchema, "expected string or number", goerr.V("value", string(data)))
		}
		*f = flexString(n.String())
		return nil
	}
}
