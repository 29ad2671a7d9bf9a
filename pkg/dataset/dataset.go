// Package dataset reads and writes benchmark files through adapter.Storage.
package dataset

import (
	"context"
	"encoding/json"
	"io"
	"path"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/source"
	"golang.org/x/sync/errgroup"
)

// Generation is one decoded (queries, corpus) pair
type Generation struct {
	Kind    model.Generation
	Queries []*model.Query
	Corpus  []*model.Document
}

// WriteJSON stores v as 2-space indented JSON with non-ASCII characters
// left unescaped
func WriteJSON(ctx context.Context, st adapter.Storage, key string, v any) error {
	w, err := st.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open output", goerr.V("key", key))
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode JSON", goerr.V("key", key))
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close output", goerr.V("key", key))
	}
	return nil
}

// ReadBytes returns the whole object stored at key
func ReadBytes(ctx context.Context, st adapter.Storage, key string) ([]byte, error) {
	r, err := st.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("key", key))
	}
	return data, nil
}

// ReadJSON decodes the object stored at key into v
func ReadJSON(ctx context.Context, st adapter.Storage, key string, v any) error {
	data, err := ReadBytes(ctx, st, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return goerr.Wrap(err, "malformed JSON", goerr.V("key", key))
	}
	return nil
}

// LoadSources decodes the configured source files under dir. Files are read
// concurrently; the result is keyed by source so load order does not leak
// into the pipeline.
func LoadSources(ctx context.Context, st adapter.Storage, dir string, sources []model.SourceConfig) (map[model.Source]source.Dataset, error) {
	loaded := make([]source.Dataset, len(sources))

	eg, ctx := errgroup.WithContext(ctx)
	for i, sc := range sources {
		eg.Go(func() error {
			key := path.Join(dir, sc.File)
			data, err := ReadBytes(ctx, st, key)
			if err != nil {
				return goerr.Wrap(err, "failed to load source", goerr.V("source", sc.Name))
			}
			ds, err := source.Decode(sc.Name, data)
			if err != nil {
				return goerr.Wrap(err, "failed to decode source", goerr.V("source", sc.Name), goerr.V("key", key))
			}
			loaded[i] = ds
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[model.Source]source.Dataset, len(sources))
	for i, sc := range sources {
		out[sc.Name] = loaded[i]
	}
	return out, nil
}

// Exists reports whether both files of gen are present under dir
func Exists(ctx context.Context, st adapter.Storage, dir string, gen model.Generation) (bool, error) {
	qKey, cKey := gen.Paths(dir)
	for _, key := range []string{qKey, cKey} {
		ok, err := st.Exists(ctx, key)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Load decodes both files of gen under dir into typed records
func Load(ctx context.Context, st adapter.Storage, dir string, gen model.Generation) (*Generation, error) {
	qKey, cKey := gen.Paths(dir)
	g := &Generation{Kind: gen}
	if err := ReadJSON(ctx, st, qKey, &g.Queries); err != nil {
		return nil, err
	}
	if err := ReadJSON(ctx, st, cKey, &g.Corpus); err != nil {
		return nil, err
	}
	return g, nil
}

// Save writes both files of g under dir
func Save(ctx context.Context, st adapter.Storage, dir string, g *Generation) error {
	qKey, cKey := g.Kind.Paths(dir)
	if err := WriteJSON(ctx, st, qKey, g.Queries); err != nil {
		return err
	}
	return WriteJSON(ctx, st, cKey, g.Corpus)
}
