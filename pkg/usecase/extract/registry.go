package extract

// Registry is the set of content strings already emitted as a document.
// One Registry is owned by a build run and passed by pointer through every
// extractor and the backfill collector in sequence; it is not safe for
// concurrent use.
type Registry struct {
	seen map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

func (r *Registry) Contains(content string) bool {
	_, ok := r.seen[content]
	return ok
}

// ContainsAny reports whether at least one of contents is registered
func (r *Registry) ContainsAny(contents []string) bool {
	for _, c := range contents {
		if r.Contains(c) {
			return true
		}
	}
	return false
}

func (r *Registry) Add(contents ...string) {
	for _, c := range contents {
		r.seen[c] = struct{}{}
	}
}

func (r *Registry) Len() int { return len(r.seen) }
