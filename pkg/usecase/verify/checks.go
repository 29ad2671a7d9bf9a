package verify

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"
)

const missingSource = "<missing>"

// records is one decoded generation. Records are kept as generic JSON so
// missing fields and wrong types can be told apart.
type records struct {
	label   string
	queries []any
	corpus  []any
}

func str(rec any, key string) (string, bool) {
	obj, ok := rec.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj[key].(string)
	return s, ok
}

func goldIDs(rec any) []any {
	obj, ok := rec.(map[string]any)
	if !ok {
		return nil
	}
	ids, _ := obj["gold_doc_ids"].([]any)
	return ids
}

func (v *Validator) checkCounts(r *records) []*Check {
	cfg := v.cfg.Verify
	var out []*Check

	count := func(name, what string, got, want int) *Check {
		c := &Check{Generation: r.label, Stage: StagePairChecks, Name: name}
		if got == want {
			c.Status = StatusPass
			c.Message = fmt.Sprintf("%s: %d", what, got)
		} else {
			c.Status = StatusFail
			c.Message = fmt.Sprintf("%s: %d (expected %d)", what, got, want)
			c.Violations = 1
		}
		return c
	}
	out = append(out, count("query_count", "queries", len(r.queries), cfg.ExpectedQueries))
	out = append(out, count("corpus_count", "documents", len(r.corpus), cfg.ExpectedCorpus))

	got := make(map[string]int)
	for _, q := range r.queries {
		src, ok := str(q, "source_dataset")
		if !ok {
			src = missingSource
		}
		got[src]++
	}
	want := make(map[string]int)
	for src, n := range v.cfg.ExpectedDistribution() {
		if n > 0 {
			want[string(src)] = n
		}
	}

	var diffs []string
	keys := slices.Sorted(maps.Keys(got))
	for k := range want {
		if _, ok := got[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		if got[k] != want[k] {
			diffs = append(diffs, fmt.Sprintf("%s: %d (expected %d)", k, got[k], want[k]))
		}
	}
	c := violations(r.label, StagePairChecks, "distribution", diffs, cfg.DisplayLimit, StatusFail,
		fmt.Sprintf("source distribution matches %s", formatDist(got)), "source distribution differs")
	out = append(out, c)

	return out
}

func formatDist(dist map[string]int) string {
	s := "{"
	for i, k := range slices.Sorted(maps.Keys(dist)) {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %d", k, dist[k])
	}
	return s + "}"
}

func (v *Validator) checkSchemas(r *records) []*Check {
	limit := v.cfg.Verify.DisplayLimit
	var out []*Check

	for _, target := range []struct {
		name   string
		kind   string
		recs   []any
		fields []*field
	}{
		{"query_schema", "queries", r.queries, v.queryFields},
		{"corpus_schema", "corpus", r.corpus, v.corpusFields},
	} {
		res := checkSchema(target.kind, target.recs, target.fields)
		c := violations(r.label, StagePairChecks, target.name, res.all(), limit, StatusFail,
			fmt.Sprintf("%d records have all %d required fields", len(target.recs), len(target.fields)),
			fmt.Sprintf("%d missing, %d wrong type or value; total", len(res.missing), len(res.invalid)))
		out = append(out, c)
	}
	return out
}

func (v *Validator) checkReferences(r *records) []*Check {
	limit := v.cfg.Verify.DisplayLimit

	docs := make(map[string]bool, len(r.corpus))
	for _, d := range r.corpus {
		if id, ok := str(d, "doc_id"); ok {
			gold, _ := d.(map[string]any)["is_gold"].(bool)
			docs[id] = docs[id] || gold
		}
	}

	var missing, notGold []string
	for _, q := range r.queries {
		qid, _ := str(q, "question_id")
		for _, g := range goldIDs(q) {
			id, _ := g.(string)
			gold, ok := docs[id]
			switch {
			case !ok:
				missing = append(missing, fmt.Sprintf("query=%s -> doc=%s", qid, id))
			case !gold:
				notGold = append(notGold, fmt.Sprintf("query=%s -> doc=%s", qid, id))
			}
		}
	}

	return []*Check{
		violations(r.label, StagePairChecks, "referential_integrity", missing, limit, StatusFail,
			"all gold doc ids resolve to a document", "gold doc ids without a document"),
		violations(r.label, StagePairChecks, "gold_flags", notGold, limit, StatusWarn,
			"all gold doc ids point at is_gold documents", "gold doc ids pointing at non-gold documents"),
	}
}

func duplicates(recs []any, key string) (dups []string, unique int) {
	counts := make(map[string]int)
	var order []string
	for _, rec := range recs {
		id, ok := str(rec, key)
		if !ok {
			continue
		}
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	for _, id := range order {
		if counts[id] > 1 {
			dups = append(dups, fmt.Sprintf("%s (x%d)", id, counts[id]))
		}
	}
	return dups, len(order)
}

func (v *Validator) checkUniqueness(r *records) []*Check {
	limit := v.cfg.Verify.DisplayLimit

	qDups, qUnique := duplicates(r.queries, "question_id")
	dDups, dUnique := duplicates(r.corpus, "doc_id")
	cDups, _ := duplicates(r.corpus, "content")

	// content digests keep the report readable
	for i, d := range cDups {
		cDups[i] = shorten(d, 80)
	}

	return []*Check{
		violations(r.label, StagePairChecks, "unique_question_id", qDups, limit, StatusFail,
			fmt.Sprintf("%d unique question ids", qUnique), "duplicated question ids"),
		violations(r.label, StagePairChecks, "unique_doc_id", dDups, limit, StatusFail,
			fmt.Sprintf("%d unique doc ids", dUnique), "duplicated doc ids"),
		violations(r.label, StagePairChecks, "unique_content", cDups, limit, StatusWarn,
			"document contents are unique", "duplicated document contents"),
	}
}

// checkLanguage warns about records from non-native sources whose text has
// no character of the target script
func (v *Validator) checkLanguage(r *records) []*Check {
	limit := v.cfg.Verify.DisplayLimit
	native := string(v.cfg.Verify.NativeSource)

	var qBad []string
	qTotal := 0
	for i, q := range r.queries {
		if src, _ := str(q, "source_dataset"); src == native {
			continue
		}
		qTotal++
		if text, _ := str(q, "question"); !v.script.Contains(text) {
			qid, _ := str(q, "question_id")
			qBad = append(qBad, fmt.Sprintf("queries[%d] %s", i, qid))
		}
	}

	var dBad []string
	dTotal := 0
	for i, d := range r.corpus {
		if src, _ := str(d, "original_source"); src == native {
			continue
		}
		dTotal++
		if text, _ := str(d, "content"); !v.script.Contains(text) {
			id, _ := str(d, "doc_id")
			dBad = append(dBad, fmt.Sprintf("corpus[%d] %s", i, id))
		}
	}

	lang := v.script.Tag.String()
	return []*Check{
		violations(r.label, StagePairChecks, "question_language", qBad, limit, StatusWarn,
			fmt.Sprintf("all %d non-%s questions contain %s text", qTotal, native, lang),
			fmt.Sprintf("questions possibly not in %s", lang)),
		violations(r.label, StagePairChecks, "content_language", dBad, limit, StatusWarn,
			fmt.Sprintf("all %d non-%s documents contain %s text", dTotal, native, lang),
			fmt.Sprintf("documents possibly not in %s", lang)),
	}
}

func (v *Validator) checkCross(raw, processed *records) []*Check {
	limit := v.cfg.Verify.DisplayLimit
	var out []*Check

	count := func(name, what string, a, b int) *Check {
		c := &Check{Generation: CrossLabel, Stage: StageCrossChecks, Name: name}
		if a == b {
			c.Status = StatusPass
			c.Message = fmt.Sprintf("%s match (%d)", what, a)
		} else {
			c.Status = StatusFail
			c.Message = fmt.Sprintf("%s differ (raw %d, processed %d)", what, a, b)
			c.Violations = 1
		}
		return c
	}

	out = append(out, count("query_count", "query counts", len(raw.queries), len(processed.queries)))

	rawIDs := idSet(raw.queries, "question_id")
	procIDs := idSet(processed.queries, "question_id")
	var diff []string
	for _, id := range slices.Sorted(maps.Keys(rawIDs)) {
		if !procIDs[id] {
			diff = append(diff, "only in raw: "+id)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(procIDs)) {
		if !rawIDs[id] {
			diff = append(diff, "only in processed: "+id)
		}
	}
	out = append(out, violations(CrossLabel, StageCrossChecks, "question_id_set", diff, limit, StatusFail,
		"question id sets are identical", "question ids differ"))

	out = append(out, count("corpus_count", "corpus counts", len(raw.corpus), len(processed.corpus)))
	return out
}

func idSet(recs []any, key string) map[string]bool {
	out := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if id, ok := str(rec, key); ok {
			out[id] = true
		}
	}
	return out
}

// shorten cuts s to at most limit bytes on a rune boundary
func shorten(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit - len("...")
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + "..."
}
