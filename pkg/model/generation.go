package model

import "path"

// Generation identifies one (queries, corpus) file pair
type Generation string

const (
	GenerationRaw       Generation = "raw"
	GenerationProcessed Generation = "processed"
)

// AllGenerations returns generations in verification order
func AllGenerations() []Generation {
	return []Generation{GenerationRaw, GenerationProcessed}
}

// Label is the display name used in reports
func (g Generation) Label() string {
	switch g {
	case GenerationRaw:
		return "Raw"
	case GenerationProcessed:
		return "Processed"
	default:
		return string(g)
	}
}

// QueriesFile returns the file name of the generation's queries
func (g Generation) QueriesFile() string {
	if g == GenerationRaw {
		return "queries_raw.json"
	}
	return "queries.json"
}

// CorpusFile returns the file name of the generation's corpus
func (g Generation) CorpusFile() string {
	if g == GenerationRaw {
		return "corpus_raw.json"
	}
	return "corpus.json"
}

// Paths returns the queries and corpus keys under dir
func (g Generation) Paths(dir string) (queries, corpus string) {
	return path.Join(dir, g.QueriesFile()), path.Join(dir, g.CorpusFile())
}
