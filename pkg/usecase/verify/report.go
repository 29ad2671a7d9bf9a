package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
	StatusSkip Status = "SKIP"
)

// Stage is the validation phase a check was recorded in
type Stage string

const (
	StageFileExistence Stage = "file_existence"
	StagePairChecks    Stage = "pair_checks"
	StagePolicy        Stage = "policy"
	StageCrossChecks   Stage = "cross_checks"
)

// CrossLabel is the generation label of cross-generation checks
const CrossLabel = "Raw vs Processed"

// Check is one recorded verification result
type Check struct {
	Generation string `json:"generation"`
	Stage      Stage  `json:"stage"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message"`
	// Details lists offending items up to the display limit
	Details []string `json:"details,omitempty"`
	// Violations is the full number of offending items
	Violations int `json:"violations"`
}

// Report is the ordered list of checks of one verify run
type Report struct {
	Checks []*Check `json:"checks"`
}

func (r *Report) add(c *Check) {
	r.Checks = append(r.Checks, c)
}

// Count returns the number of checks with status s
func (r *Report) Count(s Status) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any check failed
func (r *Report) Failed() bool {
	return r.Count(StatusFail) > 0
}

func (r *Report) Summary() string {
	return fmt.Sprintf("%d PASS, %d FAIL, %d WARN, %d SKIP",
		r.Count(StatusPass), r.Count(StatusFail), r.Count(StatusWarn), r.Count(StatusSkip))
}

// Find returns the first check of generation with the given name
func (r *Report) Find(generation, name string) *Check {
	for _, c := range r.Checks {
		if c.Generation == generation && c.Name == name {
			return c
		}
	}
	return nil
}

// Render writes the report as text grouped by generation and stage
func (r *Report) Render(w io.Writer) {
	line := strings.Repeat("=", 60)
	var group string
	for _, c := range r.Checks {
		if g := c.Generation + "/" + string(c.Stage); g != group {
			group = g
			fmt.Fprintf(w, "\n[%s - %s]\n", c.Generation, c.Stage)
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", c.Status, c.Name, c.Message)
		for _, d := range c.Details {
			fmt.Fprintf(w, "    - %s\n", d)
		}
		if rest := c.Violations - len(c.Details); len(c.Details) > 0 && rest > 0 {
			fmt.Fprintf(w, "    ... and %d more\n", rest)
		}
	}
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", line, r.Summary(), line)
}

// RenderJSON writes the report as indented JSON
func (r *Report) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return goerr.Wrap(err, "failed to encode verify report")
	}
	return nil
}

// violations builds a check from a list of offending items, capping the
// details at limit
func violations(generation string, stage Stage, name string, items []string, limit int, fail Status, okMsg, ngMsg string) *Check {
	c := &Check{
		Generation: generation,
		Stage:      stage,
		Name:       name,
		Violations: len(items),
	}
	if len(items) == 0 {
		c.Status = StatusPass
		c.Message = okMsg
		return c
	}

	c.Status = fail
	c.Message = fmt.Sprintf("%s: %d", ngMsg, len(items))
	if len(items) > limit {
		c.Message += fmt.Sprintf(" (showing first %d)", limit)
		items = items[:limit]
	}
	c.Details = items
	return c
}
