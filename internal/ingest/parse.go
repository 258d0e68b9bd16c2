// Package ingest turns relation text into node and edge upserts.
//
// Each non-blank line has the form
//
//	NAME: REL1, W1, REL2, W2, ...
//
// and relates the subject NAME to every RELn with weight Wn. Edges are
// written in both directions so the stored graph stays symmetric.
package ingest

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/nvandessel/chunkgraph/internal/sanitize"
)

// Parse failure reasons.
var (
	ErrMissingColon   = errors.New("missing ':' between chunk name and relations")
	ErrDanglingEntry  = errors.New("relation list has a dangling entry (expected name, weight pairs)")
	ErrInvalidWeight  = errors.New("weight is not a finite number")
	ErrEmptyChunkName = errors.New("empty chunk name")
)

// ParseError reports a malformed ingestion line.
type ParseError struct {
	Line int    // 1-based line number within the batch
	Text string // the offending line, trimmed
	Err  error  // one of the Err* reasons, possibly wrapped with detail
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Relation is one (related chunk, weight) pair of a line.
type Relation struct {
	Target string
	Weight float64
}

// Line is a parsed ingestion line.
type Line struct {
	Number    int
	Subject   string
	Relations []Relation
}

// ParseLine parses a single trimmed, non-blank line.
func ParseLine(number int, text string) (Line, error) {
	fail := func(err error) (Line, error) {
		return Line{}, &ParseError{Line: number, Text: text, Err: err}
	}

	name, rest, ok := strings.Cut(text, ":")
	if !ok {
		return fail(ErrMissingColon)
	}
	subject := sanitize.ChunkName(name)
	if subject == "" {
		return fail(ErrEmptyChunkName)
	}

	parts := strings.Split(strings.TrimSpace(rest), ",")
	if len(parts)%2 != 0 {
		return fail(ErrDanglingEntry)
	}

	line := Line{Number: number, Subject: subject, Relations: make([]Relation, 0, len(parts)/2)}
	for i := 0; i < len(parts); i += 2 {
		target := sanitize.ChunkName(parts[i])
		if target == "" {
			return fail(fmt.Errorf("%w at relation %d", ErrEmptyChunkName, i/2+1))
		}
		raw := strings.TrimSpace(parts[i+1])
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			return fail(fmt.Errorf("%w: %q for %q", ErrInvalidWeight, raw, target))
		}
		line.Relations = append(line.Relations, Relation{Target: target, Weight: w})
	}
	return line, nil
}

// Parse parses every non-blank line of text without touching a store. It
// stops at the first malformed line.
func Parse(text string) ([]Line, error) {
	var lines []Line
	for n, raw := range splitLines(text) {
		line, err := ParseLine(n, raw)
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// splitLines yields the 1-based number and trimmed text of every non-blank
// line.
func splitLines(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, raw := range strings.Split(sanitize.Text(text), "\n") {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				continue
			}
			if !yield(i+1, trimmed) {
				return
			}
		}
	}
}
