// Package schema validates Tier-0 and summary records against the
// embedded JSON Schema contract.
package schema

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/doomsat/internal/record"
)

// Schema resource URLs. They match each document's $id.
const (
	TickURL    = "https://doomsat.local/schema/tier0_telemetry.v1.json"
	SummaryURL = "https://doomsat.local/schema/episode_summary.v1.json"
)

//go:embed tier0.schema.json
var tickSchema string

//go:embed summary.schema.json
var summarySchema string

// Validator holds the compiled record schemas.
type Validator struct {
	tick    *jsonschema.Schema
	summary *jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(TickURL, strings.NewReader(tickSchema)); err != nil {
		return nil, fmt.Errorf("schema: add tick resource: %w", err)
	}
	if err := compiler.AddResource(SummaryURL, strings.NewReader(summarySchema)); err != nil {
		return nil, fmt.Errorf("schema: add summary resource: %w", err)
	}

	tick, err := compiler.Compile(TickURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile tick schema: %w", err)
	}
	summary, err := compiler.Compile(SummaryURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile summary schema: %w", err)
	}
	return &Validator{tick: tick, summary: summary}, nil
}

// ValidateLine validates one serialized record, choosing the schema by
// its type tag.
func (v *Validator) ValidateLine(line []byte) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return fmt.Errorf("record is not a JSON object")
	}
	switch obj["type"] {
	case record.TypeTick:
		return v.tick.Validate(payload)
	case record.TypeSummary:
		return v.summary.Validate(payload)
	default:
		return fmt.Errorf("unknown record type %v", obj["type"])
	}
}

// Failure is one record that did not validate.
type Failure struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Report is the outcome of validating a whole log.
type Report struct {
	Lines    int       `json:"lines"`
	Failures []Failure `json:"failures,omitempty"`
}

// Valid reports whether every line validated.
func (r Report) Valid() bool { return len(r.Failures) == 0 }

// ValidateFile validates every non-empty line of the log at path. Unlike
// checksum verification it does not stop at the first failure.
func (v *Validator) ValidateFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("schema: open: %w", err)
	}
	defer f.Close()

	var rep Report
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		rep.Lines++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := v.ValidateLine(line); err != nil {
			rep.Failures = append(rep.Failures, Failure{Line: rep.Lines, Error: err.Error()})
		}
	}
	if err := sc.Err(); err != nil {
		return rep, fmt.Errorf("schema: read: %w", err)
	}
	return rep, nil
}
