// Package jsonmend repairs malformed JSON-like text into syntactically valid
// JSON while preserving as much of the original content as possible. Typical
// inputs are model completions truncated at token limits, hand-edited
// configs, and Python or JavaScript literal dumps.
//
// The core is a pair of single-pass text transformers: a structural engine
// that fixes missing, extra, and mismatched object/array delimiters, and a
// syntax engine that normalizes quoting, bare keys, literal spellings, and
// punctuation. Both are total functions: every input produces output text
// plus a ledger of the repairs applied, and nothing ever panics or errors.
//
// Repair and Loads wrap the core in a full pipeline: content cleanup, a
// strict-validation fast path, the two engine passes, and a tolerant
// fallback parse for text the engines cannot fully mend.
package jsonmend

import (
	"fmt"

	"charm.land/jsonmend/cleanup"
	"charm.land/jsonmend/internal/jsonext"
	"charm.land/jsonmend/tolerant"
)

// Stats reports scan work done by each engine pass, measured in runes.
type Stats struct {
	StructuralSteps int
	SyntaxSteps     int
}

// Result is the outcome of one Mend call.
type Result struct {
	// Text is the repaired text. It is always populated, even when a scan
	// limit cut the pass short.
	Text string

	// Actions is the merged repair ledger from both passes, ordered by
	// detection time.
	Actions []Action

	// Stats counts the scan work performed.
	Stats Stats

	// Complete is false when a nesting-depth or scan-budget limit stopped a
	// pass before the end of its input. The corresponding KindLimit action
	// records where.
	Complete bool
}

// Cleaner strips non-JSON wrapper content, such as code fences and prose,
// ahead of repair. The engines themselves assume cleaned text.
type Cleaner interface {
	Clean(text string) string
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(string) string

// Clean implements Cleaner.
func (f CleanerFunc) Clean(text string) string { return f(text) }

// Validator is the strict-parse fast path. Any standard JSON parser
// qualifies.
type Validator interface {
	Valid(text string) bool
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(string) bool

// Valid implements Validator.
func (f ValidatorFunc) Valid(text string) bool { return f(text) }

// Fallback is the tolerant parser of last resort: text in, structured value
// or typed failure out.
type Fallback interface {
	Parse(text string) (any, error)
}

// FallbackFunc adapts a function to the Fallback interface.
type FallbackFunc func(string) (any, error)

// Parse implements Fallback.
func (f FallbackFunc) Parse(text string) (any, error) { return f(text) }

// Mend runs the two repair passes over input and returns the repaired text
// with the action ledger. It never fails; text that needs no repair comes
// back unchanged with an empty ledger. Mend does not clean, validate, or
// fall back; use Repair for the full pipeline.
func Mend(input string, opts ...Option) Result {
	return mend(input, applyOptions(opts))
}

func mend(input string, cfg options) Result {
	led := &ledger{}
	bud := newBudget(cfg)

	structural := &structuralEngine{cfg: cfg, led: led, bud: bud}
	text, structuralComplete := structural.run(input)
	structuralSteps := bud.steps

	syntax := &syntaxEngine{cfg: cfg, led: led, bud: bud}
	text, syntaxComplete := syntax.run(text)

	return Result{
		Text:    text,
		Actions: led.actions,
		Stats: Stats{
			StructuralSteps: structuralSteps,
			SyntaxSteps:     bud.steps - structuralSteps,
		},
		Complete: structuralComplete && syntaxComplete,
	}
}

// Repair takes potentially malformed JSON-like text and returns valid JSON.
// It cleans the input, returns it as-is when already valid, otherwise mends
// it, and as a last resort re-serializes whatever the tolerant fallback
// parser could salvage. An error means even the fallback found nothing.
func Repair(input string, opts ...Option) (string, error) {
	text, _, err := repairPipeline(input, applyOptions(opts))
	return text, err
}

// RepairWithLog is Repair, additionally returning the repair ledger.
func RepairWithLog(input string, opts ...Option) (string, []Action, error) {
	return repairPipeline(input, applyOptions(opts))
}

// Loads repairs input like Repair and decodes the result into a Go value,
// with numbers kept as json.Number.
func Loads(input string, opts ...Option) (any, error) {
	text, _, err := repairPipeline(input, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	value, err := jsonext.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("jsonmend: decode repaired text: %w", err)
	}
	return value, nil
}

func repairPipeline(input string, cfg options) (string, []Action, error) {
	cleaner := cfg.cleaner
	if cleaner == nil {
		cleaner = CleanerFunc(cleanup.Strip)
	}
	validator := cfg.validator
	if validator == nil {
		validator = ValidatorFunc(jsonext.IsValidJSON[string])
	}
	fallback := cfg.fallback
	if fallback == nil {
		fallback = FallbackFunc(tolerant.Parse)
	}

	text := cleaner.Clean(input)
	if validator.Valid(text) {
		return text, nil, nil
	}

	res := mend(text, cfg)
	if validator.Valid(res.Text) {
		return res.Text, res.Actions, nil
	}

	value, err := fallback.Parse(res.Text)
	if err != nil {
		return "", res.Actions, fmt.Errorf("jsonmend: tolerant parse: %w", err)
	}
	return tolerant.Dump(value), res.Actions, nil
}
