package jsonmend

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

const defaultMaxNestingDepth = 128

// Option is a function that configures a repair call.
type Option func(*options)

type options struct {
	maxDepth    int
	maxSteps    int
	maxDuration time.Duration

	normalizeQuotes    bool
	quoteKeys          bool
	normalizeLiterals  bool
	fixPunctuation     bool
	fixMismatched      bool
	collapseDuplicates bool

	cleaner   Cleaner
	validator Validator
	fallback  Fallback
}

func defaultOptions() options {
	return options{
		maxDepth:           defaultMaxNestingDepth,
		normalizeQuotes:    true,
		quoteKeys:          true,
		normalizeLiterals:  true,
		fixPunctuation:     true,
		fixMismatched:      true,
		collapseDuplicates: true,
	}
}

func applyOptions(opts []Option) options {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.maxDepth <= 0 {
		cfg.maxDepth = defaultMaxNestingDepth
	}
	return cfg
}

// WithMaxNestingDepth bounds the structural frame stack. Delimiters nested
// deeper than n pass through uncorrected.
func WithMaxNestingDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithMaxSteps bounds total scan work across both engine passes, measured in
// runes. Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithMaxDuration bounds wall-clock time across both engine passes. Zero
// means unbounded.
func WithMaxDuration(d time.Duration) Option {
	return func(o *options) {
		o.maxDuration = d
	}
}

// WithQuoteNormalization toggles rewriting single and smart quotes to double
// quotes.
func WithQuoteNormalization(enabled bool) Option {
	return func(o *options) {
		o.normalizeQuotes = enabled
	}
}

// WithKeyQuoting toggles wrapping bare object keys in double quotes.
func WithKeyQuoting(enabled bool) Option {
	return func(o *options) {
		o.quoteKeys = enabled
	}
}

// WithLiteralNormalization toggles rewriting non-canonical spellings of
// true, false, and null.
func WithLiteralNormalization(enabled bool) Option {
	return func(o *options) {
		o.normalizeLiterals = enabled
	}
}

// WithPunctuationRepair toggles trailing-comma removal and missing
// comma/colon insertion.
func WithPunctuationRepair(enabled bool) Option {
	return func(o *options) {
		o.fixPunctuation = enabled
	}
}

// WithMismatchRepair toggles rewriting closers that do not match the open
// frame, e.g. a } closing an array.
func WithMismatchRepair(enabled bool) Option {
	return func(o *options) {
		o.fixMismatched = enabled
	}
}

// WithDuplicateCollapse toggles the doubled-opener collapse heuristic.
func WithDuplicateCollapse(enabled bool) Option {
	return func(o *options) {
		o.collapseDuplicates = enabled
	}
}

// WithCleaner overrides the content pre-cleaning collaborator used by Repair
// and Loads. Mend never invokes the cleaner.
func WithCleaner(c Cleaner) Option {
	return func(o *options) {
		o.cleaner = c
	}
}

// WithValidator overrides the strict-validation collaborator.
func WithValidator(v Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithFallback overrides the tolerant fallback parser collaborator.
func WithFallback(f Fallback) Option {
	return func(o *options) {
		o.fallback = f
	}
}

// settings is the wire shape accepted by ParseOptions. Pointer fields
// distinguish absent keys from explicit zero values.
type settings struct {
	MaxNestingDepth *int    `json:"max_nesting_depth"`
	MaxSteps        *int    `json:"max_steps"`
	MaxDuration     *string `json:"max_duration"`

	NormalizeQuotes    *bool `json:"normalize_quotes"`
	QuoteKeys          *bool `json:"quote_keys"`
	NormalizeLiterals  *bool `json:"normalize_literals"`
	FixPunctuation     *bool `json:"fix_punctuation"`
	FixMismatched      *bool `json:"fix_mismatched"`
	CollapseDuplicates *bool `json:"collapse_duplicates"`
}

// ParseOptions decodes a configuration map, such as one unmarshaled from a
// config file, into an Option. Unknown keys are rejected. Durations use Go
// syntax, e.g. "250ms".
func ParseOptions(m map[string]any) (Option, error) {
	var s settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Result:      &s,
	})
	if err != nil {
		return nil, fmt.Errorf("jsonmend: build options decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("jsonmend: decode options: %w", err)
	}
	var dur time.Duration
	if s.MaxDuration != nil {
		dur, err = time.ParseDuration(*s.MaxDuration)
		if err != nil {
			return nil, fmt.Errorf("jsonmend: parse max_duration: %w", err)
		}
	}
	return func(o *options) {
		if s.MaxNestingDepth != nil {
			o.maxDepth = *s.MaxNestingDepth
		}
		if s.MaxSteps != nil {
			o.maxSteps = *s.MaxSteps
		}
		if s.MaxDuration != nil {
			o.maxDuration = dur
		}
		if s.NormalizeQuotes != nil {
			o.normalizeQuotes = *s.NormalizeQuotes
		}
		if s.QuoteKeys != nil {
			o.quoteKeys = *s.QuoteKeys
		}
		if s.NormalizeLiterals != nil {
			o.normalizeLiterals = *s.NormalizeLiterals
		}
		if s.FixPunctuation != nil {
			o.fixPunctuation = *s.FixPunctuation
		}
		if s.FixMismatched != nil {
			o.fixMismatched = *s.FixMismatched
		}
		if s.CollapseDuplicates != nil {
			o.collapseDuplicates = *s.CollapseDuplicates
		}
	}, nil
}
