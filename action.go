package jsonmend

// Layer identifies which engine produced a repair action.
type Layer string

const (
	// LayerStructural marks actions from the structural repair pass.
	LayerStructural Layer = "structural"

	// LayerSyntax marks actions from the syntax rewrite pass.
	LayerSyntax Layer = "syntax"
)

// Kind classifies how much confidence backs a repair action.
type Kind string

const (
	// KindRepair is a deterministic fix with no ambiguity.
	KindRepair Kind = "repair"

	// KindAmbiguous marks a heuristic fix that may not match intent, such as
	// rewriting a mismatched delimiter or collapsing a doubled opener.
	KindAmbiguous Kind = "ambiguous"

	// KindLimit marks a nesting-depth or scan-budget cutoff. The engine
	// returns best-effort output; this is a signal, not a failure.
	KindLimit Kind = "limit"
)

// Action records a single repair applied to the input text. Actions are
// immutable once appended to the ledger and are ordered by detection time,
// which is non-decreasing in input offset within each layer's pass.
//
// Offset is the rune offset into the text the producing layer received:
// original input for the structural layer, structurally repaired text for the
// syntax layer.
type Action struct {
	Layer       Layer  `json:"layer"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
	Offset      int    `json:"offset"`
	Original    string `json:"original,omitempty"`
	Replacement string `json:"replacement,omitempty"`
}

// ledger is the append-only action log shared by both engines for the
// duration of one repair call. Engines only ever append.
type ledger struct {
	actions []Action
}

func (l *ledger) add(a Action) {
	l.actions = append(l.actions, a)
}
