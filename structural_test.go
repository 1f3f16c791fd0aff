package jsonmend

import (
	"strings"
	"testing"
)

func runStructural(t *testing.T, input string, opts ...Option) (string, []Action, bool) {
	t.Helper()
	cfg := applyOptions(opts)
	led := &ledger{}
	e := &structuralEngine{cfg: cfg, led: led, bud: newBudget(cfg)}
	out, ok := e.run(input)
	return out, led.actions, ok
}

func TestStructuralRepairs(t *testing.T) {
	cases := []struct {
		name  string
		input string
		opts  []Option
		want  string
	}{
		{
			name:  "balanced_untouched",
			input: `{"a": [1, 2], "b": {"c": 3}}`,
			want:  `{"a": [1, 2], "b": {"c": 3}}`,
		},
		{
			name:  "missing_closing_brace",
			input: `{"a": 1`,
			want:  `{"a": 1}`,
		},
		{
			name:  "missing_nested_closers",
			input: `{"a": [1, {"b": 2`,
			want:  `{"a": [1, {"b": 2}]}`,
		},
		{
			name:  "extra_closing_bracket",
			input: `[1,2]]`,
			want:  `[1,2]`,
		},
		{
			name:  "triple_missing_braces",
			input: `{"a": {"b": {"c": "v"`,
			want:  `{"a": {"b": {"c": "v"}}}`,
		},
		{
			name:  "mismatch_then_missing",
			input: `{"data": [1, 2, 3}`,
			want:  `{"data": [1, 2, 3]}`,
		},
		{
			name:  "escaped_quote_and_braces_in_string",
			input: `{"msg": "he said \"{not a brace}\""}`,
			want:  `{"msg": "he said \"{not a brace}\""}`,
		},
		{
			name:  "extra_closing_brace_at_start",
			input: `}{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "mismatched_closer",
			input: `[1, 2}`,
			want:  `[1, 2]`,
		},
		{
			name:  "mismatch_disabled",
			input: `[1, 2}`,
			opts:  []Option{WithMismatchRepair(false)},
			want:  `[1, 2}`,
		},
		{
			name:  "delimiters_inside_string_ignored",
			input: `{"a": "b}"}`,
			want:  `{"a": "b}"}`,
		},
		{
			name:  "unterminated_string_closed",
			input: `{"a": "xyz`,
			want:  `{"a": "xyz"}`,
		},
		{
			name:  "trailing_backslash_dropped",
			input: `{"a": "x\`,
			want:  `{"a": "x"}`,
		},
		{
			name:  "unterminated_smart_quote",
			input: `{"a": “xyz`,
			want:  `{"a": “xyz”}`,
		},
		{
			name:  "doubled_opener_collapsed",
			input: `[[{"a": 1}]]`,
			want:  `[{"a": 1}]`,
		},
		{
			name:  "doubled_brace_collapsed",
			input: `{{"a": 1}}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "sibling_content_not_collapsed",
			input: `[[1, 2]]`,
			want:  `[[1, 2]]`,
		},
		{
			name:  "collapse_disabled",
			input: `[[{"a": 1}]]`,
			opts:  []Option{WithDuplicateCollapse(false)},
			want:  `[[{"a": 1}]]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _, ok := runStructural(t, tc.input, tc.opts...)
			if !ok {
				t.Fatalf("pass reported incomplete")
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestStructuralActions(t *testing.T) {
	t.Run("missing_closer_offsets", func(t *testing.T) {
		_, actions, _ := runStructural(t, `{"a": [1`)
		if len(actions) != 2 {
			t.Fatalf("got %d actions, want 2: %v", len(actions), actions)
		}
		// LIFO: bracket first, then brace, both at end of input.
		if actions[0].Description != "added missing closing bracket" {
			t.Fatalf("unexpected first action: %+v", actions[0])
		}
		if actions[1].Description != "added missing closing brace" {
			t.Fatalf("unexpected second action: %+v", actions[1])
		}
		for _, a := range actions {
			if a.Layer != LayerStructural || a.Kind != KindRepair || a.Offset != 8 {
				t.Fatalf("unexpected action metadata: %+v", a)
			}
		}
	})

	t.Run("mismatch_is_ambiguous", func(t *testing.T) {
		_, actions, _ := runStructural(t, `[1, 2}`)
		if len(actions) != 1 {
			t.Fatalf("got %d actions, want 1: %v", len(actions), actions)
		}
		a := actions[0]
		if a.Kind != KindAmbiguous || a.Original != "}" || a.Replacement != "]" || a.Offset != 5 {
			t.Fatalf("unexpected action: %+v", a)
		}
	})

	t.Run("collapse_is_ambiguous", func(t *testing.T) {
		_, actions, _ := runStructural(t, `[[{"a": 1}]]`)
		if len(actions) != 1 {
			t.Fatalf("got %d actions, want 1: %v", len(actions), actions)
		}
		a := actions[0]
		if a.Kind != KindAmbiguous || a.Original != "[" || a.Offset != 1 {
			t.Fatalf("unexpected action: %+v", a)
		}
	})

	t.Run("unterminated_string_records_quote", func(t *testing.T) {
		_, actions, _ := runStructural(t, `{"a": "xyz`)
		if len(actions) != 2 {
			t.Fatalf("got %d actions, want 2: %v", len(actions), actions)
		}
		if actions[0].Description != "added missing closing quote" || actions[0].Replacement != `"` {
			t.Fatalf("unexpected action: %+v", actions[0])
		}
	})
}

func TestStructuralDepthLimit(t *testing.T) {
	input := `[[[[1]]]]`
	got, actions, ok := runStructural(t, input,
		WithMaxNestingDepth(3), WithDuplicateCollapse(false))
	if ok {
		t.Fatalf("expected incomplete pass")
	}
	if got != input {
		t.Fatalf("got %q, want input passed through unchanged", got)
	}
	var limit *Action
	for i := range actions {
		if actions[i].Kind == KindLimit {
			limit = &actions[i]
		}
	}
	if limit == nil {
		t.Fatalf("no limit action recorded: %v", actions)
	}
	if limit.Offset != 3 {
		t.Fatalf("limit at offset %d, want 3", limit.Offset)
	}
}

func TestStructuralStepBudget(t *testing.T) {
	input := `[` + strings.Repeat(`1, `, 50) + `1]`
	got, actions, ok := runStructural(t, input, WithMaxSteps(10))
	if ok {
		t.Fatalf("expected incomplete pass")
	}
	if got != input {
		t.Fatalf("got %q, want input passed through unchanged", got)
	}
	if len(actions) != 1 || actions[0].Kind != KindLimit || actions[0].Offset != 10 {
		t.Fatalf("unexpected actions: %v", actions)
	}
}
