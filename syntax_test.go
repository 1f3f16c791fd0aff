package jsonmend

import "testing"

func runSyntax(t *testing.T, input string, opts ...Option) (string, []Action, bool) {
	t.Helper()
	cfg := applyOptions(opts)
	led := &ledger{}
	e := &syntaxEngine{cfg: cfg, led: led, bud: newBudget(cfg)}
	out, ok := e.run(input)
	return out, led.actions, ok
}

func TestSyntaxRewrites(t *testing.T) {
	cases := []struct {
		name  string
		input string
		opts  []Option
		want  string
	}{
		{
			name:  "canonical_untouched",
			input: `{"name": "Alice", "age": 30, "tags": [true, null]}`,
			want:  `{"name": "Alice", "age": 30, "tags": [true, null]}`,
		},
		{
			name:  "single_quotes",
			input: `{'a': 'b'}`,
			want:  `{"a": "b"}`,
		},
		{
			name:  "smart_quotes",
			input: `{“a”: “b”}`,
			want:  `{"a": "b"}`,
		},
		{
			name:  "guillemets",
			input: `{«a»: «b»}`,
			want:  `{"a": "b"}`,
		},
		{
			name:  "escaped_single_quote_unescaped",
			input: `{'a': 'it\'s'}`,
			want:  `{"a": "it's"}`,
		},
		{
			name:  "inner_double_quote_escaped",
			input: `{'a': 'say "hi"'}`,
			want:  `{"a": "say \"hi\""}`,
		},
		{
			name:  "bare_keys",
			input: `{name: 1, other_key: 2}`,
			want:  `{"name": 1, "other_key": 2}`,
		},
		{
			name:  "python_literals",
			input: `[True, False, None, NULL, nil]`,
			want:  `[true, false, null, null, null]`,
		},
		{
			name:  "literal_like_strings_untouched",
			input: `{"a": "True", "b": "None"}`,
			want:  `{"a": "True", "b": "None"}`,
		},
		{
			name:  "trailing_comma_object",
			input: `{"a": 1,}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "trailing_comma_array_with_space",
			input: `[1, 2, ]`,
			want:  `[1, 2 ]`,
		},
		{
			name:  "stray_comma",
			input: `[1,,2]`,
			want:  `[1,2]`,
		},
		{
			name:  "leading_comma",
			input: `[,1]`,
			want:  `[1]`,
		},
		{
			name:  "double_colon",
			input: `{"a":: 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "missing_comma_object",
			input: `{"a": 1 "b": 2}`,
			want:  `{"a": 1, "b": 2}`,
		},
		{
			name:  "missing_comma_array",
			input: `[1 2]`,
			want:  `[1, 2]`,
		},
		{
			name:  "missing_colon",
			input: `{"a" 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "bare_key_missing_colon",
			input: `{name 1}`,
			want:  `{"name": 1}`,
		},
		{
			name:  "number_value_untouched",
			input: `{"a": -1.5e+10}`,
			want:  `{"a": -1.5e+10}`,
		},
		{
			name:  "quoting_disabled",
			input: `{name: 1}`,
			opts:  []Option{WithKeyQuoting(false)},
			want:  `{name: 1}`,
		},
		{
			name:  "quote_normalization_disabled",
			input: `{'a': 1}`,
			opts:  []Option{WithQuoteNormalization(false)},
			want:  `{'a': 1}`,
		},
		{
			name:  "literal_normalization_disabled",
			input: `[True]`,
			opts:  []Option{WithLiteralNormalization(false)},
			want:  `[True]`,
		},
		{
			name:  "punctuation_repair_disabled",
			input: `[1, 2,]`,
			opts:  []Option{WithPunctuationRepair(false)},
			want:  `[1, 2,]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _, ok := runSyntax(t, tc.input, tc.opts...)
			if !ok {
				t.Fatalf("pass reported incomplete")
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSyntaxActions(t *testing.T) {
	t.Run("one_action_per_rule_firing", func(t *testing.T) {
		got, actions, _ := runSyntax(t, `{name: 'Alice', active: True,}`)
		want := `{"name": "Alice", "active": true}`
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
		descriptions := []string{
			"quoted unquoted object key",
			"normalized quote delimiter",
			"quoted unquoted object key",
			"normalized literal",
			"removed trailing comma",
		}
		if len(actions) != len(descriptions) {
			t.Fatalf("got %d actions, want %d: %v", len(actions), len(descriptions), actions)
		}
		for i, a := range actions {
			if a.Description != descriptions[i] {
				t.Fatalf("action %d: got %q want %q", i, a.Description, descriptions[i])
			}
			if a.Layer != LayerSyntax || a.Kind != KindRepair {
				t.Fatalf("unexpected action metadata: %+v", a)
			}
		}
	})

	t.Run("offsets_point_into_input", func(t *testing.T) {
		_, actions, _ := runSyntax(t, `{"a": 1 "b": 2}`)
		if len(actions) != 1 {
			t.Fatalf("got %d actions, want 1: %v", len(actions), actions)
		}
		a := actions[0]
		if a.Description != "inserted missing comma" || a.Offset != 8 || a.Replacement != "," {
			t.Fatalf("unexpected action: %+v", a)
		}
	})

	t.Run("disabled_rules_record_nothing", func(t *testing.T) {
		_, actions, _ := runSyntax(t, `{name: 'a', b: True,}`,
			WithKeyQuoting(false),
			WithQuoteNormalization(false),
			WithLiteralNormalization(false),
			WithPunctuationRepair(false))
		if len(actions) != 0 {
			t.Fatalf("got %d actions, want 0: %v", len(actions), actions)
		}
	})
}

func TestSyntaxIdempotent(t *testing.T) {
	inputs := []string{
		`{name: 'Alice', age: 30, active: True,}`,
		`{"a": 1 "b": 2}`,
		`{"a" 1}`,
		`{name 1}`,
		`[1 2 3]`,
		`[1,,2,]`,
		`{“a”: “b”}`,
		`{'a': 'say "hi"'}`,
		`[True, None]`,
	}
	for _, input := range inputs {
		first, _, _ := runSyntax(t, input)
		second, actions, _ := runSyntax(t, first)
		if second != first {
			t.Fatalf("input %q: second pass changed %q to %q", input, first, second)
		}
		if len(actions) != 0 {
			t.Fatalf("input %q: second pass recorded actions: %v", input, actions)
		}
	}
}
