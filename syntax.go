package jsonmend

import (
	"strings"
	"unicode"
)

// expectation tracks the grammatical role the next non-whitespace token
// should fill, which is what lets the engine tell a bare identifier used as
// an object key apart from one used as a value.
type expectation byte

const (
	expectValue expectation = iota
	expectKey
	expectColon
	expectCommaOrEnd
)

// syntaxEngine normalizes quoting, bare keys, literal spellings, and
// comma/colon punctuation in a single left-to-right scan over structurally
// repaired text. Output accumulates in an amortized-growth rune buffer and is
// materialized exactly once; the engine never re-reads earlier input.
type syntaxEngine struct {
	cfg options
	led *ledger
	bud *budget

	src []rune
	out []rune

	exp   expectation
	stack []frameKind

	// pendingComma remembers the most recent emitted comma while only
	// whitespace has followed it, so a trailing comma can be dropped when a
	// closer arrives without rescanning.
	pendingComma    bool
	pendingCommaOut int
	pendingCommaOff int
}

func (e *syntaxEngine) run(input string) (string, bool) {
	e.src = []rune(input)
	e.out = make([]rune, 0, len(e.src)+16)
	e.exp = expectValue

	i := 0
	for i < len(e.src) {
		if !e.bud.spend() {
			e.led.add(Action{
				Layer:       LayerSyntax,
				Kind:        KindLimit,
				Description: "scan budget exhausted, remaining text passed through unrepaired",
				Offset:      i,
			})
			e.out = append(e.out, e.src[i:]...)
			return string(e.out), false
		}
		r := e.src[i]
		switch {
		case unicode.IsSpace(r):
			e.out = append(e.out, r)
			i++
		case isQuote(r):
			i = e.scanString(i)
		case r == '{':
			e.beforeValue(i)
			e.emit(r)
			e.stack = append(e.stack, frameObject)
			e.exp = expectKey
			i++
		case r == '[':
			e.beforeValue(i)
			e.emit(r)
			e.stack = append(e.stack, frameArray)
			e.exp = expectValue
			i++
		case r == '}' || r == ']':
			e.closeContainer(i, r)
			i++
		case r == ',':
			e.comma(i)
			i++
		case r == ':':
			e.colon(i)
			i++
		case isTokenRune(r):
			i = e.scanToken(i)
		default:
			e.emit(r)
			i++
		}
	}
	return string(e.out), true
}

func (e *syntaxEngine) emit(r rune) {
	e.out = append(e.out, r)
	if !unicode.IsSpace(r) {
		e.pendingComma = false
	}
}

// insertBeforeTrailingSpace places r before any run of whitespace at the end
// of the output, so inserted punctuation lands next to the token it belongs
// to: `{"a" "b"}` becomes `{"a": "b"}` rather than `{"a" :"b"}`.
func (e *syntaxEngine) insertBeforeTrailingSpace(r rune) {
	n := len(e.out)
	for n > 0 && unicode.IsSpace(e.out[n-1]) {
		n--
	}
	e.out = append(e.out, 0)
	copy(e.out[n+1:], e.out[n:])
	e.out[n] = r
	e.pendingComma = false
}

// beforeValue runs ahead of every token start. It settles punctuation owed
// from the previous token: a missing comma after a completed value, or a
// missing colon after a key.
func (e *syntaxEngine) beforeValue(i int) {
	switch e.exp {
	case expectCommaOrEnd:
		if e.cfg.fixPunctuation {
			e.insertBeforeTrailingSpace(',')
			e.led.add(Action{
				Layer:       LayerSyntax,
				Kind:        KindRepair,
				Description: "inserted missing comma",
				Offset:      i,
				Replacement: ",",
			})
		}
		e.exp = e.afterComma()
	case expectColon:
		if e.cfg.fixPunctuation {
			e.insertBeforeTrailingSpace(':')
			e.led.add(Action{
				Layer:       LayerSyntax,
				Kind:        KindRepair,
				Description: "inserted missing colon",
				Offset:      i,
				Replacement: ":",
			})
		}
		e.exp = expectValue
	}
}

func (e *syntaxEngine) afterComma() expectation {
	if len(e.stack) > 0 && e.stack[len(e.stack)-1] == frameObject {
		return expectKey
	}
	return expectValue
}

func (e *syntaxEngine) comma(i int) {
	switch e.exp {
	case expectValue, expectKey:
		// Duplicate or leading comma, as in [1,,2] or {, "a": 1}.
		if e.cfg.fixPunctuation {
			e.led.add(Action{
				Layer:       LayerSyntax,
				Kind:        KindRepair,
				Description: "removed stray comma",
				Offset:      i,
				Original:    ",",
			})
			return
		}
		e.emit(',')
	default:
		e.emit(',')
		e.pendingComma = true
		e.pendingCommaOut = len(e.out) - 1
		e.pendingCommaOff = i
		e.exp = e.afterComma()
	}
}

func (e *syntaxEngine) colon(i int) {
	switch e.exp {
	case expectColon:
		e.emit(':')
		e.exp = expectValue
	case expectKey, expectValue:
		// Colon with no key in front of it, as in {: "a"} or {"a":: 1}.
		if e.cfg.fixPunctuation {
			e.led.add(Action{
				Layer:       LayerSyntax,
				Kind:        KindRepair,
				Description: "removed stray colon",
				Offset:      i,
				Original:    ":",
			})
			return
		}
		e.emit(':')
	default:
		e.emit(':')
	}
}

func (e *syntaxEngine) closeContainer(i int, r rune) {
	if e.pendingComma && e.cfg.fixPunctuation {
		e.out = append(e.out[:e.pendingCommaOut], e.out[e.pendingCommaOut+1:]...)
		e.led.add(Action{
			Layer:       LayerSyntax,
			Kind:        KindRepair,
			Description: "removed trailing comma",
			Offset:      e.pendingCommaOff,
			Original:    ",",
		})
		e.pendingComma = false
	}
	e.emit(r)
	if len(e.stack) > 0 {
		e.stack = e.stack[:len(e.stack)-1]
	}
	e.exp = expectCommaOrEnd
}

// scanString consumes one string literal starting at the quote at i and
// returns the index just past its closing delimiter. Non-double quotes are
// rewritten to double quotes at open and close; any unescaped double quote
// inside such a string is escaped during the rewrite. String content is
// otherwise copied byte for byte.
func (e *syntaxEngine) scanString(i int) int {
	e.beforeValue(i)
	open := e.src[i]
	closeQ := closeQuoteFor(open)
	normalized := open != '"' && e.cfg.normalizeQuotes
	if normalized {
		e.emit('"')
		e.led.add(Action{
			Layer:       LayerSyntax,
			Kind:        KindRepair,
			Description: "normalized quote delimiter",
			Offset:      i,
			Original:    string(open),
			Replacement: `"`,
		})
	} else {
		e.emit(open)
	}

	terminated := false
	j := i + 1
	for j < len(e.src) {
		e.bud.spend()
		c := e.src[j]
		if c == '\\' && j+1 < len(e.src) {
			next := e.src[j+1]
			if normalized && next == open {
				// \' has no meaning in JSON; the quote no longer needs
				// escaping once the delimiter changes.
				e.emit(next)
			} else {
				e.emit(c)
				e.emit(next)
			}
			j += 2
			continue
		}
		if c == closeQ {
			j++
			terminated = true
			break
		}
		if normalized && c == '"' {
			e.emit('\\')
			e.emit('"')
			j++
			continue
		}
		e.emit(c)
		j++
	}
	if terminated || normalized {
		// A string left unterminated by an upstream budget cutoff still gets
		// its delimiter closed when we changed the opening one.
		if normalized {
			e.emit('"')
		} else {
			e.emit(closeQ)
		}
	}
	if e.exp == expectKey {
		e.exp = expectColon
	} else {
		e.exp = expectCommaOrEnd
	}
	return j
}

// scanToken consumes a run of identifier or number runes and returns the
// index just past it. In key position the run is wrapped in quotes once a
// colon is confirmed ahead; in value position non-canonical literal
// spellings are rewritten.
func (e *syntaxEngine) scanToken(i int) int {
	j := i + 1
	for j < len(e.src) && isTokenRune(e.src[j]) {
		e.bud.spend()
		j++
	}
	word := string(e.src[i:j])

	e.beforeValue(i)
	if e.exp == expectKey {
		quoted := false
		if e.cfg.quoteKeys {
			k := j
			for k < len(e.src) && unicode.IsSpace(e.src[k]) {
				k++
			}
			// Quote when a colon follows, or when a value follows directly
			// and the missing-colon rule is about to treat the run as a key.
			confirmed := false
			if k < len(e.src) {
				next := e.src[k]
				confirmed = next == ':' || isValueStart(next)
			}
			if confirmed {
				e.emit('"')
				for _, r := range word {
					e.emit(r)
				}
				e.emit('"')
				e.led.add(Action{
					Layer:       LayerSyntax,
					Kind:        KindRepair,
					Description: "quoted unquoted object key",
					Offset:      i,
					Original:    word,
					Replacement: `"` + word + `"`,
				})
				quoted = true
			}
		}
		if !quoted {
			for _, r := range word {
				e.emit(r)
			}
		}
		e.exp = expectColon
		return j
	}

	if canonical, ok := canonicalLiteral(word); ok && e.cfg.normalizeLiterals && canonical != word {
		for _, r := range canonical {
			e.emit(r)
		}
		e.led.add(Action{
			Layer:       LayerSyntax,
			Kind:        KindRepair,
			Description: "normalized literal",
			Offset:      i,
			Original:    word,
			Replacement: canonical,
		})
	} else {
		for _, r := range word {
			e.emit(r)
		}
	}
	e.exp = expectCommaOrEnd
	return j
}

// canonicalLiteral maps case-insensitive and alternate-ecosystem spellings of
// the JSON literals to their canonical form. The match requires the whole
// token, so identifiers merely containing a literal are left alone.
func canonicalLiteral(word string) (string, bool) {
	switch strings.ToLower(word) {
	case "true":
		return "true", true
	case "false":
		return "false", true
	case "null", "none", "nil":
		return "null", true
	}
	return "", false
}

// isValueStart reports whether r can begin a value token.
func isValueStart(r rune) bool {
	return isQuote(r) || r == '{' || r == '[' || isTokenRune(r)
}

func isTokenRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '_', '-', '+', '.', '$':
		return true
	}
	return false
}
