package jsonmend

import "unicode"

type frameKind byte

const (
	frameObject frameKind = iota
	frameArray
)

func (k frameKind) closer() rune {
	if k == frameObject {
		return '}'
	}
	return ']'
}

func (k frameKind) name() string {
	if k == frameObject {
		return "brace"
	}
	return "bracket"
}

// frame records one currently-open structural delimiter.
type frame struct {
	kind     frameKind
	openedAt int
}

// dupLookaheadWindow bounds how far the doubled-opener heuristic may read
// ahead. Beyond it the openers are assumed intentional.
const dupLookaheadWindow = 512

// structuralEngine fixes missing, extra, and mismatched object/array
// delimiters in a single left-to-right scan. Nesting is tracked with an
// explicit frame stack, never recursion, so pathological depth cannot
// exhaust the call stack.
type structuralEngine struct {
	cfg options
	led *ledger
	bud *budget

	src   []rune
	out   []rune
	stack []frame
	track stringTracker

	// skipClosers holds input offsets of closers consumed by the
	// doubled-opener collapse.
	skipClosers map[int]struct{}

	// limited is set once the depth guard trips; from then on the scan only
	// preserves text, attempting no further delimiter correction.
	limited bool
}

func (e *structuralEngine) run(input string) (string, bool) {
	e.src = []rune(input)
	e.out = make([]rune, 0, len(e.src)+8)

	for i := 0; i < len(e.src); i++ {
		if !e.bud.spend() {
			e.led.add(Action{
				Layer:       LayerStructural,
				Kind:        KindLimit,
				Description: "scan budget exhausted, remaining text passed through unrepaired",
				Offset:      i,
			})
			e.out = append(e.out, e.src[i:]...)
			return string(e.out), false
		}
		r := e.src[i]
		wasInString := e.track.inString
		e.track.step(r)
		if wasInString || e.track.inString {
			e.out = append(e.out, r)
			continue
		}
		if e.limited {
			e.out = append(e.out, r)
			continue
		}
		switch r {
		case '{':
			e.openDelimiter(i, r, frameObject)
		case '[':
			e.openDelimiter(i, r, frameArray)
		case '}':
			e.closeDelimiter(i, r, frameObject)
		case ']':
			e.closeDelimiter(i, r, frameArray)
		default:
			e.out = append(e.out, r)
		}
	}

	if e.limited {
		return string(e.out), false
	}
	// An unterminated string must be closed before the frames below it,
	// otherwise the appended closers would become string content.
	if e.track.inString {
		var original string
		if e.track.escapePending && len(e.out) > 0 && e.out[len(e.out)-1] == '\\' {
			// A trailing backslash would swallow the closing quote.
			e.out = e.out[:len(e.out)-1]
			original = `\`
		}
		q := closeQuoteFor(e.track.quote)
		e.out = append(e.out, q)
		e.led.add(Action{
			Layer:       LayerStructural,
			Kind:        KindRepair,
			Description: "added missing closing quote",
			Offset:      len(e.src),
			Original:    original,
			Replacement: string(q),
		})
		e.track = stringTracker{}
	}
	// Close remaining frames in LIFO order.
	for n := len(e.stack) - 1; n >= 0; n-- {
		f := e.stack[n]
		e.out = append(e.out, f.kind.closer())
		e.led.add(Action{
			Layer:       LayerStructural,
			Kind:        KindRepair,
			Description: "added missing closing " + f.kind.name(),
			Offset:      len(e.src),
			Replacement: string(f.kind.closer()),
		})
	}
	e.stack = e.stack[:0]
	return string(e.out), true
}

func (e *structuralEngine) openDelimiter(i int, r rune, kind frameKind) {
	if e.cfg.collapseDuplicates {
		if closerAt, ok := e.redundantOpener(i, kind); ok {
			if e.skipClosers == nil {
				e.skipClosers = make(map[int]struct{})
			}
			e.skipClosers[closerAt] = struct{}{}
			e.led.add(Action{
				Layer:       LayerStructural,
				Kind:        KindAmbiguous,
				Description: "removed extra opening " + kind.name(),
				Offset:      i,
				Original:    string(r),
			})
			return
		}
	}
	if len(e.stack) >= e.cfg.maxDepth {
		e.limited = true
		e.led.add(Action{
			Layer:       LayerStructural,
			Kind:        KindLimit,
			Description: "nesting depth limit exceeded, remaining text passed through unrepaired",
			Offset:      i,
		})
		e.out = append(e.out, r)
		return
	}
	e.stack = append(e.stack, frame{kind: kind, openedAt: i})
	e.out = append(e.out, r)
}

func (e *structuralEngine) closeDelimiter(i int, r rune, kind frameKind) {
	if _, skip := e.skipClosers[i]; skip {
		delete(e.skipClosers, i)
		return
	}
	if len(e.stack) == 0 {
		e.led.add(Action{
			Layer:       LayerStructural,
			Kind:        KindRepair,
			Description: "removed extra closing " + kind.name(),
			Offset:      i,
			Original:    string(r),
		})
		return
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	if top.kind == kind || !e.cfg.fixMismatched {
		e.out = append(e.out, r)
		return
	}
	// Prefer the opening delimiter's declared intent.
	replacement := top.kind.closer()
	e.out = append(e.out, replacement)
	e.led.add(Action{
		Layer:       LayerStructural,
		Kind:        KindAmbiguous,
		Description: "fixed mismatched delimiter",
		Offset:      i,
		Original:    string(r),
		Replacement: string(replacement),
	})
}

// redundantOpener reports whether the opener at i doubles the one on top of
// the stack with no sibling content of its own: the previous same-kind opener
// is adjacent up to whitespace, the opener's matching closer is followed
// (again up to whitespace) by another closer of the same kind, and the inner
// span carries no top-level comma. `[[1, 2]]` is left alone; `[[{"a": 1}]]`
// collapses. The check reads at most dupLookaheadWindow runes ahead.
func (e *structuralEngine) redundantOpener(i int, kind frameKind) (int, bool) {
	if len(e.stack) == 0 {
		return 0, false
	}
	top := e.stack[len(e.stack)-1]
	if top.kind != kind {
		return 0, false
	}
	for j := top.openedAt + 1; j < i; j++ {
		if !unicode.IsSpace(e.src[j]) {
			return 0, false
		}
	}
	depth := 1
	var tr stringTracker
	limit := min(len(e.src), i+1+dupLookaheadWindow)
	for j := i + 1; j < limit; j++ {
		r := e.src[j]
		wasInString := tr.inString
		tr.step(r)
		if wasInString || tr.inString {
			continue
		}
		switch r {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				if r != kind.closer() {
					return 0, false
				}
				k := j + 1
				for k < len(e.src) && unicode.IsSpace(e.src[k]) {
					k++
				}
				if k >= len(e.src) || e.src[k] != kind.closer() {
					return 0, false
				}
				return j, true
			}
		case ',':
			if depth == 1 {
				return 0, false
			}
		}
	}
	return 0, false
}
