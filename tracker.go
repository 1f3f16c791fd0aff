package jsonmend

// stringTracker follows string-literal and escape state one rune at a time.
// Both engines drive their own instance forward during their scan; state is
// never derived by re-reading earlier input.
//
// Invariant: escapePending is true only for the single rune immediately
// following an unescaped backslash inside a string.
type stringTracker struct {
	inString      bool
	quote         rune // opening delimiter while inString
	escapePending bool
}

// step consumes one rune and updates the tracker. It is total: any rune is
// acceptable in any state.
func (t *stringTracker) step(r rune) {
	if !t.inString {
		if isOpenQuote(r) {
			t.inString = true
			t.quote = r
		}
		return
	}
	if t.escapePending {
		t.escapePending = false
		return
	}
	switch {
	case r == '\\':
		t.escapePending = true
	case r == closeQuoteFor(t.quote):
		t.inString = false
		t.quote = 0
	}
}

// isOpenQuote reports whether r can begin a string literal. Smart quote
// variants show up in copy-pasted and model-generated text.
func isOpenQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '‘', '«', '‹':
		return true
	}
	return false
}

// closeQuoteFor returns the delimiter that terminates a string opened by
// open. Symmetric quotes close themselves; smart quotes pair up.
func closeQuoteFor(open rune) rune {
	switch open {
	case '“':
		return '”'
	case '‘':
		return '’'
	case '«':
		return '»'
	case '‹':
		return '›'
	}
	return open
}

// isQuote reports whether r is any recognized string delimiter, opening or
// closing.
func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’', '«', '»', '‹', '›':
		return true
	}
	return false
}
