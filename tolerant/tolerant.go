// Package tolerant is the parser of last resort behind the repair pipeline.
// It accepts arbitrary text and extracts the most plausible JSON value,
// recovering from damage a text-level rewrite cannot express: unclosed
// strings in the middle of a document, bare words containing spaces,
// comments, and malformed numbers. Every recovery decision is reported as a
// Note so callers can judge how much trust the result deserves.
package tolerant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// maxDepth bounds container nesting. Input deeper than this is hostile, not
// damaged.
const maxDepth = 512

// Note records one recovery decision together with a window of the
// surrounding input.
type Note struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// ParseError reports input from which no value could be recovered.
type ParseError struct {
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tolerant: %s at offset %d", e.Message, e.Position)
}

type entry struct {
	key   string
	value any
}

// Object is a JSON object with key order preserved as recovered from the
// input. Dump serializes entries in that order.
type Object struct {
	entries []entry
	index   map[string]int
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{index: map[string]int{}}
}

// Set stores value under key, keeping the key's original position when it
// already exists.
func (o *Object) Set(key string, value any) {
	if idx, ok := o.index[key]; ok {
		o.entries[idx].value = value
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, entry{key: key, value: value})
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	idx, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.entries[idx].value, true
}

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.entries) }

// Keys returns the keys in recovered order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.entries))
	for i, en := range o.entries {
		keys[i] = en.key
	}
	return keys
}

// Map converts the object, and any nested Objects, to plain Go maps. Key
// order is lost.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, len(o.entries))
	for _, en := range o.entries {
		if nested, ok := en.value.(*Object); ok {
			m[en.key] = nested.Map()
			continue
		}
		if arr, ok := en.value.([]any); ok {
			m[en.key] = plainSlice(arr)
			continue
		}
		m[en.key] = en.value
	}
	return m
}

func plainSlice(arr []any) []any {
	out := make([]any, len(arr))
	for i, v := range arr {
		switch t := v.(type) {
		case *Object:
			out[i] = t.Map()
		case []any:
			out[i] = plainSlice(t)
		default:
			out[i] = v
		}
	}
	return out
}

// Parse extracts a JSON value from text. Objects come back as *Object,
// arrays as []any, numbers as json.Number. Multiple top-level values are
// collected into a single array. The error is always a *ParseError.
func Parse(text string) (any, error) {
	value, _, err := ParseWithNotes(text)
	return value, err
}

// ParseWithNotes is Parse, additionally returning the recovery notes.
func ParseWithNotes(text string) (any, []Note, error) {
	p := &parser{src: []rune(text)}
	value, err := p.parse()
	if err != nil {
		return nil, nil, err
	}
	return value, p.notes, nil
}

type parser struct {
	src   []rune
	i     int
	depth int
	notes []Note
}

func (p *parser) note(text string) {
	const window = 10
	start := max(p.i-window, 0)
	end := min(p.i+window, len(p.src))
	p.notes = append(p.notes, Note{Text: text, Context: string(p.src[start:end])})
}

func (p *parser) peek() (rune, bool) {
	if p.i >= len(p.src) {
		return 0, false
	}
	return p.src[p.i], true
}

func (p *parser) parse() (any, error) {
	var values []any
	for {
		p.skipFiller()
		if _, ok := p.peek(); !ok {
			break
		}
		value, found, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if !found {
			// Stray structural rune at the top level, step over it.
			p.i++
			continue
		}
		values = append(values, value)
	}
	switch len(values) {
	case 0:
		return nil, &ParseError{Position: 0, Message: "no JSON value found"}
	case 1:
		return values[0], nil
	default:
		p.note("found multiple top-level values, collecting them into an array")
		return values, nil
	}
}

// skipFiller advances past whitespace and comments. Line comments start with
// // or #, block comments use /* */.
func (p *parser) skipFiller() {
	for {
		c, ok := p.peek()
		if !ok {
			return
		}
		switch {
		case unicode.IsSpace(c):
			p.i++
		case c == '#':
			p.note("ignoring line comment")
			p.skipPast('\n')
		case c == '/' && p.i+1 < len(p.src) && p.src[p.i+1] == '/':
			p.note("ignoring line comment")
			p.skipPast('\n')
		case c == '/' && p.i+1 < len(p.src) && p.src[p.i+1] == '*':
			p.note("ignoring block comment")
			p.i += 2
			for p.i < len(p.src) {
				if p.src[p.i] == '*' && p.i+1 < len(p.src) && p.src[p.i+1] == '/' {
					p.i += 2
					break
				}
				p.i++
			}
		default:
			return
		}
	}
}

func (p *parser) skipPast(stop rune) {
	for p.i < len(p.src) && p.src[p.i] != stop {
		p.i++
	}
}

// parseValue dispatches on the next rune. It reports found=false without
// consuming anything when the next rune is structural punctuation that
// belongs to the caller.
func (p *parser) parseValue() (any, bool, error) {
	for {
		p.skipFiller()
		c, ok := p.peek()
		if !ok {
			return nil, false, nil
		}
		switch {
		case c == '{':
			p.i++
			obj, err := p.parseObject()
			return obj, err == nil, err
		case c == '[':
			p.i++
			arr, err := p.parseArray()
			return arr, err == nil, err
		case isQuoteRune(c):
			return p.parseQuoted(valueStops), true, nil
		case c == '-' || c == '.' || unicode.IsDigit(c):
			return p.parseNumber(), true, nil
		case unicode.IsLetter(c) || c == '_':
			return p.parseWord(), true, nil
		case c == '}' || c == ']' || c == ',' || c == ':':
			return nil, false, nil
		default:
			// Unrecognized garbage, step over it and try again.
			p.i++
		}
	}
}

func (p *parser) parseObject() (*Object, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, &ParseError{Position: p.i, Message: "nesting too deep"}
	}

	obj := NewObject()
	for {
		p.skipFiller()
		c, ok := p.peek()
		if !ok {
			p.note("while parsing an object we ran out of input, closing it")
			return obj, nil
		}
		if c == '}' {
			p.i++
			return obj, nil
		}
		if c == ',' {
			p.i++
			continue
		}
		if c == ':' {
			p.note("while parsing an object we found a : before a key, ignoring it")
			p.i++
			continue
		}
		if c == ']' {
			p.note("while parsing an object we found a stray ], ignoring it")
			p.i++
			continue
		}

		var key string
		if isQuoteRune(c) {
			key = p.parseQuoted(keyStops)
		} else {
			key = p.parseBareKey()
			// A quote here means an earlier unterminated string swallowed
			// this key's opening quote.
			if c, ok := p.peek(); ok && isQuoteRune(c) {
				p.note("while parsing an object key we found a stray quote, ignoring it")
				p.i++
			}
		}

		p.skipFiller()
		if c, ok := p.peek(); ok && c == ':' {
			p.i++
		} else {
			p.note("while parsing an object we missed the : after a key")
		}

		p.skipFiller()
		if c, ok := p.peek(); !ok || c == '}' {
			p.note("while parsing an object we found a key with no value")
			obj.Set(key, "")
			continue
		}
		value, found, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if !found {
			value = ""
		}
		obj.Set(key, value)
	}
}

func (p *parser) parseArray() ([]any, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, &ParseError{Position: p.i, Message: "nesting too deep"}
	}

	arr := []any{}
	for {
		p.skipFiller()
		c, ok := p.peek()
		if !ok {
			p.note("while parsing an array we missed the closing ], closing it")
			return arr, nil
		}
		if c == ']' {
			p.i++
			return arr, nil
		}
		if c == ',' {
			p.i++
			continue
		}
		if c == '}' {
			p.note("while parsing an array we found a } instead of ], closing it")
			p.i++
			return arr, nil
		}
		if c == ':' {
			p.note("while parsing an array we found a stray :, ignoring it")
			p.i++
			continue
		}
		value, found, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		arr = append(arr, value)
	}
}

// keyStops and valueStops terminate an unterminated string depending on the
// grammatical slot it occupies.
var (
	keyStops   = map[rune]struct{}{':': {}, '\n': {}, '}': {}}
	valueStops = map[rune]struct{}{',': {}, '\n': {}, '}': {}, ']': {}}
)

// parseQuoted consumes a quoted string starting at the current rune and
// returns its decoded content. When the closing quote never arrives the
// string ends at the first rune in stops.
func (p *parser) parseQuoted(stops map[rune]struct{}) string {
	open := p.src[p.i]
	closers := closeQuotes(open)
	p.i++

	var b strings.Builder
	for p.i < len(p.src) {
		c := p.src[p.i]
		if _, hit := closers[c]; hit {
			p.i++
			return b.String()
		}
		if _, hit := stops[c]; hit {
			p.note("while parsing a string we missed the closing quote, ending it early")
			return strings.TrimRight(b.String(), " \t")
		}
		if c == '\\' && p.i+1 < len(p.src) {
			p.i++
			b.WriteRune(p.decodeEscape())
			continue
		}
		b.WriteRune(c)
		p.i++
	}
	p.note("while parsing a string we ran out of input before the closing quote")
	return b.String()
}

// decodeEscape consumes the rune(s) after a backslash and returns the
// character they denote. Unknown escapes yield the rune itself.
func (p *parser) decodeEscape() rune {
	c := p.src[p.i]
	p.i++
	switch c {
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'u':
		if r, ok := p.decodeHex4(); ok {
			if utf16.IsSurrogate(r) && p.i+1 < len(p.src) && p.src[p.i] == '\\' && p.src[p.i+1] == 'u' {
				p.i += 2
				if lo, ok := p.decodeHex4(); ok {
					return utf16.DecodeRune(r, lo)
				}
			}
			return r
		}
		return 'u'
	default:
		return c
	}
}

func (p *parser) decodeHex4() (rune, bool) {
	if p.i+4 > len(p.src) {
		return 0, false
	}
	v, err := strconv.ParseUint(string(p.src[p.i:p.i+4]), 16, 32)
	if err != nil {
		return 0, false
	}
	p.i += 4
	return rune(v), true
}

// parseBareKey consumes an unquoted object key up to the colon, treating
// interior spaces as part of the key.
func (p *parser) parseBareKey() string {
	start := p.i
	for p.i < len(p.src) {
		c := p.src[p.i]
		if c == ':' || c == ',' || c == '}' || c == '\n' || isQuoteRune(c) {
			break
		}
		p.i++
	}
	key := strings.TrimSpace(string(p.src[start:p.i]))
	if key == "" {
		// Keep moving so the object loop cannot spin on the same rune.
		p.i++
		return key
	}
	p.note("while parsing an object we found an unquoted key")
	return key
}

// parseWord consumes a bare word. Literal spellings of true, false, and null
// become typed values; anything else is an unquoted string running to the
// next structural rune.
func (p *parser) parseWord() any {
	start := p.i
	for p.i < len(p.src) {
		c := p.src[p.i]
		if c == ',' || c == '}' || c == ']' || c == ':' || c == '\n' || isQuoteRune(c) {
			break
		}
		p.i++
	}
	word := strings.TrimRight(string(p.src[start:p.i]), " \t")
	switch strings.ToLower(word) {
	case "true":
		return true
	case "false":
		return false
	case "null", "none", "nil":
		return nil
	}
	p.note("while parsing a value we found an unquoted string")
	return word
}

// parseNumber consumes a numeric token. Tokens that do not survive a float
// parse are kept as strings rather than dropped.
func (p *parser) parseNumber() any {
	const numberRunes = "0123456789+-.eE"
	start := p.i
	for p.i < len(p.src) && strings.ContainsRune(numberRunes, p.src[p.i]) {
		p.i++
	}
	// A letter straight after digits means this was a word all along, as in
	// 12ft or 1e5x.
	if p.i < len(p.src) && unicode.IsLetter(p.src[p.i]) {
		p.i = start
		return p.parseWord()
	}
	raw := string(p.src[start:p.i])
	// Dangling sign or exponent runes are dropped, not rolled back; rolling
	// back would hand them to parseWord as a fresh token.
	for len(raw) > 0 {
		last := raw[len(raw)-1]
		if last == '-' || last == '+' || last == '.' || last == 'e' || last == 'E' {
			raw = raw[:len(raw)-1]
			continue
		}
		break
	}
	if raw == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		p.note("while parsing a number we found an invalid token, keeping it as a string")
		return raw
	}
	return json.Number(raw)
}

func isQuoteRune(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’':
		return true
	}
	return false
}

func closeQuotes(open rune) map[rune]struct{} {
	switch open {
	case '“', '”':
		return map[rune]struct{}{'”': {}, '"': {}}
	case '‘', '’':
		return map[rune]struct{}{'’': {}, '\'': {}}
	default:
		return map[rune]struct{}{open: {}}
	}
}

// Dump serializes a value recovered by Parse back to compact JSON. Object
// entries keep their recovered order; plain maps are written with sorted
// keys so output stays deterministic.
func Dump(value any) string {
	var buf bytes.Buffer
	writeValue(&buf, value)
	return buf.String()
}

func writeValue(buf *bytes.Buffer, value any) {
	switch v := value.(type) {
	case string:
		buf.WriteByte('"')
		writeEscapedString(buf, v)
		buf.WriteByte('"')
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeValue(buf, item)
		}
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, en := range v.entries {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteByte('"')
			writeEscapedString(buf, en.key)
			buf.WriteByte('"')
			buf.WriteString(": ")
			writeValue(buf, en.value)
		}
		buf.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteByte('"')
			writeEscapedString(buf, key)
			buf.WriteByte('"')
			buf.WriteString(": ")
			writeValue(buf, v[key])
		}
		buf.WriteByte('}')
	case float64:
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case int:
		buf.WriteString(strconv.Itoa(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	default:
		buf.WriteString("null")
	}
}

func writeEscapedString(buf *bytes.Buffer, value string) {
	for _, r := range value {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '"':
			buf.WriteString(`\"`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
}
