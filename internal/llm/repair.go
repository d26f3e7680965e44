package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnrepairable is returned when a truncated document cannot be closed into
// valid JSON.
var ErrUnrepairable = errors.New("truncated json could not be repaired")

// maxRepairBackoff bounds how many earlier commas RepairTruncated retries
// from when the straightforward close does not parse.
const maxRepairBackoff = 64

// jsonScan is the lexical state at the end of a partial document.
type jsonScan struct {
	inString bool
	escaped  bool
	stack    []byte
	commas   []int
}

func scanJSON(s string) jsonScan {
	var st jsonScan
	for i := 0; i < len(s); i++ {
		c := s[i]

		if st.escaped {
			st.escaped = false
			continue
		}
		if st.inString {
			switch c {
			case '\\':
				st.escaped = true
			case '"':
				st.inString = false
			}
			continue
		}

		switch c {
		case '"':
			st.inString = true
		case '{', '[':
			st.stack = append(st.stack, c)
		case '}', ']':
			if n := len(st.stack); n > 0 && st.stack[n-1] == openerFor(c) {
				st.stack = st.stack[:n-1]
			}
		case ',':
			st.commas = append(st.commas, i)
		}
	}
	return st
}

func openerFor(closer byte) byte {
	if closer == '}' {
		return '{'
	}
	return '['
}

func closerFor(opener byte) byte {
	if opener == '{' {
		return '}'
	}
	return ']'
}

// LooksTruncated reports whether s ends inside a string literal, inside an
// unclosed array or object, or on a dangling ',' or ':'.
func LooksTruncated(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	st := scanJSON(s)
	if st.inString || len(st.stack) > 0 {
		return true
	}
	last := s[len(s)-1]
	return last == ',' || last == ':'
}

// RepairTruncated closes a JSON document that was cut short. Open strings are
// terminated, a dangling ',' is dropped, a dangling ':' gets a null value,
// and the open brackets are closed in last-opened-first-closed order. Commas
// directly followed by a closer are removed. The result must pass a generic
// JSON parse; when it does not (for example the cut left a key without a
// value) the document is cut back to each earlier comma in turn, a bounded
// number of times. Well-formed input is returned unchanged, and input that is
// not truncated is never cut back.
func RepairTruncated(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return "", ErrUnrepairable
	}

	candidate := closeTruncated(s)
	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}
	// Cutting back only makes sense for a document that was actually cut
	// short. A complete object followed by prose must not lose fields.
	if !LooksTruncated(s) {
		return "", ErrUnrepairable
	}

	commas := scanJSON(s).commas
	for k, attempts := len(commas)-1, 0; k >= 0 && attempts < maxRepairBackoff; k, attempts = k-1, attempts+1 {
		candidate = closeTruncated(s[:commas[k]])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrUnrepairable
}

func closeTruncated(s string) string {
	st := scanJSON(s)

	if st.inString {
		if st.escaped {
			s = s[:len(s)-1]
		}
		s += `"`
	}

	s = strings.TrimRight(s, " \t\r\n")
	if s != "" {
		switch s[len(s)-1] {
		case ',':
			s = s[:len(s)-1]
		case ':':
			s += "null"
		}
	}

	var b strings.Builder
	b.Grow(len(s) + len(st.stack))
	b.WriteString(s)
	for i := len(st.stack) - 1; i >= 0; i-- {
		b.WriteByte(closerFor(st.stack[i]))
	}
	return stripTrailingCommas(b.String())
}
