// Package repair makes a best-effort pass at salvaging malformed JSON from
// model responses. Each named strategy produces a candidate that is only
// kept when it changes the text; strategies accumulate in order, and the
// first candidate that parses wins.
package repair

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Strategy names, in the order they are attempted.
const (
	StripMarkdownFence   = "strip_markdown_fence"
	NormalizeEncoding    = "normalize_encoding"
	EscapeControlChars   = "escape_control_chars"
	RemoveTrailingCommas = "remove_trailing_commas"
	CloseTruncated       = "close_truncated"
	UnwrapNested         = "unwrap_nested"
)

// ErrUnrepairable is returned when no strategy sequence yields valid JSON.
var ErrUnrepairable = errors.New("response is not repairable JSON")

type strategy struct {
	name  string
	apply func(string) string
}

var strategies = []strategy{
	{StripMarkdownFence, stripMarkdownFence},
	{NormalizeEncoding, normalizeEncoding},
	{EscapeControlChars, escapeControlChars},
	{RemoveTrailingCommas, removeTrailingCommas},
	{CloseTruncated, closeTruncated},
}

func parses(s string) bool {
	return json.Valid([]byte(s))
}

// Sanitize returns the first candidate that parses as JSON along with the
// names of the strategies applied to get there. Once a candidate parses,
// only the wrapper-unwrapping step still runs; already-valid input passes
// through it directly.
func Sanitize(raw string) (string, []string, error) {
	current := strings.TrimSpace(raw)
	var applied []string
	if !parses(current) {
		repaired := false
		for _, s := range strategies {
			candidate := s.apply(current)
			if candidate == current {
				continue
			}
			current = candidate
			applied = append(applied, s.name)
			if parses(current) {
				repaired = true
				break
			}
		}
		if !repaired {
			return "", applied, ErrUnrepairable
		}
	}
	if unwrapped := unwrapNested(current); unwrapped != current && parses(unwrapped) {
		current = unwrapped
		applied = append(applied, UnwrapNested)
	}
	return current, applied, nil
}

// stripMarkdownFence removes a wrapping ```json ... ``` (or plain ```) block.
func stripMarkdownFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
			trimmed = trimmed[idx+1:]
		}
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

var encodingReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"\uFEFF", "",
)

// normalizeEncoding straightens smart quotes and drops BOMs and invalid
// UTF-8 bytes that some providers leak into responses.
func normalizeEncoding(text string) string {
	out := encodingReplacer.Replace(text)
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, "")
	}
	return out
}

// escapeControlChars escapes raw newlines and tabs inside string literals,
// a common failure in long generated prose fields.
func escapeControlChars(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString := false
	escaped := false
	for _, r := range text {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case inString && r == '\n':
			b.WriteString(`\n`)
		case inString && r == '\r':
			b.WriteString(`\r`)
		case inString && r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// removeTrailingCommas drops commas that directly precede a closing bracket
// or brace outside string literals.
func removeTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString := false
	escaped := false
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if inString {
			if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
			b.WriteRune(r)
			continue
		}
		if r == '"' {
			inString = true
			b.WriteRune(r)
			continue
		}
		if r == ',' {
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\r' || runes[j] == '\t') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// closeTruncated balances an unterminated string and any unclosed brackets,
// salvaging responses cut off by a token limit.
func closeTruncated(text string) string {
	trimmed := strings.TrimRight(text, " \n\r\t")
	var stack []rune
	inString := false
	escaped := false
	for _, r := range trimmed {
		if escaped {
			escaped = false
			continue
		}
		if inString {
			if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, r)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !inString && len(stack) == 0 {
		return text
	}
	out := trimmed
	if inString {
		out += `"`
	}
	out = strings.TrimRight(out, ",")
	var b strings.Builder
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

var wrapperKeys = []string{"data", "result", "response", "output"}

// unwrapNested lifts a payload out of a single-key wrapper object such as
// {"data": {...}} that some prompts provoke.
func unwrapNested(text string) string {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &outer); err != nil {
		return text
	}
	if len(outer) != 1 {
		return text
	}
	for _, key := range wrapperKeys {
		if inner, ok := outer[key]; ok {
			return string(inner)
		}
	}
	return text
}
