// Package highlight marks search matches inside already-styled terminal text.
package highlight

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var ansiCSI = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

type Result struct {
	Text string
	// Count is the total number of matches; Lines holds the zero-based line
	// numbers that contain at least one, in order.
	Count int
	Lines []int
}

// Mark wraps every case-insensitive occurrence of query in input with mark.
// Escape sequences are copied through untouched and a match never spans one.
func Mark(input, query string, mark func(string) string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Text: input}
	}
	if mark == nil {
		mark = func(s string) string { return s }
	}

	var out strings.Builder
	res := Result{}
	for lineNo, line := range strings.SplitAfter(input, "\n") {
		core, nl := strings.CutSuffix(line, "\n")
		marked, n := markStyled(core, query, mark)
		out.WriteString(marked)
		if nl {
			out.WriteByte('\n')
		}
		if n > 0 {
			res.Count += n
			res.Lines = append(res.Lines, lineNo)
		}
	}
	res.Text = out.String()
	return res
}

// Contains reports whether text holds query, ignoring case.
func Contains(text, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	for i := range text {
		if foldPrefix(text[i:], query) > 0 {
			return true
		}
	}
	return false
}

func markStyled(s, query string, mark func(string) string) (string, int) {
	var out strings.Builder
	total, pos := 0, 0
	for _, idx := range ansiCSI.FindAllStringIndex(s, -1) {
		plain, n := markPlain(s[pos:idx[0]], query, mark)
		out.WriteString(plain)
		out.WriteString(s[idx[0]:idx[1]])
		total += n
		pos = idx[1]
	}
	plain, n := markPlain(s[pos:], query, mark)
	out.WriteString(plain)
	return out.String(), total + n
}

func markPlain(s, query string, mark func(string) string) (string, int) {
	if s == "" {
		return s, 0
	}
	var out strings.Builder
	count, last := 0, 0
	for i := 0; i < len(s); {
		if n := foldPrefix(s[i:], query); n > 0 {
			out.WriteString(s[last:i])
			out.WriteString(mark(s[i : i+n]))
			count++
			i += n
			last = i
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	if count == 0 {
		return s, 0
	}
	out.WriteString(s[last:])
	return out.String(), count
}

// foldPrefix returns the byte length of the prefix of s that equals query
// under Unicode case folding, or 0.
func foldPrefix(s, query string) int {
	i := 0
	for _, qr := range query {
		if i >= len(s) {
			return 0
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if sr != qr && !strings.EqualFold(string(sr), string(qr)) {
			return 0
		}
		i += size
	}
	return i
}
