// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"mdmend/internal/core/paths"
)

// PathBuilder is the resolved-path primitive bound into the execution
// context. Literals already wrapped in it are left alone, and rewritten
// literals are wrapped in it.
const PathBuilder = "data.Path"

// DefaultLoaderCalls is the allow-list of data-loading call names whose
// quoted path arguments get rewritten. Covers the delimited-text,
// serialized-object, spreadsheet and columnar readers of the notebook
// runtime plus the plain os entry points.
var DefaultLoaderCalls = []string{
	"data.ReadCSV", "data.ReadTSV", "data.ReadDelim", "data.ReadTable",
	"data.ReadLines", "data.ReadJSON", "data.ReadXML", "data.ReadExcel",
	"data.ReadXLSX", "data.ReadParquet", "data.ReadFeather",
	"data.ReadRDS", "data.ReadRData", "data.ReadSAV", "data.ReadDTA",
	"data.ReadSAS", "data.ReadQS", "data.Load",
	"os.Open", "os.ReadFile",
}

// Rewriter rewrites bare data-file literals inside loader-call arguments.
// It is a pure text transform: the same input and mapping always produce the
// same output.
type Rewriter struct {
	calls []string
}

// New creates a rewriter for the given loader-call allow-list. Nil or empty
// means DefaultLoaderCalls.
func New(calls []string) *Rewriter {
	if len(calls) == 0 {
		calls = DefaultLoaderCalls
	}
	return &Rewriter{calls: calls}
}

// Rewrite transforms one code block's full body text and returns it along
// with the number of literals rewritten. The body is handled as a whole
// because a single call may span multiple lines.
func (r *Rewriter) Rewrite(text string, mapping paths.Mapping) (string, int) {
	if len(mapping) == 0 || text == "" {
		return text, 0
	}

	lits, comments := scanSpans(text)

	// Collect every replacement against the original text first, then
	// apply right-to-left so earlier substitutions never invalidate the
	// offsets of later ones.
	repls := make(map[int]replacement)
	for _, call := range r.calls {
		for _, open := range callSites(text, call, lits, comments) {
			end := matchParen(text, open, lits, comments)
			if end < 0 {
				// Unbalanced parens: leave this call's content
				// untouched rather than guessing.
				continue
			}
			for _, lit := range lits {
				if lit.start <= open || lit.end >= end || lit.quote != '"' && lit.quote != '`' {
					continue
				}
				content := text[lit.start+1 : lit.end]
				if !rewritable(content, text[:lit.start]) {
					continue
				}
				bare := paths.BareName(content)
				if _, ok := mapping[bare]; !ok {
					continue
				}
				repls[lit.start] = replacement{
					start: lit.start,
					end:   lit.end + 1,
					text:  fmt.Sprintf("%s(%q)", PathBuilder, bare),
				}
			}
		}
	}

	if len(repls) == 0 {
		return text, 0
	}

	ordered := make([]replacement, 0, len(repls))
	for _, rep := range repls {
		ordered = append(ordered, rep)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start > ordered[j].start })

	out := text
	for _, rep := range ordered {
		out = out[:rep.start] + rep.text + out[rep.end:]
	}
	return out, len(ordered)
}

type replacement struct {
	start, end int
	text       string
}

// literal is a quoted span in the source text, quote characters included
// (start and end index the quotes themselves).
type literal struct {
	start, end int
	quote      byte
}

// span is a comment region, end exclusive.
type span struct {
	start, end int
}

// scanSpans tokenizes the text into quoted-string and comment spans so that
// paren counting and call matching only ever look at real code. Double-quoted
// and rune literals honor backslash escapes; backquoted raw strings do not.
// Quotes inside comments are not literals (an apostrophe in a line comment
// must not swallow the rest of the block), and literals inside comments are
// never candidates for rewriting.
func scanSpans(text string) ([]literal, []span) {
	var lits []literal
	var comments []span
	i := 0
	for i < len(text) {
		c := text[i]

		if c == '/' && i+1 < len(text) && text[i+1] == '/' {
			start := i
			for i < len(text) && text[i] != '\n' {
				i++
			}
			comments = append(comments, span{start: start, end: i})
			continue
		}
		if c == '/' && i+1 < len(text) && text[i+1] == '*' {
			start := i
			i += 2
			for i < len(text) {
				if text[i] == '*' && i+1 < len(text) && text[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			comments = append(comments, span{start: start, end: i})
			continue
		}

		if c != '"' && c != '\'' && c != '`' {
			i++
			continue
		}
		start := i
		i++
		for i < len(text) {
			if c != '`' && text[i] == '\\' {
				i += 2
				continue
			}
			if text[i] == c {
				lits = append(lits, literal{start: start, end: i, quote: c})
				i++
				break
			}
			i++
		}
		if i >= len(text) && (len(lits) == 0 || lits[len(lits)-1].start != start) {
			// Unterminated literal runs to end of text.
			lits = append(lits, literal{start: start, end: len(text), quote: c})
		}
	}
	return lits, comments
}

func inLiteral(pos int, lits []literal) bool {
	for _, l := range lits {
		if pos >= l.start && pos <= l.end {
			return true
		}
	}
	return false
}

func inComment(pos int, comments []span) bool {
	for _, s := range comments {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

// callSites returns the index of the opening paren for each invocation of
// name in code (not inside a string literal or comment), honoring identifier
// boundaries so read_csv never matches my_read_csv.
func callSites(text, name string, lits []literal, comments []span) []int {
	var sites []int
	from := 0
	for {
		idx := strings.Index(text[from:], name)
		if idx < 0 {
			return sites
		}
		idx += from
		from = idx + 1

		if inLiteral(idx, lits) || inComment(idx, comments) {
			continue
		}
		if idx > 0 && isIdentChar(text[idx-1]) || idx > 0 && text[idx-1] == '.' {
			continue
		}
		// Skip whitespace between name and paren.
		j := idx + len(name)
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
		if j < len(text) && text[j] == '(' {
			sites = append(sites, j)
		}
	}
}

// matchParen finds the closing paren balancing the one at open, counting
// parens only outside string literals and comments. Returns -1 when
// unbalanced.
func matchParen(text string, open int, lits []literal, comments []span) int {
	depth := 0
	for i := open; i < len(text); i++ {
		if inLiteral(i, lits) || inComment(i, comments) {
			continue
		}
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

var (
	pathLikeRe = regexp.MustCompile(`\.[A-Za-z0-9]+$`)
	driveRe    = regexp.MustCompile(`^[A-Za-z]:`)
	schemeRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
)

// rewritable decides whether a literal is a relative data-file reference.
// Absolute paths, home- and parent-relative paths, URIs, UNC shares and
// literals already wrapped in the path builder are left exactly as written.
func rewritable(content, before string) bool {
	if !pathLikeRe.MatchString(content) {
		return false
	}
	switch {
	case strings.HasPrefix(content, "/"),
		strings.HasPrefix(content, "~/"),
		strings.HasPrefix(content, "../"),
		strings.HasPrefix(content, `..\`),
		strings.HasPrefix(content, `\\`):
		return false
	}
	if driveRe.MatchString(content) || schemeRe.MatchString(content) {
		return false
	}
	if strings.HasSuffix(strings.TrimRight(before, " \t\n"), PathBuilder+"(") {
		return false
	}
	return true
}
