// SPDX-License-Identifier: Apache-2.0

package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnterminatedBlock is returned when an open fence is never matched by a
// close fence. This is a structural error: the document must not be repaired
// from a half-parsed state.
var ErrUnterminatedBlock = errors.New("unterminated code block")

// Open fence: 3+ backticks, "{", the language tag, then either "}" or a
// comma/whitespace separated option string up to the closing "}".
var openFenceRe = regexp.MustCompile("^(`{3,})\\{([A-Za-z][A-Za-z0-9_+-]*)(?:[,\\s]+(.*?))?\\}\\s*$")

// Close fence: 3+ backticks and nothing else but trailing whitespace.
var closeFenceRe = regexp.MustCompile("^(`{3,})\\s*$")

// TargetLang is the language tag of executable blocks. Blocks with any other
// tag are copied through as prose.
const TargetLang = "go"

// Parse segments a document's lines in a single forward pass. The front
// matter end is fixed first, then the line automaton classifies everything
// else as prose or code block content.
func Parse(path string, lines []string) (*Document, error) {
	doc := &Document{
		Path:        path,
		HeaderLines: headerLines(lines),
	}

	var cur *CodeBlock
	openLineNo := 0
	index := 0

	for i, line := range lines {
		if cur != nil {
			// Inside a block. Only a bare fence at least as long as
			// the opening one closes it; shorter backtick runs are
			// body content (nested example fences).
			if m := closeFenceRe.FindStringSubmatch(line); m != nil && len(m[1]) >= len(cur.Fence) {
				cur.rawClose = line
				doc.Segments = append(doc.Segments, Segment{Kind: SegmentBlock, Block: cur})
				cur = nil
				continue
			}
			cur.Body = append(cur.Body, line)
			continue
		}

		// Front-matter lines are prose by construction; a "---" inside
		// it must not be mistaken for anything else.
		if i < doc.HeaderLines {
			doc.Segments = append(doc.Segments, Segment{Kind: SegmentProse, Line: line})
			continue
		}

		if m := openFenceRe.FindStringSubmatch(line); m != nil && m[2] == TargetLang {
			index++
			opts := ParseOptions(m[3])
			evalVal, evalSet := opts.Eval()
			cur = &CodeBlock{
				Index:   index,
				Fence:   m[1],
				Lang:    m[2],
				Options: opts,
				NoEval:  evalSet && !evalVal,
				rawOpen: line,
			}
			openLineNo = i + 1
			continue
		}

		doc.Segments = append(doc.Segments, Segment{Kind: SegmentProse, Line: line})
	}

	if cur != nil {
		return nil, fmt.Errorf("%s: block %d opened at line %d: %w", path, cur.Index, openLineNo, ErrUnterminatedBlock)
	}

	return doc, nil
}

// ParseText is a convenience wrapper over Parse for full document text.
func ParseText(path, text string) (*Document, error) {
	return Parse(path, SplitLines(text))
}

// SplitLines splits document text into lines without the trailing empty
// element a final newline would otherwise produce.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// headerLines finds the YAML front matter: the first line must be the "---"
// marker and a second marker must appear before any code block. Returns the
// number of leading lines the header covers, delimiters included, or 0.
func headerLines(lines []string) int {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		if openFenceRe.MatchString(lines[i]) {
			// A code block before the closing marker means the
			// leading --- was not front matter.
			return 0
		}
		if strings.TrimRight(lines[i], " \t") == "---" {
			return i + 1
		}
	}
	return 0
}
