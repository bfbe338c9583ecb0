// SPDX-License-Identifier: Apache-2.0

package document

import "strings"

// SegmentKind distinguishes prose lines from fenced code blocks.
type SegmentKind int

const (
	SegmentProse SegmentKind = iota
	SegmentBlock
)

// Segment is one element of a parsed document: either a single prose line
// (kept verbatim) or a whole fenced code block.
type Segment struct {
	Kind  SegmentKind
	Line  string
	Block *CodeBlock
}

// Outcome records what the execution engine observed for one block. It is
// set at most once and never reset.
type Outcome struct {
	Ok           bool
	ErrorMessage string
}

// CodeBlock is a fenced executable region: open fence with language tag and
// option string, body lines, close fence.
type CodeBlock struct {
	// Index is 1-based and assigned in document order. It is reassigned
	// after setup-block injection, so nothing should key off indices
	// captured before that step.
	Index int

	// Fence is the literal backtick run from the open line. The close
	// line reuses it on output.
	Fence string

	Lang    string
	Options *OptionList
	Body    []string

	// NoEval is true when the author already marked the block eval=false
	// on input. Such blocks are still path-rewritten but never submitted
	// for execution and their flag is left untouched.
	NoEval bool

	Outcome *Outcome

	// rawOpen and rawClose are the fence lines exactly as captured at
	// parse time. They are emitted verbatim (the open line only while the
	// options are unmutated) so oddly spaced option text or a close fence
	// longer than the open fence round-trips byte-identically. Empty for
	// synthesized blocks.
	rawOpen  string
	rawClose string
}

// BodyText returns the block body as one string, because a single logical
// statement may span multiple lines and must be submitted as a unit.
func (b *CodeBlock) BodyText() string {
	return strings.Join(b.Body, "\n")
}

// Empty reports whether the body has no non-whitespace content. Empty blocks
// are never submitted for execution.
func (b *CodeBlock) Empty() bool {
	for _, line := range b.Body {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// OpenLine returns the open fence line: the captured input line while the
// options are untouched, a reconstruction from the structured option list
// once they are not.
func (b *CodeBlock) OpenLine() string {
	if b.rawOpen != "" && !b.Options.Mutated() {
		return b.rawOpen
	}
	opts := b.Options.String()
	if opts == "" {
		return b.Fence + "{" + b.Lang + "}"
	}
	return b.Fence + "{" + b.Lang + ", " + opts + "}"
}

// CloseLine returns the close fence line as captured, falling back to the
// open fence for synthesized blocks.
func (b *CodeBlock) CloseLine() string {
	if b.rawClose != "" {
		return b.rawClose
	}
	return b.Fence
}

// Document is a parsed literate document. The input line sequence is never
// mutated; output lines are rebuilt from the segments.
type Document struct {
	Path string

	// HeaderLines is the number of leading lines covered by the YAML
	// front-matter header, delimiters included. Zero means no header.
	HeaderLines int

	Segments []Segment
}

// Blocks returns the code blocks in document order.
func (d *Document) Blocks() []*CodeBlock {
	var blocks []*CodeBlock
	for i := range d.Segments {
		if d.Segments[i].Kind == SegmentBlock {
			blocks = append(blocks, d.Segments[i].Block)
		}
	}
	return blocks
}

// Renumber reassigns 1-based block indices in document order. Called after
// any segment insertion so indices stay aligned with what the engine sees.
func (d *Document) Renumber() {
	n := 0
	for i := range d.Segments {
		if d.Segments[i].Kind == SegmentBlock {
			n++
			d.Segments[i].Block.Index = n
		}
	}
}

// Lines reassembles the output document from the segments.
func (d *Document) Lines() []string {
	var lines []string
	for i := range d.Segments {
		seg := &d.Segments[i]
		if seg.Kind == SegmentProse {
			lines = append(lines, seg.Line)
			continue
		}
		b := seg.Block
		lines = append(lines, b.OpenLine())
		lines = append(lines, b.Body...)
		lines = append(lines, b.CloseLine())
	}
	return lines
}

// Text reassembles the output document as a single string with a trailing
// newline, matching the way the input was split.
func (d *Document) Text() string {
	return strings.Join(d.Lines(), "\n") + "\n"
}
