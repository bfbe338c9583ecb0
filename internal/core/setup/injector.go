// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"fmt"
	"strings"

	"mdmend/internal/core/document"
	"mdmend/internal/core/template"
)

// Sentinel marks a prior injection. Its presence anywhere in the canonical
// setup block makes EnsureSetup a no-op, which is what keeps repeated repairs
// from stacking governance statements.
const Sentinel = "// mdmend: output governance"

// governanceTmpl is the injected block content: the sentinel plus the
// printed-output limits for the execution context.
const governanceTmpl = `// mdmend: output governance
doc.MaxPrintLines({{.MaxLines}})
doc.MaxPrintBytes({{.MaxBytes}})`

// GovernanceStatements renders the statements (sentinel included) for the
// given output limits.
func GovernanceStatements(maxLines, maxBytes int) ([]string, error) {
	lines, err := template.ProcessLines(governanceTmpl, map[string]interface{}{
		"MaxLines": maxLines,
		"MaxBytes": maxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("error rendering governance statements: %w", err)
	}
	return lines, nil
}

// EnsureSetup guarantees the document has exactly one setup block carrying
// the governance statements. The first block in document order whose options
// carry the setup label, echo suppression or include suppression is
// canonical; if none exists a new block is synthesized right after the front
// matter (or at document start). Returns whether the document changed.
func EnsureSetup(doc *document.Document, statements []string) bool {
	if block := findSetupBlock(doc); block != nil {
		if containsSentinel(block.Body) {
			return false
		}
		// Insert immediately before the close fence, i.e. at the end
		// of the body.
		block.Body = append(block.Body, statements...)
		return true
	}

	block := &document.CodeBlock{
		Fence:   "```",
		Lang:    document.TargetLang,
		Options: document.ParseOptions("label=setup, include=false"),
		Body:    append([]string(nil), statements...),
		NoEval:  false,
	}

	insertAt := headerSegmentCount(doc)
	seg := document.Segment{Kind: document.SegmentBlock, Block: block}
	doc.Segments = append(doc.Segments[:insertAt], append([]document.Segment{seg}, doc.Segments[insertAt:]...)...)
	doc.Renumber()
	return true
}

// findSetupBlock returns the canonical setup block, or nil. Later matches
// are ignored even if several blocks qualify.
func findSetupBlock(doc *document.Document) *document.CodeBlock {
	for _, b := range doc.Blocks() {
		if b.Options.Label() == "setup" || b.Options.IsFalse("echo") || b.Options.IsFalse("include") {
			return b
		}
	}
	return nil
}

func containsSentinel(body []string) bool {
	for _, line := range body {
		if strings.TrimSpace(line) == Sentinel {
			return true
		}
	}
	return false
}

// headerSegmentCount converts the front-matter line count into a segment
// insertion point. Header lines are always one prose segment each, so the
// two counts coincide.
func headerSegmentCount(doc *document.Document) int {
	if doc.HeaderLines > len(doc.Segments) {
		return len(doc.Segments)
	}
	return doc.HeaderLines
}
