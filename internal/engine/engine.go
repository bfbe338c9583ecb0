// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"mdmend/internal/core/condition"
	"mdmend/internal/core/document"
)

// maxErrorLen caps the error message carried into the inline annotation so
// disabled blocks stay readable.
const maxErrorLen = 80

// annotationPrefix starts the transparency line inserted into a newly
// disabled block, in the comment syntax of the target language.
const annotationPrefix = "// mdmend: execution disabled: "

// Engine submits code blocks to the oracle strictly in document order and
// disables the ones that fail. Execution failures are expected and contained
// per block; they never propagate to the caller.
type Engine struct {
	oracle Oracle
	rule   *condition.BlockRule
	log    *zap.SugaredLogger
}

// Counts summarizes one engine run over a document.
type Counts struct {
	Executed int
	Disabled int
	Skipped  int
}

// New creates an engine. rule may be nil (no skip rule configured).
func New(oracle Oracle, rule *condition.BlockRule, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{oracle: oracle, rule: rule, log: log}
}

// Run drives every block of the document through the oracle. Blocks the
// author marked eval=false, empty blocks and rule-skipped blocks are never
// submitted and never mutated. The only errors returned are cancellation
// (checked between submissions, never mid-block) and skip-rule evaluation
// failures; both are structural from the caller's point of view.
func (e *Engine) Run(ctx context.Context, doc *document.Document) (Counts, error) {
	var counts Counts

	for _, b := range doc.Blocks() {
		if err := ctx.Err(); err != nil {
			return counts, err
		}

		if b.NoEval {
			counts.Skipped++
			continue
		}
		if b.Empty() {
			// Trivially successful: nothing to run, nothing to
			// mutate.
			continue
		}
		if e.rule != nil {
			match, err := e.rule.Matches(b)
			if err != nil {
				return counts, fmt.Errorf("block %d: %w", b.Index, err)
			}
			if match {
				e.log.Debugw("block skipped by rule", "document", doc.Path, "block", b.Index)
				counts.Skipped++
				continue
			}
		}

		e.RunBlock(ctx, doc.Path, b)
		counts.Executed++
		if !b.Outcome.Ok {
			counts.Disabled++
		}
	}

	return counts, nil
}

// RunBlock submits one block and records its outcome. On failure the option
// string is mutated structurally (flip eval=true, else append eval=false)
// and a single annotation line is inserted as the first body line. The
// outcome is set exactly once.
func (e *Engine) RunBlock(ctx context.Context, docPath string, b *document.CodeBlock) {
	err := e.oracle.Submit(ctx, b.BodyText())
	if err == nil {
		b.Outcome = &document.Outcome{Ok: true}
		e.log.Debugw("block executed", "document", docPath, "block", b.Index)
		return
	}

	msg := Truncate(err.Error(), maxErrorLen)
	b.Outcome = &document.Outcome{Ok: false, ErrorMessage: msg}
	b.Options.DisableEval()
	b.Body = append([]string{annotationPrefix + msg}, b.Body...)
	e.log.Infow("block disabled", "document", docPath, "block", b.Index, "error", msg)
}

// Truncate flattens a message onto one line and caps its byte length without
// splitting a rune, keeping annotations compact and valid UTF-8.
func Truncate(msg string, max int) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if len(msg) <= max {
		return msg
	}
	if max <= 3 {
		return msg[:runeBoundary(msg, max)]
	}
	return msg[:runeBoundary(msg, max-3)] + "..."
}

// runeBoundary backs cut off to the nearest rune start at or before it.
func runeBoundary(msg string, cut int) int {
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return cut
}
