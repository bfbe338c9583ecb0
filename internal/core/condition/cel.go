// SPDX-License-Identifier: Apache-2.0

package condition

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"mdmend/internal/core/document"
)

// BlockRule is a compiled CEL predicate over a code block, used to exclude
// blocks from execution without editing the document (e.g.
// "block.index > 40 || block.label.startsWith('fig-')").
type BlockRule struct {
	program cel.Program
	source  string
}

// CompileBlockRule parses, checks and compiles a skip rule. The expression
// sees a single `block` map variable.
func CompileBlockRule(expression string) (*BlockRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("block", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error parsing skip rule: %w", issues.Err())
	}

	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error type-checking skip rule: %w", issues.Err())
	}

	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("error compiling skip rule: %w", err)
	}

	return &BlockRule{program: program, source: expression}, nil
}

// Matches evaluates the rule against one block.
func (r *BlockRule) Matches(b *document.CodeBlock) (bool, error) {
	result, _, err := r.program.Eval(map[string]interface{}{
		"block": BlockVars(b),
	})
	if err != nil {
		return false, fmt.Errorf("error evaluating skip rule %q: %w", r.source, err)
	}

	if result.Type() != types.BoolType {
		return false, fmt.Errorf("skip rule %q did not evaluate to a boolean", r.source)
	}

	return result.Value().(bool), nil
}

// BlockVars builds the variable map a rule evaluates against.
func BlockVars(b *document.CodeBlock) map[string]interface{} {
	return map[string]interface{}{
		"index":   b.Index,
		"label":   b.Options.Label(),
		"lines":   len(b.Body),
		"options": b.Options.String(),
	}
}
