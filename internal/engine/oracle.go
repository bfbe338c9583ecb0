// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"mdmend/internal/core/paths"
)

// Oracle is the opaque execution facility: submit a block's code, learn
// whether it raised and with what message. Bindings persist across Submit
// calls within one oracle; distinct oracles share nothing.
type Oracle interface {
	Submit(ctx context.Context, code string) error
	// Output returns the captured printed output of the last submission.
	Output() string
	Close() error
}

// GoOracle runs notebook blocks in a yaegi interpreter. One interpreter is
// created per document repair and discarded with it, so sequential blocks
// see each other's bindings and concurrent repairs stay isolated.
//
// A failed submission may have already mutated interpreter state; yaegi
// offers no rollback, so the engine only guarantees containment of the
// direct failure, not of downstream effects.
type GoOracle struct {
	interp *interp.Interpreter
	out    *cappedWriter
}

// preludeImports are evaluated once at oracle creation so notebook blocks
// can use the common packages and the bound helpers without writing import
// statements themselves.
const preludeImports = `import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"data"
	"doc"
)`

// NewGoOracle creates a fresh interpreter with stdlib symbols plus the
// notebook runtime: the "data" loader package closed over the document's
// path mapping and data directory, and the "doc" output-governance package
// closed over the captured stdout writer.
func NewGoOracle(mapping paths.Mapping, dataDir string) (*GoOracle, error) {
	out := newCappedWriter()
	i := interp.New(interp.Options{Stdout: out, Stderr: out})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("error loading stdlib symbols: %w", err)
	}
	if err := i.Use(dataSymbols(mapping, dataDir)); err != nil {
		return nil, fmt.Errorf("error loading data symbols: %w", err)
	}
	if err := i.Use(docSymbols(out)); err != nil {
		return nil, fmt.Errorf("error loading doc symbols: %w", err)
	}

	if _, err := i.Eval(preludeImports); err != nil {
		return nil, fmt.Errorf("error evaluating prelude: %w", err)
	}

	return &GoOracle{interp: i, out: out}, nil
}

// Submit evaluates one block body as a unit. Every failure mode, including
// interpreter panics on malformed input, comes back as an error value; the
// caller decides what to do with it. Cancellation is only honored before the
// evaluation starts: an aborted evaluation would leave the shared context in
// an undefined state.
func (o *GoOracle) Submit(ctx context.Context, code string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreter panic: %v", r)
		}
	}()

	o.out.Reset()
	_, err = o.interp.Eval(code)
	return err
}

// Output returns the (possibly truncated) printed output of the last Submit.
func (o *GoOracle) Output() string {
	return o.out.String()
}

// Close discards the oracle. The interpreter holds no external resources.
func (o *GoOracle) Close() error {
	return nil
}
