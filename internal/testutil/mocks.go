// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockOracle is a scripted execution oracle for tests: submissions are
// recorded, and any body containing a key of FailContaining fails with the
// mapped message.
type MockOracle struct {
	mu             sync.Mutex
	Submitted      []string
	FailContaining map[string]string
	Closed         bool
}

func (m *MockOracle) Submit(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.Submitted = append(m.Submitted, code)
	m.mu.Unlock()

	for substr, msg := range m.FailContaining {
		if strings.Contains(code, substr) {
			return errors.New(msg)
		}
	}
	return nil
}

func (m *MockOracle) Output() string { return "" }

func (m *MockOracle) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// MockRenderer records render requests and reports a fixed output path.
type MockRenderer struct {
	mu       sync.Mutex
	Rendered []string
	Err      error
}

func (m *MockRenderer) Render(docPath, outDir string) (string, error) {
	m.mu.Lock()
	m.Rendered = append(m.Rendered, docPath)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return docPath + ".out.txt", nil
}
