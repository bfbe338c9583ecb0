// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns a repaired document into its presentation form. The repair
// pipeline treats it as a black box: a path in, an output path or an error
// out.
type Renderer interface {
	Render(docPath, outDir string) (string, error)
}

// GlamourRenderer renders markdown to styled terminal output written next to
// the document.
type GlamourRenderer struct {
	theme string
}

// NewGlamourRenderer creates a renderer with the given style theme ("auto"
// picks light/dark from the terminal).
func NewGlamourRenderer(theme string) *GlamourRenderer {
	if theme == "" {
		theme = "auto"
	}
	return &GlamourRenderer{theme: theme}
}

// Render reads the document, renders it and writes <stem>.out.txt in outDir
// (or next to the document when outDir is empty).
func (g *GlamourRenderer) Render(docPath, outDir string) (string, error) {
	input, err := os.ReadFile(docPath)
	if err != nil {
		return "", fmt.Errorf("error reading document: %w", err)
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if g.theme == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(g.theme))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("error creating renderer: %w", err)
	}

	out, err := tr.Render(string(input))
	if err != nil {
		return "", fmt.Errorf("error rendering document: %w", err)
	}

	if outDir == "" {
		outDir = filepath.Dir(docPath)
	}
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	outPath := filepath.Join(outDir, base+".out.txt")
	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		return "", fmt.Errorf("error writing rendered output: %w", err)
	}

	return outPath, nil
}
