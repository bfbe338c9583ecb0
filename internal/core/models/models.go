// SPDX-License-Identifier: Apache-2.0

package models

// BlockChange records what the repair did to one code block.
type BlockChange struct {
	Index          int    `json:"index" yaml:"index"`
	Label          string `json:"label,omitempty" yaml:"label,omitempty"`
	Disabled       bool   `json:"disabled" yaml:"disabled"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
	PathsRewritten int    `json:"paths_rewritten,omitempty" yaml:"paths_rewritten,omitempty"`
}

// RepairReport summarizes one document repair for the batch caller: enough
// context (document identifier, reason) to continue with the next document
// when something went structurally wrong.
type RepairReport struct {
	Document       string        `json:"document" yaml:"document"`
	Title          string        `json:"title,omitempty" yaml:"title,omitempty"`
	Output         string        `json:"output,omitempty" yaml:"output,omitempty"`
	Backup         string        `json:"backup,omitempty" yaml:"backup,omitempty"`
	Rendered       string        `json:"rendered,omitempty" yaml:"rendered,omitempty"`
	Blocks         int           `json:"blocks" yaml:"blocks"`
	Executed       int           `json:"executed" yaml:"executed"`
	Disabled       int           `json:"disabled" yaml:"disabled"`
	Skipped        int           `json:"skipped" yaml:"skipped"`
	PathsRewritten int           `json:"paths_rewritten" yaml:"paths_rewritten"`
	SetupInjected  bool          `json:"setup_injected" yaml:"setup_injected"`
	Changes        []BlockChange `json:"changes,omitempty" yaml:"changes,omitempty"`
	Error          string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the document repair aborted structurally.
func (r *RepairReport) Failed() bool {
	return r.Error != ""
}

// RepairSummary aggregates a batch run.
type RepairSummary struct {
	Total    int            `json:"total" yaml:"total"`
	Repaired int            `json:"repaired" yaml:"repaired"`
	Failed   int            `json:"failed" yaml:"failed"`
	Reports  []RepairReport `json:"reports" yaml:"reports"`
}

// RepairOptions controls one repair invocation.
type RepairOptions struct {
	// DryRun parses, resolves and previews rewrites but neither executes
	// blocks nor writes any file.
	DryRun bool

	// Stamp inserts a one-line repair marker right after the front
	// matter.
	Stamp bool

	// Render runs the renderer collaborator on the repaired document.
	Render bool

	Verbose bool
}
