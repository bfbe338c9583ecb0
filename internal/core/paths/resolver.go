// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Mapping maps a bare data filename (no directory component) to one resolved
// absolute location.
type Mapping map[string]string

// DefaultExtensions is the recognized data-file extension allow-list.
// Matching is case-sensitive against this list plus its upper-case variants,
// so "scores.CSV" resolves but "scores.Csv" does not.
var DefaultExtensions = []string{
	"csv", "tsv", "txt", "rds", "rda", "xlsx", "xls", "json", "xml",
	"feather", "parquet", "sav", "dta", "sas7bdat", "qs",
}

// BuildMapping scans the candidate directories in order and maps each data
// filename to its absolute path. Directories are listed non-recursively.
// Earlier directories win: a filename seen in a later directory never
// overwrites an existing entry, which keeps the mapping consistent with the
// first-match lookup order used everywhere else.
//
// A candidate directory that does not exist is skipped silently; zero
// matches yields an empty mapping. Both are normal, not errors.
func BuildMapping(candidateDirs []string, extensions []string) Mapping {
	allowed := extensionSet(extensions)
	mapping := make(Mapping)

	for _, dir := range candidateDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		// ReadDir returns entries sorted by name, but sort again so
		// determinism does not hinge on that contract.
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			ext := strings.TrimPrefix(filepath.Ext(name), ".")
			if !allowed[ext] {
				continue
			}
			if _, exists := mapping[name]; exists {
				continue
			}
			abs, err := filepath.Abs(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			mapping[name] = abs
		}
	}

	return mapping
}

// extensionSet expands the allow-list with upper-case variants for exact,
// case-sensitive membership tests.
func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions)*2)
	for _, ext := range extensions {
		set[ext] = true
		set[strings.ToUpper(ext)] = true
	}
	return set
}

// BareName returns the last path component of a literal, splitting on both
// separator styles because authors write either.
func BareName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
