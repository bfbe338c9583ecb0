// SPDX-License-Identifier: Apache-2.0

package document

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter parses the YAML between the front-matter markers. Returns nil
// when the document has no header or the YAML does not parse; the header is
// informational and never blocks a repair.
func (d *Document) FrontMatter() map[string]interface{} {
	if d.HeaderLines < 2 {
		return nil
	}

	var lines []string
	for i := 1; i < d.HeaderLines-1 && i < len(d.Segments); i++ {
		lines = append(lines, d.Segments[i].Line)
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &fm); err != nil {
		return nil
	}
	return fm
}

// Title returns the front matter's title value, or "".
func (d *Document) Title() string {
	if v, ok := d.FrontMatter()["title"].(string); ok {
		return v
	}
	return ""
}
