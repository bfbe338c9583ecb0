// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// ProcessString renders a template string with the given parameters. Missing
// keys are an error so a bad parameter set fails loudly instead of emitting
// "<no value>" into a document.
func ProcessString(text string, params map[string]interface{}) (string, error) {
	tmpl, err := template.New("template").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("error parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("error executing template: %w", err)
	}

	return buf.String(), nil
}

// ProcessLines renders a template and splits the result into lines, for
// content that gets spliced into a document line sequence.
func ProcessLines(text string, params map[string]interface{}) ([]string, error) {
	out, err := ProcessString(text, params)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil
}
