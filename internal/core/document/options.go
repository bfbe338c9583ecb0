// SPDX-License-Identifier: Apache-2.0

package document

import "strings"

// Option is one entry of a block's option string: either key=value or a
// bare flag (Value empty, HasValue false).
type Option struct {
	Key      string
	Value    string
	HasValue bool
}

// OptionList models the comma-separated option string of a code block as an
// ordered structure. Mutations happen on the structured form and the text is
// serialized back on output, so differently cased or spaced flags never get
// duplicated by string surgery.
type OptionList struct {
	opts []Option

	// raw is the option text as captured from the open fence; it is
	// emitted verbatim until the first mutation so untouched blocks
	// round-trip byte-identically.
	raw   string
	dirty bool
}

// ParseOptions parses the free-form option string captured from an open
// fence. Commas inside quoted values do not split entries.
func ParseOptions(s string) *OptionList {
	ol := &OptionList{raw: strings.TrimSpace(s)}
	for _, part := range splitOptions(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.Index(part, "="); eq >= 0 {
			ol.opts = append(ol.opts, Option{
				Key:      strings.TrimSpace(part[:eq]),
				Value:    strings.TrimSpace(part[eq+1:]),
				HasValue: true,
			})
		} else {
			ol.opts = append(ol.opts, Option{Key: part})
		}
	}
	return ol
}

// splitOptions splits on commas that are outside double-quoted values.
func splitOptions(s string) []string {
	var parts []string
	var buf strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			buf.WriteByte(c)
		case c == ',' && !inQuote:
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	parts = append(parts, buf.String())
	return parts
}

// Get returns the value for key (case-insensitive key match).
func (ol *OptionList) Get(key string) (string, bool) {
	for _, o := range ol.opts {
		if strings.EqualFold(o.Key, key) && o.HasValue {
			return o.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present, as key=value or bare flag.
func (ol *OptionList) Has(key string) bool {
	for _, o := range ol.opts {
		if strings.EqualFold(o.Key, key) {
			return true
		}
	}
	return false
}

// Set replaces the value of an existing key in place, preserving its
// position, or appends the pair when the key is absent.
func (ol *OptionList) Set(key, value string) {
	ol.dirty = true
	for i, o := range ol.opts {
		if strings.EqualFold(o.Key, key) {
			ol.opts[i].Value = value
			ol.opts[i].HasValue = true
			return
		}
	}
	ol.opts = append(ol.opts, Option{Key: key, Value: value, HasValue: true})
}

// Label returns the block's label: the label= option if present, otherwise
// the first bare flag, otherwise "".
func (ol *OptionList) Label() string {
	if v, ok := ol.Get("label"); ok {
		return strings.Trim(v, `"`)
	}
	for _, o := range ol.opts {
		if !o.HasValue {
			return o.Key
		}
	}
	return ""
}

// Eval reports the block's eval option: the parsed value and whether the
// option is present at all. Casing of both key and value is ignored, so
// eval=FALSE and EVAL=false behave the same.
func (ol *OptionList) Eval() (value bool, present bool) {
	v, ok := ol.Get("eval")
	if !ok {
		return true, false
	}
	switch strings.ToLower(strings.Trim(v, `"`)) {
	case "false", "f", "no", "0":
		return false, true
	default:
		return true, true
	}
}

// DisableEval marks the block do-not-execute. An existing eval option is
// flipped in place; otherwise eval=false is appended. Calling it on a block
// already disabled is a no-op, so the flag never appears twice.
func (ol *OptionList) DisableEval() {
	if v, present := ol.Eval(); present && !v {
		return
	}
	ol.Set("eval", "false")
}

// IsTrue reports whether key is present with a truthy value ("true", "t",
// "yes", "1", any casing).
func (ol *OptionList) IsTrue(key string) bool {
	v, ok := ol.Get(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.Trim(v, `"`)) {
	case "true", "t", "yes", "1":
		return true
	}
	return false
}

// IsFalse reports whether key is present with a falsy value.
func (ol *OptionList) IsFalse(key string) bool {
	v, ok := ol.Get(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.Trim(v, `"`)) {
	case "false", "f", "no", "0":
		return true
	}
	return false
}

// Mutated reports whether the list has been structurally changed since it
// was parsed.
func (ol *OptionList) Mutated() bool {
	return ol.dirty
}

// String serializes the option list back to option-string text. Unmutated
// lists return the captured text verbatim.
func (ol *OptionList) String() string {
	if !ol.dirty {
		return ol.raw
	}
	var parts []string
	for _, o := range ol.opts {
		if o.HasValue {
			parts = append(parts, o.Key+"="+o.Value)
		} else {
			parts = append(parts, o.Key)
		}
	}
	return strings.Join(parts, ", ")
}
