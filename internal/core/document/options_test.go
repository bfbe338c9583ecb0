// SPDX-License-Identifier: Apache-2.0

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	t.Run("KeyValueAndFlags", func(t *testing.T) {
		ol := ParseOptions("label=setup, eval=false, keep")
		v, ok := ol.Get("label")
		require.True(t, ok)
		assert.Equal(t, "setup", v)
		assert.True(t, ol.Has("keep"))
		assert.Equal(t, "setup", ol.Label())
	})

	t.Run("QuotedValueWithComma", func(t *testing.T) {
		ol := ParseOptions(`caption="a, b", eval=true`)
		v, ok := ol.Get("caption")
		require.True(t, ok)
		assert.Equal(t, `"a, b"`, v)
		val, present := ol.Eval()
		assert.True(t, present)
		assert.True(t, val)
	})

	t.Run("BareLabel", func(t *testing.T) {
		ol := ParseOptions("intro, echo=false")
		assert.Equal(t, "intro", ol.Label())
	})

	t.Run("Empty", func(t *testing.T) {
		ol := ParseOptions("")
		assert.Equal(t, "", ol.String())
		_, present := ol.Eval()
		assert.False(t, present)
	})
}

func TestEvalFlag(t *testing.T) {
	tests := []struct {
		name        string
		options     string
		wantValue   bool
		wantPresent bool
	}{
		{"absent", "label=x", true, false},
		{"lower false", "eval=false", false, true},
		{"upper false", "eval=FALSE", false, true},
		{"mixed case key", "EVAL=False", false, true},
		{"short form", "eval=F", false, true},
		{"true", "eval=true", true, true},
		{"quoted", `eval="false"`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, present := ParseOptions(tt.options).Eval()
			assert.Equal(t, tt.wantValue, val)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestDisableEval(t *testing.T) {
	t.Run("AppendsWhenAbsent", func(t *testing.T) {
		ol := ParseOptions("label=model")
		ol.DisableEval()
		assert.Equal(t, "label=model, eval=false", ol.String())
	})

	t.Run("FlipsInPlace", func(t *testing.T) {
		ol := ParseOptions("eval=true, label=model")
		ol.DisableEval()
		assert.Equal(t, "eval=false, label=model", ol.String())
	})

	t.Run("NoOpWhenAlreadyDisabled", func(t *testing.T) {
		ol := ParseOptions("label=model, eval=FALSE")
		ol.DisableEval()
		// Untouched, so the original casing survives and the flag
		// appears exactly once.
		assert.Equal(t, "label=model, eval=FALSE", ol.String())
	})

	t.Run("NeverDuplicates", func(t *testing.T) {
		ol := ParseOptions("eval=true")
		ol.DisableEval()
		ol.DisableEval()
		assert.Equal(t, "eval=false", ol.String())
	})
}

func TestStringPreservesRawUntilMutation(t *testing.T) {
	raw := "label=x,eval=TRUE,  keep"
	ol := ParseOptions(raw)
	assert.Equal(t, raw, ol.String())

	ol.DisableEval()
	assert.Equal(t, "label=x, eval=false, keep", ol.String())
}
