// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mdmend/internal/core/schema"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]interface{}
		wantErr bool
	}{
		{
			name: "full valid config",
			raw: map[string]interface{}{
				"data_dirs":       []interface{}{"data", "raw_data"},
				"data_extensions": []interface{}{".csv", ".json"},
				"loader_calls":    []interface{}{"data.ReadCSV"},
				"skip_blocks":     "block.index > 40",
				"workers":         4,
				"max_print_lines": 200,
				"max_print_bytes": 65536,
				"render_theme":    "dark",
			},
		},
		{
			name: "empty config",
			raw:  map[string]interface{}{},
		},
		{
			name:    "unknown key",
			raw:     map[string]interface{}{"data_dir": []interface{}{"data"}},
			wantErr: true,
		},
		{
			name:    "wrong type",
			raw:     map[string]interface{}{"workers": "four"},
			wantErr: true,
		},
		{
			name:    "workers below minimum",
			raw:     map[string]interface{}{"workers": 0},
			wantErr: true,
		},
		{
			name:    "non-string data dir",
			raw:     map[string]interface{}{"data_dirs": []interface{}{1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateConfig(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReportsOffendingKey(t *testing.T) {
	err := schema.ValidateConfig(map[string]interface{}{"workres": 8})
	assert.ErrorContains(t, err, "workres")
}
