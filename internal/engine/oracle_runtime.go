// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"

	"mdmend/internal/core/paths"
)

// dataSymbols builds the "data" package bound into the interpreter. Loaders
// panic on failure, notebook style: the panic surfaces as a failed
// submission and the block gets disabled with the message.
func dataSymbols(mapping paths.Mapping, dataDir string) interp.Exports {
	resolve := func(name string) string {
		bare := paths.BareName(name)
		if abs, ok := mapping[bare]; ok {
			return abs
		}
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dataDir, bare)
	}

	readFile := func(name string) []byte {
		b, err := os.ReadFile(resolve(name))
		if err != nil {
			panic(fmt.Sprintf("data: %v", err))
		}
		return b
	}

	readDelim := func(name string, sep rune) [][]string {
		r := csv.NewReader(bytes.NewReader(readFile(name)))
		r.Comma = sep
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			panic(fmt.Sprintf("data: %s: %v", name, err))
		}
		return rows
	}

	unsupported := func(format string) func(string) []byte {
		return func(name string) []byte {
			panic(fmt.Sprintf("data: %s: %s files are not supported by the repair sandbox", name, format))
		}
	}

	return interp.Exports{
		"data/data": {
			"Path": reflect.ValueOf(func(name string) string { return resolve(name) }),
			"Load": reflect.ValueOf(readFile),
			"ReadCSV": reflect.ValueOf(func(name string) [][]string {
				return readDelim(name, ',')
			}),
			"ReadTSV": reflect.ValueOf(func(name string) [][]string {
				return readDelim(name, '\t')
			}),
			"ReadDelim": reflect.ValueOf(func(name string, sep string) [][]string {
				if sep == "" {
					panic("data: ReadDelim: empty separator")
				}
				return readDelim(name, []rune(sep)[0])
			}),
			"ReadTable": reflect.ValueOf(func(name string) [][]string {
				var rows [][]string
				for _, line := range strings.Split(string(readFile(name)), "\n") {
					if strings.TrimSpace(line) == "" {
						continue
					}
					rows = append(rows, strings.Fields(line))
				}
				return rows
			}),
			"ReadLines": reflect.ValueOf(func(name string) []string {
				return strings.Split(strings.TrimRight(string(readFile(name)), "\n"), "\n")
			}),
			"ReadJSON": reflect.ValueOf(func(name string) interface{} {
				var v interface{}
				if err := json.Unmarshal(readFile(name), &v); err != nil {
					panic(fmt.Sprintf("data: %s: %v", name, err))
				}
				return v
			}),
			"ReadXML": reflect.ValueOf(func(name string) string {
				return string(readFile(name))
			}),
			// Binary analytics formats need readers this sandbox does
			// not ship; a block touching them fails with a clear
			// message and gets disabled.
			"ReadExcel":   reflect.ValueOf(unsupported("xlsx")),
			"ReadXLSX":    reflect.ValueOf(unsupported("xlsx")),
			"ReadParquet": reflect.ValueOf(unsupported("parquet")),
			"ReadFeather": reflect.ValueOf(unsupported("feather")),
			"ReadRDS":     reflect.ValueOf(unsupported("rds")),
			"ReadRData":   reflect.ValueOf(unsupported("rda")),
			"ReadSAV":     reflect.ValueOf(unsupported("sav")),
			"ReadDTA":     reflect.ValueOf(unsupported("dta")),
			"ReadSAS":     reflect.ValueOf(unsupported("sas7bdat")),
			"ReadQS":      reflect.ValueOf(unsupported("qs")),
		},
	}
}

// docSymbols builds the "doc" output-governance package. The injected setup
// statements call these to cap printed output for the whole document.
func docSymbols(w *cappedWriter) interp.Exports {
	return interp.Exports{
		"doc/doc": {
			"MaxPrintLines": reflect.ValueOf(w.SetMaxLines),
			"MaxPrintBytes": reflect.ValueOf(w.SetMaxBytes),
		},
	}
}

const (
	defaultMaxPrintLines = 1000
	defaultMaxPrintBytes = 1 << 20
)

// cappedWriter captures interpreter stdout/stderr and stops recording once
// the configured line or byte budget is exhausted. Limits persist across
// blocks; the captured buffer resets per submission.
type cappedWriter struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	maxLines  int
	maxBytes  int
	lines     int
	truncated bool
}

func newCappedWriter() *cappedWriter {
	return &cappedWriter{maxLines: defaultMaxPrintLines, maxBytes: defaultMaxPrintBytes}
}

func (w *cappedWriter) SetMaxLines(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maxLines = n
}

func (w *cappedWriter) SetMaxBytes(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maxBytes = n
}

func (w *cappedWriter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Reset()
	w.lines = 0
	w.truncated = false
}

func (w *cappedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// Write always reports the full length as written so interpreted code never
// sees a short-write error; over-budget output is simply dropped.
func (w *cappedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.truncated {
		return len(p), nil
	}
	if w.buf.Len()+len(p) > w.maxBytes || w.lines+bytes.Count(p, []byte{'\n'}) > w.maxLines {
		w.truncated = true
		w.buf.WriteString("\n... [output truncated]\n")
		return len(p), nil
	}

	w.lines += bytes.Count(p, []byte{'\n'})
	w.buf.Write(p)
	return len(p), nil
}
