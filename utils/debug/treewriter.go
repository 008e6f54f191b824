// Package debug contains helpers producing human readable dumps of editor
// state for logs and debug reports.
package debug

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

const indentUnit = "  "

// TreeWriter accumulates indented lines, one per tree node or attribute.
type TreeWriter struct {
	sb *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{sb: new(strings.Builder)}
}

func (tw *TreeWriter) String() string {
	return tw.sb.String()
}

func (tw *TreeWriter) writeLine(depth int, parts ...string) {
	tw.sb.WriteString(strings.Repeat(indentUnit, depth))
	for _, p := range parts {
		tw.sb.WriteString(p)
	}
	tw.sb.WriteByte('\n')
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.writeLine(depth, fmt.Sprintf(format, args...))
}

// TextBlock writes label followed by quoted value, empty values are left
// unquoted.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.writeLine(depth, label, ": ", quote(value))
}

// Map writes label and all key/value pairs on a single line, keys in natural
// order so "col10" follows "col9". Nothing is written for empty maps.
func (tw *TreeWriter) Map(depth int, label string, kv map[string]string) {
	if len(kv) == 0 {
		return
	}
	keys := slices.Collect(maps.Keys(kv))
	sort.Slice(keys, func(i, j int) bool { return natural.Less(keys[i], keys[j]) })

	pairs := []string{label, ":"}
	for _, k := range keys {
		pairs = append(pairs, " ", k, "=", quote(kv[k]))
	}
	tw.writeLine(depth, pairs...)
}

func quote(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
