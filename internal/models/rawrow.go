package models

import "fmt"

// RawRow is a source-native row before schema mapping. Field names are the
// source's own column names; values arrive as string, float64 or time.Time
// depending on what the driver delivered. Rows are transient and discarded
// once mapped.
type RawRow struct {
	Origin     string
	SourceFile string
	// Key is the row's natural key within its source (document number,
	// sheet row reference). Combined with Origin it yields the stable
	// transaction id.
	Key    string
	Fields map[string]any
}

// Ref returns a human-readable reference for report entries.
func (r *RawRow) Ref() string {
	return fmt.Sprintf("%s[%s] %s", r.Origin, r.SourceFile, r.Key)
}

// String looks up a field and renders it as a string, empty when absent.
func (r *RawRow) String(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
