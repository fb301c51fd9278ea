// Package models defines the data structures produced and consumed by the
// analysis engines.
//
// Every type in this package is a plain value with JSON tags so that API
// handlers, the CLI and the prompt builder can render results without
// reshaping them.
package models

// SourceFile is one fully loaded file of the indexed codebase.
type SourceFile struct {
	// Path is the slash-separated key relative to the project root,
	// e.g. "dummy_data/codebase/database_manager.py".
	Path string `json:"path"`

	// Content is the full file text.
	Content string `json:"content"`

	// Lines holds the raw lines without terminators. Line N is Lines[N-1].
	Lines []string `json:"-"`
}

// LineCount returns the number of lines in the file.
func (f SourceFile) LineCount() int {
	return len(f.Lines)
}
