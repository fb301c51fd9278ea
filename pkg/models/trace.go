package models

// MappingStatus tags the variant of a CodeMapping.
type MappingStatus string

const (
	// MappingStatusMapped means at least one stack frame was found.
	MappingStatusMapped MappingStatus = "mapped"

	// MappingStatusNoStackTrace means the text contained no frames.
	MappingStatusNoStackTrace MappingStatus = "no_stack_trace"
)

// NoStackTraceReason is the reason carried by the no-trace variant.
const NoStackTraceReason = "No stack trace found in log"

// UnknownErrorMessage is used when no "Error:"/"Exception:" line is present.
const UnknownErrorMessage = "Unknown error"

// StackFrame is one File/line entry parsed from a traceback.
type StackFrame struct {
	File         string `json:"file"`
	Line         int    `json:"line"`
	Function     string `json:"function,omitempty"`
	OriginalPath string `json:"original_path"`
}

// CodeLine is a single line within a context window.
type CodeLine struct {
	LineNum int    `json:"line_num"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// CodeContext is a window of source lines around a failing line.
type CodeContext struct {
	File      string     `json:"file"`
	ErrorLine int        `json:"error_line"`
	Snippet   []CodeLine `json:"snippet"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`

	// Function is attached by the mapper from the originating frame.
	Function string `json:"function,omitempty"`
}

// ErrorEntry returns the flagged line of the window, if the window contains it.
func (c CodeContext) ErrorEntry() (CodeLine, bool) {
	for _, l := range c.Snippet {
		if l.IsError {
			return l, true
		}
	}
	return CodeLine{}, false
}

// Definition is the location of a function definition in an indexed file.
type Definition struct {
	File       string `json:"file"`
	Function   string `json:"function"`
	Line       int    `json:"line"`
	Definition string `json:"definition"`
}

// RootCause points at the deepest frame of a trace.
type RootCause struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function,omitempty"`
}

// CodeMapping is the result of mapping a log blob onto the source tree.
//
// When Status is MappingStatusNoStackTrace, Error holds the reason,
// RootCause is nil and both slices are empty.
type CodeMapping struct {
	Status       MappingStatus `json:"status"`
	Error        string        `json:"error,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ErrorType    string        `json:"error_type,omitempty"`
	StackTrace   []StackFrame  `json:"stack_trace"`
	CodeContexts []CodeContext `json:"code_contexts"`
	RootCause    *RootCause    `json:"root_cause,omitempty"`
}

// Found reports whether the mapping carries a stack trace.
func (m CodeMapping) Found() bool {
	return m.Status == MappingStatusMapped
}

// NoStackTrace returns the explicit no-trace variant.
func NoStackTrace() CodeMapping {
	return CodeMapping{
		Status:       MappingStatusNoStackTrace,
		Error:        NoStackTraceReason,
		StackTrace:   []StackFrame{},
		CodeContexts: []CodeContext{},
	}
}
