package codemap

import (
	"regexp"
	"strings"

	"github.com/fidde/rootcause/internal/sourceindex"
	"github.com/fidde/rootcause/pkg/models"
)

// errorPattern matches the first "SomethingError: message" style line.
var errorPattern = regexp.MustCompile(`(Exception|Error): (.+?)(?:\n|$)`)

// Mapper turns raw log text into a CodeMapping.
// It holds no mutable state and is safe for concurrent use.
type Mapper struct {
	index     *sourceindex.Index
	extractor *Extractor
	resolver  *Resolver
	radius    int
}

// MapperOption configures NewMapper.
type MapperOption func(*Mapper)

// WithDeployRoot sets the runtime path prefix stripped from frames.
func WithDeployRoot(prefix string) MapperOption {
	return func(m *Mapper) {
		m.extractor = NewExtractor(prefix)
	}
}

// WithRadius sets the context window radius.
func WithRadius(radius int) MapperOption {
	return func(m *Mapper) {
		m.radius = radius
	}
}

// NewMapper creates a mapper over index.
func NewMapper(index *sourceindex.Index, opts ...MapperOption) *Mapper {
	m := &Mapper{
		index:     index,
		extractor: NewExtractor(DefaultDeployRoot),
		resolver:  NewResolver(index),
		radius:    DefaultRadius,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map extracts the stack trace from text and resolves each frame.
//
// Frames whose file is not indexed are skipped, so CodeContexts may be
// shorter than StackTrace. The root cause is the last frame.
func (m *Mapper) Map(text string) models.CodeMapping {
	frames := m.extractor.ExtractStackTrace(text)
	if len(frames) == 0 {
		return models.NoStackTrace()
	}

	contexts := make([]models.CodeContext, 0, len(frames))
	for _, f := range frames {
		ctx, ok := m.resolver.Resolve(f.File, f.Line, m.radius)
		if !ok {
			continue
		}
		ctx.Function = f.Function
		contexts = append(contexts, ctx)
	}

	last := frames[len(frames)-1]
	return models.CodeMapping{
		Status:       models.MappingStatusMapped,
		ErrorMessage: extractErrorMessage(text),
		ErrorType:    extractErrorType(text),
		StackTrace:   frames,
		CodeContexts: contexts,
		RootCause: &models.RootCause{
			File:     last.File,
			Line:     last.Line,
			Function: last.Function,
		},
	}
}

// extractErrorMessage returns the first error line, or UnknownErrorMessage.
func extractErrorMessage(text string) string {
	match := errorPattern.FindString(text)
	if match == "" {
		return models.UnknownErrorMessage
	}
	return strings.TrimRight(match, "\r\n")
}

// extractErrorType returns the full exception class of the first error line,
// e.g. "psycopg2.OperationalError", or "" when there is none.
func extractErrorType(text string) string {
	loc := errorPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return ""
	}
	// the pattern only matches the class suffix; widen to the whole token
	start := strings.LastIndexAny(text[:loc[0]], " \t\r\n\"'(") + 1
	return text[start:loc[3]]
}

// ExtractStackTrace exposes the mapper's frame parser.
func (m *Mapper) ExtractStackTrace(text string) []models.StackFrame {
	return m.extractor.ExtractStackTrace(text)
}

// Resolve returns a context window using the mapper's radius.
func (m *Mapper) Resolve(path string, line int) (models.CodeContext, bool) {
	return m.resolver.Resolve(path, line, m.radius)
}

// FindDefinition looks up a function header in an indexed file.
func (m *Mapper) FindDefinition(path, name string) (models.Definition, bool) {
	return m.resolver.FindDefinition(path, name)
}

// Files lists every indexed path.
func (m *Mapper) Files() []string {
	return m.index.Paths()
}

// FileCount returns the number of indexed files.
func (m *Mapper) FileCount() int {
	return m.index.Len()
}

// FileContent returns the full text of an indexed file.
func (m *Mapper) FileContent(path string) (string, bool) {
	return m.index.Content(path)
}
