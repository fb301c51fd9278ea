package codemap

import (
	"regexp"
	"strings"

	"github.com/fidde/rootcause/internal/sourceindex"
	"github.com/fidde/rootcause/pkg/models"
)

// DefaultRadius is the number of lines shown on each side of an error line.
const DefaultRadius = 5

// Resolver builds context windows from an index.
type Resolver struct {
	index *sourceindex.Index
}

// NewResolver creates a resolver over index.
func NewResolver(index *sourceindex.Index) *Resolver {
	return &Resolver{index: index}
}

// Resolve returns the lines around line (1-indexed) in path, clipped to the
// file bounds. It returns false when path is not indexed.
func (r *Resolver) Resolve(path string, line, radius int) (models.CodeContext, bool) {
	lines, ok := r.index.Lines(path)
	if !ok {
		return models.CodeContext{}, false
	}
	if radius < 0 {
		radius = 0
	}

	// 0-indexed half-open window; compare before adding so huge lines
	// cannot wrap around
	end := len(lines)
	if line < len(lines)-radius {
		end = line + radius
	}
	start := min(max(0, line-radius-1), end)

	snippet := make([]models.CodeLine, 0, max(0, end-start))
	for i := start; i < end; i++ {
		snippet = append(snippet, models.CodeLine{
			LineNum: i + 1,
			Content: strings.TrimRight(lines[i], " \t\r\n\v\f"),
			IsError: i == line-1,
		})
	}

	return models.CodeContext{
		File:      path,
		ErrorLine: line,
		Snippet:   snippet,
		StartLine: start + 1,
		EndLine:   end,
	}, true
}

// FindDefinition returns the first "def <name>(" line in path.
//
// Only the first textual occurrence is reported; methods or nested functions
// sharing a name later in the file are not considered.
func (r *Resolver) FindDefinition(path, name string) (models.Definition, bool) {
	lines, ok := r.index.Lines(path)
	if !ok || name == "" {
		return models.Definition{}, false
	}

	pattern := regexp.MustCompile(`^\s*def ` + regexp.QuoteMeta(name) + `\s*\(`)
	for i, l := range lines {
		if pattern.MatchString(l) {
			return models.Definition{
				File:       path,
				Function:   name,
				Line:       i + 1,
				Definition: strings.TrimSpace(l),
			}, true
		}
	}

	return models.Definition{}, false
}
