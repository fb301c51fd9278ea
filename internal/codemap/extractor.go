// Package codemap maps tracebacks found in log text onto an indexed codebase.
package codemap

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fidde/rootcause/pkg/models"
)

// DefaultDeployRoot is the runtime path prefix stripped from frame paths.
const DefaultDeployRoot = "/app/"

// framePattern matches: File "/app/x.py", line 91, in execute_transaction
var framePattern = regexp.MustCompile(`File "([^"]+)", line (\d+)(?:, in (.+))?`)

// Extractor parses stack frames out of free text.
type Extractor struct {
	deployRoot string
}

// NewExtractor creates an extractor that strips deployRoot from the start of
// every frame path. An empty deployRoot leaves paths untouched.
func NewExtractor(deployRoot string) *Extractor {
	return &Extractor{deployRoot: deployRoot}
}

// ExtractStackTrace returns every frame in the order it appears in text.
// Frames are neither deduplicated nor reordered. Line numbers below 1 are
// not frames; numbers too large for an int are clamped to math.MaxInt.
func (e *Extractor) ExtractStackTrace(text string) []models.StackFrame {
	matches := framePattern.FindAllStringSubmatch(text, -1)
	frames := make([]models.StackFrame, 0, len(matches))

	for _, m := range matches {
		line, err := strconv.Atoi(m[2])
		if errors.Is(err, strconv.ErrRange) {
			// keep the frame so the root cause stays put; it resolves to no lines
			line = math.MaxInt
		} else if err != nil || line < 1 {
			continue
		}

		frames = append(frames, models.StackFrame{
			File:         e.normalizePath(m[1]),
			Line:         line,
			Function:     strings.TrimRight(m[3], "\r"),
			OriginalPath: m[1],
		})
	}

	return frames
}

// normalizePath collapses a runtime path onto the index key space.
func (e *Extractor) normalizePath(path string) string {
	if e.deployRoot == "" {
		return path
	}
	return strings.TrimPrefix(path, e.deployRoot)
}
