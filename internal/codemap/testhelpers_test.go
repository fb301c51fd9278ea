package codemap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fidde/rootcause/internal/sourceindex"
)

// databaseManager is a 20-line fixture; line N reads "line N".
// Lines 5 and 12 are function definitions.
func databaseManager() string {
	var b strings.Builder
	for i := 1; i <= 20; i++ {
		switch i {
		case 5:
			b.WriteString("    def execute_transaction(self, queries):\n")
		case 12:
			b.WriteString("    def get_connection(self):\n")
		default:
			fmt.Fprintf(&b, "line %d   \n", i)
		}
	}
	return b.String()
}

// newTestIndex writes files under <tmp>/dummy_data/codebase and indexes them.
func newTestIndex(t *testing.T, files map[string]string) *sourceindex.Index {
	t.Helper()

	codebase := filepath.Join(t.TempDir(), "dummy_data", "codebase")
	if err := os.MkdirAll(codebase, 0755); err != nil {
		t.Fatalf("Failed to create codebase dir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(codebase, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	idx, err := sourceindex.New(codebase, sourceindex.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	return idx
}
