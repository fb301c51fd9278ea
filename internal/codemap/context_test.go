package codemap

import (
	"math"
	"testing"
)

const dbFile = "dummy_data/codebase/database_manager.py"

func TestResolveWindow(t *testing.T) {
	r := NewResolver(newTestIndex(t, map[string]string{"database_manager.py": databaseManager()}))

	tests := []struct {
		name      string
		line      int
		wantStart int
		wantEnd   int
	}{
		{"middle", 10, 5, 15},
		{"first line clips at start", 1, 1, 6},
		{"near start", 3, 1, 8},
		{"last line clips at end", 20, 15, 20},
		{"near end", 18, 13, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, ok := r.Resolve(dbFile, tt.line, DefaultRadius)
			if !ok {
				t.Fatal("Expected file to resolve")
			}
			if ctx.StartLine != tt.wantStart || ctx.EndLine != tt.wantEnd {
				t.Errorf("Window = [%d, %d], want [%d, %d]", ctx.StartLine, ctx.EndLine, tt.wantStart, tt.wantEnd)
			}
			if len(ctx.Snippet) != tt.wantEnd-tt.wantStart+1 {
				t.Errorf("Expected %d snippet lines, got %d", tt.wantEnd-tt.wantStart+1, len(ctx.Snippet))
			}

			flagged := 0
			for _, l := range ctx.Snippet {
				if l.IsError {
					flagged++
					if l.LineNum != tt.line {
						t.Errorf("Flagged line %d, want %d", l.LineNum, tt.line)
					}
				}
			}
			if flagged != 1 {
				t.Errorf("Expected exactly one flagged line, got %d", flagged)
			}

			if ctx.Snippet[0].LineNum != tt.wantStart {
				t.Errorf("First snippet line %d, want %d", ctx.Snippet[0].LineNum, tt.wantStart)
			}
		})
	}
}

func TestResolveTrimsTrailingWhitespace(t *testing.T) {
	r := NewResolver(newTestIndex(t, map[string]string{"database_manager.py": databaseManager()}))

	ctx, ok := r.Resolve(dbFile, 10, DefaultRadius)
	if !ok {
		t.Fatal("Expected file to resolve")
	}
	entry, ok := ctx.ErrorEntry()
	if !ok {
		t.Fatal("Expected flagged entry")
	}
	if entry.Content != "line 10" {
		t.Errorf("Expected right-trimmed content %q, got %q", "line 10", entry.Content)
	}
	if ctx.Snippet[0].Content != "    def execute_transaction(self, queries):" {
		t.Errorf("Leading indentation must be kept, got %q", ctx.Snippet[0].Content)
	}
}

func TestResolveMisses(t *testing.T) {
	r := NewResolver(newTestIndex(t, map[string]string{"database_manager.py": databaseManager()}))

	if _, ok := r.Resolve("dummy_data/codebase/missing.py", 1, DefaultRadius); ok {
		t.Error("Expected unknown path to miss")
	}

	ctx, ok := r.Resolve(dbFile, 200, DefaultRadius)
	if !ok {
		t.Fatal("Known path past EOF should still resolve")
	}
	if len(ctx.Snippet) != 0 {
		t.Errorf("Expected empty snippet past EOF, got %d lines", len(ctx.Snippet))
	}

	for _, line := range []int{math.MaxInt, math.MaxInt - 2} {
		ctx, ok = r.Resolve(dbFile, line, DefaultRadius)
		if !ok {
			t.Fatalf("Line %d: known path should still resolve", line)
		}
		if len(ctx.Snippet) != 0 || ctx.EndLine != 20 || ctx.StartLine < ctx.EndLine {
			t.Errorf("Line %d: expected an empty window ending at 20, got [%d, %d] with %d lines",
				line, ctx.StartLine, ctx.EndLine, len(ctx.Snippet))
		}
	}

	ctx, ok = r.Resolve(dbFile, 10, -3)
	if !ok || len(ctx.Snippet) != 1 || !ctx.Snippet[0].IsError {
		t.Errorf("Negative radius should yield the error line only, got %+v", ctx.Snippet)
	}
}

func TestFindDefinition(t *testing.T) {
	source := "class A:\n    def run(self):\n        pass\n\n    def run(self, x):\n        pass\n\ndef runner():\n    pass\n"
	r := NewResolver(newTestIndex(t, map[string]string{
		"database_manager.py": databaseManager(),
		"shadow.py":           source,
	}))

	def, ok := r.FindDefinition(dbFile, "get_connection")
	if !ok {
		t.Fatal("Expected get_connection to be found")
	}
	if def.Line != 12 || def.Definition != "def get_connection(self):" {
		t.Errorf("Unexpected definition: %+v", def)
	}

	// First textual occurrence wins
	def, ok = r.FindDefinition("dummy_data/codebase/shadow.py", "run")
	if !ok || def.Line != 2 {
		t.Errorf("Expected first run() at line 2, got %+v (ok=%v)", def, ok)
	}

	// Exact name only
	def, ok = r.FindDefinition("dummy_data/codebase/shadow.py", "runner")
	if !ok || def.Line != 8 {
		t.Errorf("Expected runner() at line 8, got %+v (ok=%v)", def, ok)
	}
	if _, ok := r.FindDefinition("dummy_data/codebase/shadow.py", "A"); ok {
		t.Error("Class headers are not function definitions")
	}
	if _, ok := r.FindDefinition("dummy_data/codebase/shadow.py", "ru"); ok {
		t.Error("Prefix of a name must not match")
	}

	if _, ok := r.FindDefinition("dummy_data/codebase/missing.py", "run"); ok {
		t.Error("Unknown path must miss")
	}
	if _, ok := r.FindDefinition(dbFile, "a.b(c"); ok {
		t.Error("Regex metacharacters must be quoted")
	}
}
