package codemap

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fidde/rootcause/pkg/models"
)

const sampleTrace = `2024-10-17 09:15:45,145 ERROR [payment_service.py:44] Transaction failed
Traceback (most recent call last):
  File "/app/dummy_data/codebase/payment_service.py", line 42, in process_payment
    self.handler.transfer(src, dst, amount)
  File "/app/dummy_data/codebase/transaction_handler.py", line 67, in transfer
    self.db.execute_transaction(queries)
  File "/app/dummy_data/codebase/database_manager.py", line 91, in execute_transaction
    raise Exception("Lock wait timeout exceeded")
Exception: Lock wait timeout exceeded; try restarting transaction
`

func TestExtractStackTrace(t *testing.T) {
	e := NewExtractor(DefaultDeployRoot)

	got := e.ExtractStackTrace(sampleTrace)
	want := []models.StackFrame{
		{
			File:         "dummy_data/codebase/payment_service.py",
			Line:         42,
			Function:     "process_payment",
			OriginalPath: "/app/dummy_data/codebase/payment_service.py",
		},
		{
			File:         "dummy_data/codebase/transaction_handler.py",
			Line:         67,
			Function:     "transfer",
			OriginalPath: "/app/dummy_data/codebase/transaction_handler.py",
		},
		{
			File:         "dummy_data/codebase/database_manager.py",
			Line:         91,
			Function:     "execute_transaction",
			OriginalPath: "/app/dummy_data/codebase/database_manager.py",
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractStackTrace mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractStackTraceEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []models.StackFrame
	}{
		{
			name: "no frames",
			text: "2024-10-17 09:15:45,145 INFO all good",
			want: []models.StackFrame{},
		},
		{
			name: "frame without function",
			text: `File "/app/x.py", line 3`,
			want: []models.StackFrame{{File: "x.py", Line: 3, OriginalPath: "/app/x.py"}},
		},
		{
			name: "path outside deploy root",
			text: `File "/usr/lib/python3.9/site-packages/requests/api.py", line 119, in post`,
			want: []models.StackFrame{{
				File:         "/usr/lib/python3.9/site-packages/requests/api.py",
				Line:         119,
				Function:     "post",
				OriginalPath: "/usr/lib/python3.9/site-packages/requests/api.py",
			}},
		},
		{
			name: "prefix only stripped at start",
			text: `File "/srv/app/x.py", line 1, in f`,
			want: []models.StackFrame{{File: "/srv/app/x.py", Line: 1, Function: "f", OriginalPath: "/srv/app/x.py"}},
		},
		{
			name: "duplicates kept in order",
			text: "File \"/app/a.py\", line 1, in f\nFile \"/app/a.py\", line 1, in f\r\n",
			want: []models.StackFrame{
				{File: "a.py", Line: 1, Function: "f", OriginalPath: "/app/a.py"},
				{File: "a.py", Line: 1, Function: "f", OriginalPath: "/app/a.py"},
			},
		},
		{
			name: "overflowing line number clamped",
			text: `File "/app/a.py", line 99999999999999999999999, in f`,
			want: []models.StackFrame{{File: "a.py", Line: math.MaxInt, Function: "f", OriginalPath: "/app/a.py"}},
		},
		{
			name: "line zero is not a frame",
			text: "File \"/app/a.py\", line 0, in f\nFile \"/app/b.py\", line 00, in g",
			want: []models.StackFrame{},
		},
	}

	e := NewExtractor(DefaultDeployRoot)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractStackTrace(tt.text)
			if got == nil {
				t.Fatal("ExtractStackTrace returned nil slice")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractStackTraceNoDeployRoot(t *testing.T) {
	frames := NewExtractor("").ExtractStackTrace(`File "/app/x.py", line 3, in f`)
	if len(frames) != 1 || frames[0].File != "/app/x.py" {
		t.Errorf("Expected unmodified path, got %+v", frames)
	}
}
