package bundle

import "testing"

func TestParseSections(t *testing.T) {
	reply := `Here is the analysis.

**Root Cause**: A deadlock between two transactions updating accounts in opposite order.
It happened in execute_transaction.
**Impact**: Payments failed for 3 minutes.
**technical details** Lock ordering was not enforced.
**Immediate Fix**:
Restart the stuck workers.
**Prevention**: Order row locks by account number.
**Monitoring**: Alert on deadlock count > 0.`

	got := ParseSections(reply)

	want := Sections{
		RootCause:        "A deadlock between two transactions updating accounts in opposite order.\nIt happened in execute_transaction.",
		Impact:           "Payments failed for 3 minutes.",
		TechnicalDetails: "Lock ordering was not enforced.",
		ImmediateFix:     "Restart the stuck workers.",
		Prevention:       "Order row locks by account number.",
		Monitoring:       "Alert on deadlock count > 0.",
	}
	if got != want {
		t.Errorf("ParseSections mismatch:\n got: %+v\nwant: %+v", got, want)
	}
	if got.AffectedComponents != "" {
		t.Errorf("Missing heading should stay empty, got %q", got.AffectedComponents)
	}
}

func TestParseSectionsEmpty(t *testing.T) {
	if got := ParseSections(""); got != (Sections{}) {
		t.Errorf("Expected zero Sections, got %+v", got)
	}
}
