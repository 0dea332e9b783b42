package idhash

import "testing"

func TestComputeSnapshotID(t *testing.T) {
	tests := []struct {
		name    string
		runID   string
		tokenID string
	}{
		{"typical", "4f9c2d1e-8b7a-4c3d-9e2f-1a2b3c4d5e6f", "123456"},
		{"empty token", "4f9c2d1e-8b7a-4c3d-9e2f-1a2b3c4d5e6f", ""},
		{"empty run", "", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSnapshotID(tt.runID, tt.tokenID)
			if len(got) != 64 {
				t.Errorf("ComputeSnapshotID() length = %d, want 64", len(got))
			}
		})
	}
}

func TestComputeSnapshotID_Deterministic(t *testing.T) {
	a := ComputeSnapshotID("run-1", "42")
	b := ComputeSnapshotID("run-1", "42")
	if a != b {
		t.Errorf("ComputeSnapshotID not deterministic: %s != %s", a, b)
	}
}

func TestComputeSnapshotID_DifferentInputs(t *testing.T) {
	base := ComputeSnapshotID("run-1", "42")

	if ComputeSnapshotID("run-2", "42") == base {
		t.Error("different run should produce different ID")
	}
	if ComputeSnapshotID("run-1", "43") == base {
		t.Error("different token should produce different ID")
	}
	// Separator keeps ("ab","c") and ("a","bc") apart
	if ComputeSnapshotID("ab", "c") == ComputeSnapshotID("a", "bc") {
		t.Error("field boundaries should affect the ID")
	}
}
