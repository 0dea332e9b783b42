package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(run_id|token_id)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(runID, tokenID string) string {
	data := fmt.Sprintf("%s|%s", runID, tokenID)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
