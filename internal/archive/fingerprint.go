package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint computes the tamper-evidence digest over a raw snapshot. It is
// computed once at build time over the pre-anonymization data and never
// recomputed afterward; once expiration rewrites the snapshots it attests the
// original data, not the current blobs.
//
// The encoding is canonical: struct fields marshal in declared order and
// encoding/json sorts map keys, so identical snapshots always produce
// identical digests. This is tamper evidence against accidental corruption,
// not a security credential.
func Fingerprint(snapshot Snapshot) (string, error) {
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	digest := sha256.Sum256(encoded)
	return hex.EncodeToString(digest[:]), nil
}
