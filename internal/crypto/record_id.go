package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// RecordID maps an entity id to its remote record id:
// hex(SHA256(SHA256(secret) ‖ entityID)). It is deterministic, so the same
// entity always lands on the same record across runs and devices.
func RecordID(secret []byte, entityID string) string {
	keyHash := sha256.Sum256(secret)

	h := sha256.New()
	h.Write(keyHash[:])
	h.Write([]byte(entityID))
	return hex.EncodeToString(h.Sum(nil))
}

// RecordIDs maps entity ids to record ids and returns the reverse index.
func RecordIDs(secret []byte, entityIDs []string) (map[string]string, map[string]string) {
	forward := make(map[string]string, len(entityIDs))
	reverse := make(map[string]string, len(entityIDs))
	for _, id := range entityIDs {
		rid := RecordID(secret, id)
		forward[id] = rid
		reverse[rid] = id
	}
	return forward, reverse
}
