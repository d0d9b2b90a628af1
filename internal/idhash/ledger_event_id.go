package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeLedgerEventID computes a deterministic ledger event id using SHA256.
// Formula: SHA256(lower(tx_hash)|log_index)
// Returns hex-encoded hash (64 characters).
func ComputeLedgerEventID(txHash string, logIndex uint) string {
	data := fmt.Sprintf("%s|%d", strings.ToLower(txHash), logIndex)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
