package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key hashes the JSON encoding of parts into a stable hex key. Parts must be
// JSON-encodable; struct field order makes the encoding deterministic.
func Key(parts ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
