package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// OperatorKeySet holds the configured operator API keys. Keys are stored as
// SHA-256 digests so lookups can use a constant-time comparison without
// keeping the plaintext around.
type OperatorKeySet struct {
	digests [][]byte
}

// NewOperatorKeySet builds a key set from plaintext API keys.
func NewOperatorKeySet(keys []string) *OperatorKeySet {
	s := &OperatorKeySet{digests: make([][]byte, 0, len(keys))}
	for _, k := range keys {
		if k == "" {
			continue
		}
		d := sha256.Sum256([]byte(k))
		s.digests = append(s.digests, d[:])
	}
	return s
}

// Contains reports whether the presented key matches any configured key.
// Every stored digest is compared so the timing does not depend on which
// key matched.
func (s *OperatorKeySet) Contains(presented string) bool {
	d := sha256.Sum256([]byte(presented))
	matched := false
	for _, stored := range s.digests {
		if hmac.Equal(stored, d[:]) {
			matched = true
		}
	}
	return matched
}

// Len returns the number of configured keys.
func (s *OperatorKeySet) Len() int {
	return len(s.digests)
}

// String returns a redacted representation suitable for logging.
func (s *OperatorKeySet) String() string {
	return fmt.Sprintf("OperatorKeySet{keys=%d}", len(s.digests))
}
