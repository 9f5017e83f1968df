package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

const tokenLength = 16

// Pseudonymizer one-way hashes hardware addresses into short opaque
// tokens for anonymous traffic accounting. The salt comes from
// configuration and must stay stable across runs so tokens remain
// comparable day to day.
type Pseudonymizer struct {
	salt string
}

func NewPseudonymizer(salt string) *Pseudonymizer {
	return &Pseudonymizer{salt: salt}
}

// Token returns a fixed-length hex token. The truncated digest is not
// reversible; the address itself is never logged or transmitted.
func (p *Pseudonymizer) Token(address string) string {
	h := sha256.Sum256([]byte(p.salt + address))
	return hex.EncodeToString(h[:])[:tokenLength]
}
