package syntax

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainOutput = "entangle/output/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OutputHash computes the content-addressed identity of rendered source.
// The text is NFC normalized first so that equivalent identifier spellings
// hash identically.
func OutputHash(source string) string {
	return hashWithDomain(DomainOutput, []byte(norm.NFC.String(source)))
}
