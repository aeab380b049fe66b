package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// The version suffix enables future algorithm migration.
const (
	DomainSchema = "schemaforge/schema/v1"
	DomainPlan   = "schemaforge/plan/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the hex SHA-256 of v's canonical JSON under domain.
// Equal values always produce equal fingerprints regardless of map order.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(domain string, v any) string {
	fp, err := Fingerprint(domain, v)
	if err != nil {
		panic(err)
	}
	return fp
}
