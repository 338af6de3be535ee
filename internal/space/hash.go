package space

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	domainConfig = "sieve/config/v1"
	domainSpace  = "sieve/space/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a configuration.
//
// The fingerprint is stable across process restarts: it depends only on the
// canonical JSON of the parameter assignments, not on trial order, sampling
// seed, or wall-clock time. The result store keys resume lookups on it.
func Fingerprint(cfg Configuration) (string, error) {
	canonical, err := MarshalConfig(cfg)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(domainConfig, canonical), nil
}

// SpaceFingerprint computes the content-addressed identity of a search
// space's declarations. Used to detect resuming a store against a different
// space than the one that produced it.
func SpaceFingerprint(s *Space) (string, error) {
	canonical, err := MarshalSpace(s)
	if err != nil {
		return "", fmt.Errorf("space fingerprint: %w", err)
	}
	return hashWithDomain(domainSpace, canonical), nil
}
