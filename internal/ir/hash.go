package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCandidateSet = "spinpick/candidate-set/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content hash of the set's ordered (id, title) pairs.
// Payloads are excluded: they are presentation data and may be enriched later
// without changing the identity of a reveal's source set.
func (s CandidateSet) Fingerprint() (string, error) {
	items := make([]any, len(s))
	for i, c := range s {
		items[i] = map[string]any{
			"id":    c.ID,
			"title": c.Title,
		}
	}

	canonical, err := MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainCandidateSet, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Candidate IDs and titles are strings, so marshaling cannot fail in practice.
func (s CandidateSet) MustFingerprint() string {
	fp, err := s.Fingerprint()
	if err != nil {
		panic(err)
	}
	return fp
}
