// Package integrity provides the content-addressable hashing and
// chain-of-custody primitives used by the intake pipeline. Everything here
// is a pure function of its inputs: no I/O, no clock access, no failure
// modes for well-formed byte input. Hashing empty input yields the
// well-known SHA-256-of-empty value, which is valid, not an error.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Hash returns the SHA-256 digest of data, hex-encoded.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest of data and compares it to expected.
// The comparison is an exact, case-sensitive match on the hex encoding.
func Verify(data []byte, expected string) bool {
	return Hash(data) == expected
}

// MetadataChecksum hashes a key-value map in canonical form. Keys are
// sorted before serialization, so two maps with identical pairs produce
// identical checksums regardless of insertion order.
func MetadataChecksum(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
	}
	return Hash([]byte(sb.String()))
}

// EvidenceRecord is an immutable provenance artifact asserting who uploaded
// what bytes when. It is a derivation, not a stored entity: verification
// compares a stored record against a freshly computed one.
type EvidenceRecord struct {
	FileHash   string `json:"file_hash"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	UploaderID string `json:"uploader_id"`
	Timestamp  string `json:"timestamp"`
	Signature  string `json:"signature"`
}

// BuildEvidenceRecord assembles an evidence record and signs it. The
// signature is the canonical checksum of the record body; the signature
// field itself is excluded from the signed payload. Given identical inputs
// (including the timestamp) the signature is reproducible.
func BuildEvidenceRecord(fileHash, fileName string, fileSize int64, uploaderID string, ts time.Time) EvidenceRecord {
	rec := EvidenceRecord{
		FileHash:   fileHash,
		FileName:   fileName,
		FileSize:   fileSize,
		UploaderID: uploaderID,
		Timestamp:  ts.UTC().Format(time.RFC3339),
	}
	rec.Signature = signEvidence(rec)
	return rec
}

// VerifyEvidenceRecord reports whether the record's signature matches its
// body. Any single-field change invalidates the signature.
func VerifyEvidenceRecord(rec EvidenceRecord) bool {
	return signEvidence(rec) == rec.Signature
}

func signEvidence(rec EvidenceRecord) string {
	return MetadataChecksum(map[string]string{
		"file_hash":   rec.FileHash,
		"file_name":   rec.FileName,
		"file_size":   strconv.FormatInt(rec.FileSize, 10),
		"uploader_id": rec.UploaderID,
		"timestamp":   rec.Timestamp,
	})
}
