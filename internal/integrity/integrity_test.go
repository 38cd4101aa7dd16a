package integrity

import (
	"strings"
	"testing"
	"time"
)

// sha256 of the empty string, a fixed point of the hash function.
const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestHashDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	if Hash(data) != Hash(data) {
		t.Fatal("same bytes produced different digests")
	}
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Fatal("different bytes produced the same digest")
	}
}

func TestHashEmptyInput(t *testing.T) {
	if got := Hash(nil); got != emptySHA256 {
		t.Errorf("Hash(nil) = %s, want %s", got, emptySHA256)
	}
	if got := Hash([]byte{}); got != emptySHA256 {
		t.Errorf("Hash(empty) = %s, want %s", got, emptySHA256)
	}
}

func TestVerify(t *testing.T) {
	data := []byte("exhibit A")
	digest := Hash(data)

	if !Verify(data, digest) {
		t.Error("Verify rejected a correct digest")
	}
	if Verify(data, "deadbeef") {
		t.Error("Verify accepted a wrong digest")
	}
	// Hex comparison is case-sensitive.
	if upper := strings.ToUpper(digest); upper != digest && Verify(data, upper) {
		t.Error("Verify ignored hex case")
	}
}

func TestMetadataChecksumOrderIndependent(t *testing.T) {
	// Build the same logical map twice with different insertion order.
	m1 := map[string]string{}
	m1["file_name"] = "complaint.pdf"
	m1["uploader"] = "user-7"
	m1["size"] = "1024"

	m2 := map[string]string{}
	m2["size"] = "1024"
	m2["uploader"] = "user-7"
	m2["file_name"] = "complaint.pdf"

	if MetadataChecksum(m1) != MetadataChecksum(m2) {
		t.Error("checksum changed with map insertion order")
	}
}

func TestMetadataChecksumSensitivity(t *testing.T) {
	base := map[string]string{"a": "1", "b": "2"}
	changed := map[string]string{"a": "1", "b": "3"}
	if MetadataChecksum(base) == MetadataChecksum(changed) {
		t.Error("checksum unchanged after value edit")
	}
}

func TestBuildEvidenceRecordStable(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	r1 := BuildEvidenceRecord("abc123", "deed.docx", 2048, "user-1", ts)
	r2 := BuildEvidenceRecord("abc123", "deed.docx", 2048, "user-1", ts)

	if r1.Signature == "" {
		t.Fatal("empty signature")
	}
	if r1.Signature != r2.Signature {
		t.Error("identical inputs produced different signatures")
	}
	if !VerifyEvidenceRecord(r1) {
		t.Error("fresh record failed verification")
	}
}

func TestBuildEvidenceRecordFieldSensitivity(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	base := BuildEvidenceRecord("abc123", "deed.docx", 2048, "user-1", ts)

	variants := []EvidenceRecord{
		BuildEvidenceRecord("abc124", "deed.docx", 2048, "user-1", ts),
		BuildEvidenceRecord("abc123", "deed2.docx", 2048, "user-1", ts),
		BuildEvidenceRecord("abc123", "deed.docx", 2049, "user-1", ts),
		BuildEvidenceRecord("abc123", "deed.docx", 2048, "user-2", ts),
		BuildEvidenceRecord("abc123", "deed.docx", 2048, "user-1", ts.Add(time.Second)),
	}
	for i, v := range variants {
		if v.Signature == base.Signature {
			t.Errorf("variant %d: signature unchanged after field edit", i)
		}
	}
}

func TestEvidenceRecordTamperDetected(t *testing.T) {
	rec := BuildEvidenceRecord("abc123", "deed.docx", 2048, "user-1", time.Now())
	rec.FileName = "forged.docx"
	if VerifyEvidenceRecord(rec) {
		t.Error("tampered record passed verification")
	}
}
