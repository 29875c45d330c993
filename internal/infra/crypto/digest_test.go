package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"veritas/internal/domain"
)

const (
	vectorTimestamp = int64(1700000000000)
	vectorNonce     = "00112233445566778899aabbccddeeff"
	vectorCanonical = `{"exam":"Data Structures 101","integrity":"SHA512-HMAC","issuer":"VERITAS-CERTIFICATE-AUTHORITY","nonce":"00112233445566778899aabbccddeeff","timestamp":1700000000000,"user":"Jane Doe","version":"2.0"}`
	vectorHash      = "072fe8fdc356be3c426190b3de9ecfa477e4228bc7f07f58361d712fc5746dcccabe826791d3b5e2583e4b4da6dec97a7de12f061866be319f1a247a013c5d3e"
	vectorCertID    = "CERT-072F-E8FD-C356-LOYW3V28-ECD7"
	vectorSignature = "c97345d5344704390dbbe088e718914b44796d75367fae4ca337a874aedec9d042aab9ac66ab5a74649886828f2fdfa2e411abcc1693fc86b27850e6b5455ae3"
	vectorSeed      = "4a7f388f"
	vectorChecksum  = "bd0e6e9f962c9e39"
)

func TestCanonicalizeVector(t *testing.T) {
	ts := vectorTimestamp
	canonical, payload, err := Canonicalize("Jane Doe", "Data Structures 101", &ts, vectorNonce)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if canonical != vectorCanonical {
		t.Fatalf("canonical mismatch:\n got %s\nwant %s", canonical, vectorCanonical)
	}
	if payload.Version != domain.ProtocolVersion || payload.Issuer != domain.ProtocolIssuer {
		t.Fatalf("unexpected protocol fields: %+v", payload)
	}
	again, err := CanonicalizePayload(payload)
	if err != nil {
		t.Fatalf("canonicalize payload: %v", err)
	}
	if again != canonical {
		t.Fatal("canonicalization is not deterministic")
	}
}

func TestCanonicalizeKeepsUnicodeUnescaped(t *testing.T) {
	ts := vectorTimestamp
	canonical, _, err := Canonicalize("Jane Doé <QA>", "Data Structures 101", &ts, vectorNonce)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if !strings.Contains(canonical, `"user":"Jane Doé <QA>"`) {
		t.Fatalf("expected raw unicode and angle brackets, got %s", canonical)
	}
}

func TestCanonicalizeDefaults(t *testing.T) {
	before := time.Now().UnixMilli()
	_, a, err := Canonicalize("Jane Doe", "Data Structures 101", nil, "")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	_, b, err := Canonicalize("Jane Doe", "Data Structures 101", nil, "")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if a.Timestamp < before {
		t.Fatalf("timestamp %d before %d", a.Timestamp, before)
	}
	if len(a.Nonce) != 32 || a.Nonce == b.Nonce {
		t.Fatalf("expected distinct 128-bit nonces, got %q and %q", a.Nonce, b.Nonce)
	}
}

func TestCanonicalizeRequiresFields(t *testing.T) {
	if _, _, err := Canonicalize("  ", "Exam", nil, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHashAndIdentityVector(t *testing.T) {
	hash := HashCanonical(vectorCanonical)
	if hash != vectorHash {
		t.Fatalf("hash mismatch: %s", hash)
	}
	id, err := CertificateID(hash, vectorTimestamp)
	if err != nil {
		t.Fatalf("certificate id: %v", err)
	}
	if id != vectorCertID {
		t.Fatalf("certificate id mismatch: %s", id)
	}
	if !ValidCertificateID(id) {
		t.Fatalf("generated id %s does not validate", id)
	}
	if seed := SecuritySeed(id, hash); seed != vectorSeed {
		t.Fatalf("seed mismatch: %s", seed)
	}
	if sum := SecurityChecksum(id, hash, vectorSeed, "standard"); sum != vectorChecksum {
		t.Fatalf("checksum mismatch: %s", sum)
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	sig := Sign(vectorCertID, vectorHash, vectorTimestamp, secret)
	if sig != vectorSignature {
		t.Fatalf("signature mismatch: %s", sig)
	}
	if !VerifySignature(vectorCertID, vectorHash, vectorTimestamp, secret, sig) {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature(vectorCertID, vectorHash, vectorTimestamp+1, secret, sig) {
		t.Fatal("expected signature failure for different timestamp")
	}
	if VerifySignature(vectorCertID, vectorHash, vectorTimestamp, []byte("other"), sig) {
		t.Fatal("expected signature failure for different secret")
	}
	if VerifySignature(vectorCertID, vectorHash, vectorTimestamp, secret, "zz") {
		t.Fatal("expected failure for non-hex signature")
	}
}

func TestCertificateIDRejectsShortHash(t *testing.T) {
	if _, err := CertificateID("abc", vectorTimestamp); err == nil {
		t.Fatal("expected error for short hash")
	}
}

func TestCertificateIDRejectsNegativeTimestamp(t *testing.T) {
	if _, err := CertificateID(vectorHash, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	id, err := CertificateID(vectorHash, 0)
	if err != nil || !ValidCertificateID(id) {
		t.Fatalf("epoch timestamp should give a valid id, got %q %v", id, err)
	}
}

func TestValidateRecord(t *testing.T) {
	rec := domain.CertificateRecord{Hash: vectorHash, CertificateID: vectorCertID, Status: domain.StatusActive}
	if err := ValidateRecord(rec); err != nil {
		t.Fatalf("validate: %v", err)
	}

	short := rec
	short.Hash = vectorHash[:64]
	if err := ValidateRecord(short); !errors.Is(err, domain.ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt for short hash, got %v", err)
	}

	badID := rec
	badID.CertificateID = "CERT-1234"
	if err := ValidateRecord(badID); !errors.Is(err, domain.ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt for bad id, got %v", err)
	}

	badStatus := rec
	badStatus.Status = "EXPIRED"
	if err := ValidateRecord(badStatus); !errors.Is(err, domain.ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt for bad status, got %v", err)
	}
}
