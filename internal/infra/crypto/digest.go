package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"veritas/internal/domain"
)

const HashHexLength = 128

var (
	certificateIDPattern = regexp.MustCompile(`^CERT-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-Z]+-[0-9A-F]{4}$`)
	hashPattern          = regexp.MustCompile(`^[0-9a-fA-F]{128}$`)
)

// HashCanonical is SHA-512 over the UTF-8 bytes of the canonical string.
// The 128 hex character length is part of the persisted schema.
func HashCanonical(canonical string) string {
	sum := sha512.Sum512([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CertificateID formats CERT-XXXX-XXXX-XXXX-TTTT-CCCC.
func CertificateID(hash string, timestamp int64) (string, error) {
	if len(hash) < 12 {
		return "", errors.New("hash too short for certificate id")
	}
	if timestamp < 0 {
		return "", fmt.Errorf("%w: negative timestamp %d", domain.ErrInvalidInput, timestamp)
	}
	prefix := strings.ToUpper(hash[:12])
	ts := strings.ToUpper(strconv.FormatInt(timestamp, 36))
	check := strings.ToUpper(md5Hex(hash + strconv.FormatInt(timestamp, 10))[:4])
	return fmt.Sprintf("CERT-%s-%s-%s-%s-%s", prefix[0:4], prefix[4:8], prefix[8:12], ts, check), nil
}

func ValidCertificateID(id string) bool {
	return certificateIDPattern.MatchString(id)
}

func ValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// Sign is HMAC-SHA512 over "certificateId:hash:timestamp".
func Sign(certificateID, hash string, timestamp int64, secret []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(signingInput(certificateID, hash, timestamp)))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(certificateID, hash string, timestamp int64, secret []byte, signatureHex string) bool {
	got, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(signingInput(certificateID, hash, timestamp)))
	return hmac.Equal(got, mac.Sum(nil))
}

func signingInput(certificateID, hash string, timestamp int64) string {
	return certificateID + ":" + hash + ":" + strconv.FormatInt(timestamp, 10)
}

// SecuritySeed drives the visual security patterns. It only depends on the
// certificate ID and the first half of the hash so a document can be
// re-rendered identically for audit.
func SecuritySeed(certificateID, hash string) string {
	head := hash
	if len(head) > 32 {
		head = head[:32]
	}
	return md5Hex(certificateID + head)[:8]
}

func SecurityChecksum(certificateID, hash, seed, templateID string) string {
	sum := sha256.Sum256([]byte(certificateID + hash + seed + templateID))
	return hex.EncodeToString(sum[:])[:16]
}

// ValidateRecord rejects records whose identity fields cannot have been
// produced by this protocol version.
func ValidateRecord(rec domain.CertificateRecord) error {
	if !ValidHash(rec.Hash) {
		return fmt.Errorf("%w: hash length %d", domain.ErrRecordCorrupt, len(rec.Hash))
	}
	if !ValidCertificateID(rec.CertificateID) {
		return fmt.Errorf("%w: certificate id %q", domain.ErrRecordCorrupt, rec.CertificateID)
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("%w: status %q", domain.ErrRecordCorrupt, rec.Status)
	}
	return nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
