package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"veritas/internal/domain"

	"github.com/gowebpki/jcs"
)

// NewPayload builds the semantic object that gets hashed. A nil timestamp means
// "now" in milliseconds and an empty nonce draws 128 fresh random bits.
func NewPayload(user, exam string, timestamp *int64, nonce string) (domain.CanonicalPayload, error) {
	user = strings.TrimSpace(user)
	exam = strings.TrimSpace(exam)
	if user == "" || exam == "" {
		return domain.CanonicalPayload{}, fmt.Errorf("%w: user and exam are required", domain.ErrInvalidInput)
	}
	ts := time.Now().UnixMilli()
	if timestamp != nil {
		ts = *timestamp
	}
	if nonce == "" {
		n, err := newNonce()
		if err != nil {
			return domain.CanonicalPayload{}, err
		}
		nonce = n
	}
	return domain.CanonicalPayload{
		User:      user,
		Exam:      exam,
		Timestamp: ts,
		Nonce:     nonce,
		Version:   domain.ProtocolVersion,
		Issuer:    domain.ProtocolIssuer,
		Integrity: domain.ProtocolIntegrity,
	}, nil
}

// CanonicalizePayload serializes the payload with RFC 8785 rules: keys sorted,
// minimal string escaping, ES6 number formatting. The output is the exact byte
// sequence that gets hashed.
func CanonicalizePayload(p domain.CanonicalPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	return string(out), nil
}

// Canonicalize is NewPayload followed by CanonicalizePayload.
func Canonicalize(user, exam string, timestamp *int64, nonce string) (string, domain.CanonicalPayload, error) {
	p, err := NewPayload(user, exam, timestamp, nonce)
	if err != nil {
		return "", domain.CanonicalPayload{}, err
	}
	s, err := CanonicalizePayload(p)
	if err != nil {
		return "", domain.CanonicalPayload{}, err
	}
	return s, p, nil
}

// CanonicalizeJSON re-canonicalizes arbitrary JSON, used when a verifier wants
// to check an embedded canonical string is itself in canonical form.
func CanonicalizeJSON(input []byte) ([]byte, error) {
	out, err := jcs.Transform(input)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return out, nil
}

func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
