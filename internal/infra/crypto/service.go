package crypto

import (
	"time"

	"veritas/internal/domain"
)

// Service adapts the package functions to usecase.CryptoService.
type Service struct{}

func (s *Service) NewPayload(user, exam string, timestamp *int64, nonce string) (domain.CanonicalPayload, error) {
	return NewPayload(user, exam, timestamp, nonce)
}

func (s *Service) Canonicalize(payload domain.CanonicalPayload) (string, error) {
	return CanonicalizePayload(payload)
}

func (s *Service) Hash(canonical string) string {
	return HashCanonical(canonical)
}

func (s *Service) CertificateID(hash string, timestamp int64) (string, error) {
	return CertificateID(hash, timestamp)
}

func (s *Service) Sign(certificateID, hash string, timestamp int64, secret []byte) string {
	return Sign(certificateID, hash, timestamp, secret)
}

func (s *Service) VerifySignature(certificateID, hash string, timestamp int64, secret []byte, signature string) bool {
	return VerifySignature(certificateID, hash, timestamp, secret, signature)
}

func (s *Service) SecuritySeed(certificateID, hash string) string {
	return SecuritySeed(certificateID, hash)
}

func (s *Service) SecurityChecksum(certificateID, hash, seed, templateID string) string {
	return SecurityChecksum(certificateID, hash, seed, templateID)
}

func (s *Service) NewSerialNumber(issuedAt time.Time) (string, error) {
	return NewSerialNumber(issuedAt)
}

func (s *Service) NewVerificationCode() (string, error) {
	return NewVerificationCode()
}

func (s *Service) CourseCode(exam string) string {
	return CourseCode(exam)
}

func (s *Service) ValidateRecord(rec domain.CertificateRecord) error {
	return ValidateRecord(rec)
}
