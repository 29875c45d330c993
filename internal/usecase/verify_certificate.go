package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"veritas/internal/domain"
)

const (
	msgVerified       = "Certificate is authentic and active"
	msgNoMetadata     = "No verification metadata found in document"
	msgHashMismatch   = "Document content does not match its embedded hash"
	msgNotFound       = "Certificate not found or has been revoked"
	msgSignatureCheck = "Certificate signature does not match the issued record"
)

// VerifyCertificate checks an uploaded document: embedded metadata, then the
// recomputed hash, then the persisted record.
type VerifyCertificate struct {
	Certificates CertificateRepository
	Crypto       CryptoService
	Extractor    TextExtractor
	Metadata     MetadataExtractor
	Metrics      Metrics
	Now          func() time.Time
	// Secret enables signature re-derivation against the record when set.
	Secret          []byte
	VerifySignature bool
}

type documentCheck struct {
	result domain.VerificationResult
	meta   *domain.EmbeddedMetadata
	record *domain.CertificateRecord
}

func (uc *VerifyCertificate) Execute(ctx context.Context, doc []byte) (*domain.VerificationResult, error) {
	check, err := uc.check(ctx, doc)
	if err != nil {
		return nil, err
	}
	metricsOrNoop(uc.Metrics).VerificationCompleted("document", check.result.Reason)
	return &check.result, nil
}

func (uc *VerifyCertificate) check(ctx context.Context, doc []byte) (*documentCheck, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidDocument)
	}
	text, err := uc.Extractor.Text(doc)
	if err != nil {
		return nil, err
	}
	meta, ok := uc.Metadata.Extract(text)
	if !ok {
		return &documentCheck{result: rejected(domain.ReasonNoMetadata, msgNoMetadata)}, nil
	}

	out := &documentCheck{meta: meta}
	recomputed := uc.Crypto.Hash(meta.CanonicalJSON)
	if !strings.EqualFold(meta.Hash, recomputed) {
		out.result = rejected(domain.ReasonHashMismatch, msgHashMismatch)
		out.result.Comparison = &domain.HashComparison{
			EmbeddedHash:   meta.Hash,
			RecomputedHash: recomputed,
			CanonicalJSON:  meta.CanonicalJSON,
		}
		return out, nil
	}

	rec, err := uc.Certificates.FindByHash(ctx, recomputed)
	if errors.Is(err, domain.ErrNotFound) {
		out.result = rejected(domain.ReasonNotFoundOrRevoked, msgNotFound)
		return out, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	out.record = rec

	if uc.VerifySignature && rec.Status == domain.StatusActive && !uc.signatureMatches(rec, meta) {
		if err := uc.Crypto.ValidateRecord(*rec); err != nil {
			return nil, err
		}
		// rejected before counting
		out.result = rejected(domain.ReasonSignatureMismatch, msgSignatureCheck)
		return out, nil
	}
	result, err := confirmRecord(ctx, uc.Certificates, uc.Crypto, uc.now(), rec)
	if err != nil {
		return nil, err
	}
	out.result = result
	return out, nil
}

func (uc *VerifyCertificate) signatureMatches(rec *domain.CertificateRecord, meta *domain.EmbeddedMetadata) bool {
	if len(uc.Secret) == 0 {
		return false
	}
	if !uc.Crypto.VerifySignature(rec.CertificateID, rec.Hash, rec.IssuedAtMillis(), uc.Secret, rec.DigitalSignature) {
		return false
	}
	return meta.DigitalSignature == "" || meta.DigitalSignature == rec.DigitalSignature
}

func (uc *VerifyCertificate) now() time.Time {
	if uc.Now == nil {
		return time.Now().UTC()
	}
	return uc.Now()
}

// confirmRecord validates the stored record, requires ACTIVE and bumps the
// verification counter. Only ACTIVE records are counted.
func confirmRecord(ctx context.Context, repo CertificateRepository, crypto CryptoService, now time.Time, rec *domain.CertificateRecord) (domain.VerificationResult, error) {
	if err := crypto.ValidateRecord(*rec); err != nil {
		return domain.VerificationResult{}, err
	}
	if rec.Status != domain.StatusActive {
		return rejected(domain.ReasonNotFoundOrRevoked, msgNotFound), nil
	}
	count, err := repo.IncrementVerification(ctx, rec.CertificateID, now)
	if errors.Is(err, domain.ErrNotFound) {
		// revoked between the lookup and the update
		return rejected(domain.ReasonNotFoundOrRevoked, msgNotFound), nil
	}
	if err != nil {
		return domain.VerificationResult{}, storeError(err)
	}
	rec.VerificationCount = count
	rec.LastVerified = &now
	return domain.VerificationResult{
		Valid:   true,
		Reason:  domain.ReasonVerified,
		Message: msgVerified,
		Details: details(rec),
	}, nil
}

func details(rec *domain.CertificateRecord) *domain.CertificateDetails {
	return &domain.CertificateDetails{
		CertificateID:     rec.CertificateID,
		CourseCode:        rec.CourseCode,
		IssueDate:         rec.IssuedAt.UTC().Format(time.RFC3339),
		SerialNumber:      rec.SerialNumber,
		Status:            rec.Status,
		VerificationCount: rec.VerificationCount,
	}
}

func rejected(reason domain.VerificationReason, message string) domain.VerificationResult {
	return domain.VerificationResult{Valid: false, Reason: reason, Message: message}
}
