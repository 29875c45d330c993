package usecase

import (
	"context"
	"time"

	"veritas/internal/domain"
)

// CertificateRepository returns domain.ErrNotFound for missing records and
// domain.ErrAlreadyExists when a unique column collides. IncrementVerification
// only counts ACTIVE records and reports any other as not found. UpdateStatus
// only applies while the record still has status from and returns
// domain.ErrConflict otherwise.
type CertificateRepository interface {
	Insert(ctx context.Context, rec domain.CertificateRecord) (domain.CertificateRecord, error)
	FindByHash(ctx context.Context, hash string) (*domain.CertificateRecord, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*domain.CertificateRecord, error)
	IncrementVerification(ctx context.Context, certificateID string, at time.Time) (int64, error)
	UpdateStatus(ctx context.Context, certificateID string, from, to domain.CertificateStatus) (*domain.CertificateRecord, error)
}

type CryptoService interface {
	NewPayload(user, exam string, timestamp *int64, nonce string) (domain.CanonicalPayload, error)
	Canonicalize(payload domain.CanonicalPayload) (string, error)
	Hash(canonical string) string
	CertificateID(hash string, timestamp int64) (string, error)
	Sign(certificateID, hash string, timestamp int64, secret []byte) string
	VerifySignature(certificateID, hash string, timestamp int64, secret []byte, signature string) bool
	SecuritySeed(certificateID, hash string) string
	SecurityChecksum(certificateID, hash, seed, templateID string) string
	NewSerialNumber(issuedAt time.Time) (string, error)
	NewVerificationCode() (string, error)
	CourseCode(exam string) string
	ValidateRecord(rec domain.CertificateRecord) error
}

type Renderer interface {
	Render(ctx context.Context, data domain.CertificateData, templateID string, assets *domain.UploadedAssets, scale float64) ([]byte, error)
}

type TemplateResolver interface {
	Resolve(ctx context.Context, id string) domain.Template
	Exists(ctx context.Context, id string) bool
}

type AssetInspector interface {
	Sniff(data []byte) (string, error)
}

type TextExtractor interface {
	Text(doc []byte) (string, error)
}

type MetadataExtractor interface {
	Extract(text string) (*domain.EmbeddedMetadata, bool)
}

type SecurityPolicy interface {
	Evaluate(ctx context.Context, input domain.SecurityPolicyInput) (domain.SecurityPolicyEvaluation, error)
}

type Metrics interface {
	CertificateIssued(templateID string)
	RenderFailed()
	VerificationCompleted(kind string, reason domain.VerificationReason)
}

type noopMetrics struct{}

func (noopMetrics) CertificateIssued(string) {}
func (noopMetrics) RenderFailed() {}
func (noopMetrics) VerificationCompleted(string, domain.VerificationReason) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
