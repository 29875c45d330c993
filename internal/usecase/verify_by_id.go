package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"veritas/internal/domain"
)

// VerifyByID is the lookup path behind the QR code. It never sees the
// document, so it can only confirm the record exists and is ACTIVE.
type VerifyByID struct {
	Certificates CertificateRepository
	Crypto       CryptoService
	Metrics      Metrics
	Now          func() time.Time
}

func (uc *VerifyByID) Execute(ctx context.Context, certificateID string) (*domain.VerificationResult, error) {
	certificateID = strings.ToUpper(strings.TrimSpace(certificateID))
	if certificateID == "" {
		return nil, fmt.Errorf("%w: certificate id is required", domain.ErrInvalidInput)
	}
	result, err := uc.lookup(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	metricsOrNoop(uc.Metrics).VerificationCompleted("id", result.Reason)
	return &result, nil
}

func (uc *VerifyByID) lookup(ctx context.Context, certificateID string) (domain.VerificationResult, error) {
	rec, err := uc.Certificates.FindByCertificateID(ctx, certificateID)
	if errors.Is(err, domain.ErrNotFound) {
		return rejected(domain.ReasonNotFoundOrRevoked, msgNotFound), nil
	}
	if err != nil {
		return domain.VerificationResult{}, storeError(err)
	}
	now := time.Now().UTC()
	if uc.Now != nil {
		now = uc.Now()
	}
	return confirmRecord(ctx, uc.Certificates, uc.Crypto, now, rec)
}
