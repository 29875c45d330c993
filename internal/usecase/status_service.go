package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"veritas/internal/domain"
)

// StatusService is the only writer of certificate status after issuance.
type StatusService struct {
	Certificates CertificateRepository
}

func NewStatusService(certificates CertificateRepository) *StatusService {
	return &StatusService{Certificates: certificates}
}

const maxTransitionAttempts = 3

var allowedTransitions = map[domain.CertificateStatus][]domain.CertificateStatus{
	domain.StatusActive:    {domain.StatusSuspended, domain.StatusRevoked},
	domain.StatusSuspended: {domain.StatusActive, domain.StatusRevoked},
}

// Transition moves a certificate to status. REVOKED is terminal and a
// transition to the current status is a no-op.
func (s *StatusService) Transition(ctx context.Context, certificateID string, status domain.CertificateStatus) (*domain.CertificateRecord, error) {
	if s == nil || s.Certificates == nil {
		return nil, errors.New("certificate repository is required")
	}
	certificateID = strings.ToUpper(strings.TrimSpace(certificateID))
	if certificateID == "" {
		return nil, fmt.Errorf("%w: certificate id is required", domain.ErrInvalidInput)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	// A concurrent writer makes UpdateStatus report a conflict; the move is
	// then re-checked against the status that won.
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		rec, err := s.Certificates.FindByCertificateID(ctx, certificateID)
		if err != nil {
			return nil, repoError(err)
		}
		if rec.Status == status {
			return rec, nil
		}
		if !transitionAllowed(rec.Status, status) {
			return nil, fmt.Errorf("%w: cannot move %s certificate to %s", domain.ErrInvalidInput, rec.Status, status)
		}
		updated, err := s.Certificates.UpdateStatus(ctx, certificateID, rec.Status, status)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, repoError(err)
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: status of %s keeps changing", domain.ErrConflict, certificateID)
}

func repoError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return storeError(err)
}

func transitionAllowed(from, to domain.CertificateStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
