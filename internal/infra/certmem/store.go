package certmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"veritas/internal/domain"
	"veritas/internal/usecase"

	"github.com/google/uuid"
)

// Store keeps certificate records in memory with the same uniqueness rules
// as the Postgres schema. It backs no-db mode, the CLI and tests.
type Store struct {
	mu       sync.RWMutex
	clock    func() time.Time
	byID     map[string]*domain.CertificateRecord
	byHash   map[string]string
	bySerial map[string]string
	byCode   map[string]string
}

func New() *Store {
	return NewWithClock(nil)
}

func NewWithClock(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		clock:    clock,
		byID:     make(map[string]*domain.CertificateRecord),
		byHash:   make(map[string]string),
		bySerial: make(map[string]string),
		byCode:   make(map[string]string),
	}
}

func (s *Store) Insert(_ context.Context, rec domain.CertificateRecord) (domain.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.CertificateID]; ok {
		return domain.CertificateRecord{}, fmt.Errorf("%w: certificate id", domain.ErrAlreadyExists)
	}
	if _, ok := s.byHash[rec.Hash]; ok {
		return domain.CertificateRecord{}, fmt.Errorf("%w: hash", domain.ErrAlreadyExists)
	}
	if _, ok := s.bySerial[rec.SerialNumber]; ok {
		return domain.CertificateRecord{}, fmt.Errorf("%w: serial number", domain.ErrAlreadyExists)
	}
	if _, ok := s.byCode[rec.VerificationCode]; ok && rec.VerificationCode != "" {
		return domain.CertificateRecord{}, fmt.Errorf("%w: verification code", domain.ErrAlreadyExists)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = domain.StatusActive
	}
	rec.CreatedAt = s.clock().UTC()
	stored := rec
	s.byID[rec.CertificateID] = &stored
	s.byHash[rec.Hash] = rec.CertificateID
	s.bySerial[rec.SerialNumber] = rec.CertificateID
	if rec.VerificationCode != "" {
		s.byCode[rec.VerificationCode] = rec.CertificateID
	}
	return rec, nil
}

func (s *Store) FindByHash(_ context.Context, hash string) (*domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.copyOf(id)
}

func (s *Store) FindByCertificateID(_ context.Context, certificateID string) (*domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(certificateID)
}

func (s *Store) IncrementVerification(_ context.Context, certificateID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[certificateID]
	if !ok || rec.Status != domain.StatusActive {
		return 0, domain.ErrNotFound
	}
	rec.VerificationCount++
	t := at.UTC()
	rec.LastVerified = &t
	return rec.VerificationCount, nil
}

func (s *Store) UpdateStatus(_ context.Context, certificateID string, from, to domain.CertificateStatus) (*domain.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[certificateID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if rec.Status != from {
		return nil, fmt.Errorf("%w: status is %s, expected %s", domain.ErrConflict, rec.Status, from)
	}
	rec.Status = to
	return s.copyOf(certificateID)
}

// Len is the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) copyOf(certificateID string) (*domain.CertificateRecord, error) {
	rec, ok := s.byID[certificateID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rec
	if rec.LastVerified != nil {
		t := *rec.LastVerified
		out.LastVerified = &t
	}
	return &out, nil
}

var _ usecase.CertificateRepository = (*Store)(nil)
