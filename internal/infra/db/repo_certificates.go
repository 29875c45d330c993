package db

import (
	"context"
	"fmt"
	"time"

	"veritas/internal/domain"
	"veritas/internal/usecase"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{db: db, clock: time.Now}
}

func (r *CertificateRepository) Insert(ctx context.Context, rec domain.CertificateRecord) (domain.CertificateRecord, error) {
	if r.db == nil {
		return domain.CertificateRecord{}, errDBUnavailable
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = domain.StatusActive
	}
	rec.CreatedAt = r.clock().UTC()
	model := toCertificateModel(rec)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.CertificateRecord{}, translate(err)
	}
	return fromCertificateModel(model), nil
}

func (r *CertificateRepository) FindByHash(ctx context.Context, hash string) (*domain.CertificateRecord, error) {
	return r.findOne(ctx, "hash = ?", hash)
}

func (r *CertificateRepository) FindByCertificateID(ctx context.Context, certificateID string) (*domain.CertificateRecord, error) {
	return r.findOne(ctx, "certificate_id = ?", certificateID)
}

func (r *CertificateRepository) findOne(ctx context.Context, where string, arg string) (*domain.CertificateRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model CertificateModel
	if err := r.db.WithContext(ctx).Where(where, arg).Take(&model).Error; err != nil {
		return nil, translate(err)
	}
	rec := fromCertificateModel(model)
	return &rec, nil
}

// IncrementVerification bumps the counter in a single statement so
// concurrent verifications never lose an update.
func (r *CertificateRepository) IncrementVerification(ctx context.Context, certificateID string, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var model CertificateModel
	res := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "verification_count"}}}).
		Where("certificate_id = ? AND status = ?", certificateID, string(domain.StatusActive)).
		Updates(map[string]any{
			"verification_count": gorm.Expr("verification_count + 1"),
			"last_verified":      at.UTC(),
		})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return model.VerificationCount, nil
}

// UpdateStatus is a compare-and-set on the status column.
func (r *CertificateRepository) UpdateStatus(ctx context.Context, certificateID string, from, to domain.CertificateStatus) (*domain.CertificateRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&CertificateModel{}).
		Where("certificate_id = ? AND status = ?", certificateID, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := r.FindByCertificateID(ctx, certificateID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: status is %s, expected %s", domain.ErrConflict, current.Status, from)
	}
	return r.FindByCertificateID(ctx, certificateID)
}

func toCertificateModel(rec domain.CertificateRecord) CertificateModel {
	return CertificateModel{
		ID:                rec.ID,
		Hash:              rec.Hash,
		CertificateID:     rec.CertificateID,
		SerialNumber:      rec.SerialNumber,
		VerificationCode:  rec.VerificationCode,
		DigitalSignature:  rec.DigitalSignature,
		CourseCode:        rec.CourseCode,
		TemplateID:        rec.TemplateID,
		SecuritySeed:      rec.SecuritySeed,
		IssuedAt:          rec.IssuedAt.UTC(),
		Status:            string(rec.Status),
		VerificationCount: rec.VerificationCount,
		LastVerified:      rec.LastVerified,
		CreatedAt:         rec.CreatedAt,
	}
}

func fromCertificateModel(m CertificateModel) domain.CertificateRecord {
	rec := domain.CertificateRecord{
		ID:                m.ID,
		Hash:              m.Hash,
		CertificateID:     m.CertificateID,
		SerialNumber:      m.SerialNumber,
		VerificationCode:  m.VerificationCode,
		DigitalSignature:  m.DigitalSignature,
		CourseCode:        m.CourseCode,
		TemplateID:        m.TemplateID,
		SecuritySeed:      m.SecuritySeed,
		IssuedAt:          m.IssuedAt.UTC(),
		Status:            domain.CertificateStatus(m.Status),
		VerificationCount: m.VerificationCount,
		CreatedAt:         m.CreatedAt.UTC(),
	}
	if m.LastVerified != nil {
		t := m.LastVerified.UTC()
		rec.LastVerified = &t
	}
	return rec
}

var _ usecase.CertificateRepository = (*CertificateRepository)(nil)
