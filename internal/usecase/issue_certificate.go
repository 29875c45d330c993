package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"veritas/internal/domain"
)

const (
	maxNameRunes   = 100
	maxCourseRunes = 200
	maxScale       = 3.0
	insertAttempts = 3
)

type IssueCertificateRequest struct {
	StudentName string
	CourseName  string
	TemplateID  string
	Assets      *domain.UploadedAssets
	Scale       float64
	// Timestamp and Nonce are normally left empty; batch replays pin them.
	Timestamp *int64
	Nonce     string
}

type IssuedCertificate struct {
	Record domain.CertificateRecord
	PDF    []byte
}

type IssueCertificate struct {
	Certificates CertificateRepository
	Crypto       CryptoService
	Templates    TemplateResolver
	Renderer     Renderer
	Assets       AssetInspector
	Metrics      Metrics
	Secret       []byte
}

// Execute persists the record before rendering. A render failure leaves the
// record in place; the certificate can be re-rendered from it.
func (uc *IssueCertificate) Execute(ctx context.Context, req IssueCertificateRequest) (*IssuedCertificate, error) {
	if len(uc.Secret) == 0 {
		return nil, errors.New("signing secret is not configured")
	}
	if err := uc.validate(ctx, &req); err != nil {
		return nil, err
	}
	metrics := metricsOrNoop(uc.Metrics)
	tpl := uc.Templates.Resolve(ctx, req.TemplateID)

	payload, err := uc.Crypto.NewPayload(req.StudentName, req.CourseName, req.Timestamp, req.Nonce)
	if err != nil {
		return nil, err
	}
	canonical, err := uc.Crypto.Canonicalize(payload)
	if err != nil {
		return nil, err
	}
	hash := uc.Crypto.Hash(canonical)
	certID, err := uc.Crypto.CertificateID(hash, payload.Timestamp)
	if err != nil {
		return nil, err
	}
	issuedAt := time.UnixMilli(payload.Timestamp).UTC()
	rec := domain.CertificateRecord{
		Hash:             hash,
		CertificateID:    certID,
		DigitalSignature: uc.Crypto.Sign(certID, hash, payload.Timestamp, uc.Secret),
		CourseCode:       uc.Crypto.CourseCode(payload.Exam),
		TemplateID:       tpl.ID,
		SecuritySeed:     uc.Crypto.SecuritySeed(certID, hash),
		IssuedAt:         issuedAt,
		Status:           domain.StatusActive,
	}

	stored, err := uc.insert(ctx, rec)
	if err != nil {
		return nil, err
	}

	data := domain.CertificateData{
		StudentName:   payload.User,
		CourseName:    payload.Exam,
		IssuedAt:      issuedAt,
		CertificateID: certID,
		SerialNumber:  stored.SerialNumber,
		Hash:          hash,
		SecuritySeed:  stored.SecuritySeed,
		Metadata: domain.EmbeddedMetadata{
			User:             payload.User,
			Exam:             payload.Exam,
			Timestamp:        payload.Timestamp,
			Nonce:            payload.Nonce,
			Version:          payload.Version,
			Issuer:           payload.Issuer,
			Integrity:        payload.Integrity,
			Hash:             hash,
			CanonicalJSON:    canonical,
			CertificateID:    certID,
			SerialNumber:     stored.SerialNumber,
			DigitalSignature: stored.DigitalSignature,
			SecuritySeed:     stored.SecuritySeed,
			TemplateID:       tpl.ID,
		},
	}
	pdf, err := uc.Renderer.Render(ctx, data, tpl.ID, req.Assets, req.Scale)
	if err != nil {
		metrics.RenderFailed()
		if errors.Is(err, domain.ErrRenderFailed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	metrics.CertificateIssued(tpl.ID)
	return &IssuedCertificate{Record: stored, PDF: pdf}, nil
}

// insert retries with fresh serial numbers and verification codes, which are
// random and may collide. A hash collision fails every attempt.
func (uc *IssueCertificate) insert(ctx context.Context, rec domain.CertificateRecord) (domain.CertificateRecord, error) {
	var lastErr error
	for attempt := 0; attempt < insertAttempts; attempt++ {
		serial, err := uc.Crypto.NewSerialNumber(rec.IssuedAt)
		if err != nil {
			return domain.CertificateRecord{}, err
		}
		code, err := uc.Crypto.NewVerificationCode()
		if err != nil {
			return domain.CertificateRecord{}, err
		}
		rec.SerialNumber = serial
		rec.VerificationCode = code
		stored, err := uc.Certificates.Insert(ctx, rec)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return domain.CertificateRecord{}, storeError(err)
		}
		lastErr = err
	}
	return domain.CertificateRecord{}, lastErr
}

func (uc *IssueCertificate) validate(ctx context.Context, req *IssueCertificateRequest) error {
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.CourseName = strings.TrimSpace(req.CourseName)
	req.TemplateID = strings.TrimSpace(req.TemplateID)
	if err := validateText("student name", req.StudentName, maxNameRunes); err != nil {
		return err
	}
	if err := validateText("course name", req.CourseName, maxCourseRunes); err != nil {
		return err
	}
	if req.TemplateID == "" {
		req.TemplateID = "standard"
	}
	if !uc.Templates.Exists(ctx, req.TemplateID) {
		return fmt.Errorf("%w: unknown template %q", domain.ErrInvalidInput, req.TemplateID)
	}
	if req.Scale == 0 {
		req.Scale = 1
	}
	if req.Scale < 0 || req.Scale > maxScale {
		return fmt.Errorf("%w: scale must be in (0, %.0f]", domain.ErrInvalidInput, maxScale)
	}
	if req.Assets != nil && uc.Assets != nil {
		for name, a := range map[string]*domain.Asset{
			"logo":       req.Assets.Logo,
			"signature":  req.Assets.Signature,
			"background": req.Assets.Background,
		} {
			if a.Empty() {
				continue
			}
			mime, err := uc.Assets.Sniff(a.Data)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, name, err)
			}
			a.MimeType = mime
		}
	}
	return nil
}

func validateText(field, value string, maxRunes int) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(value) > maxRunes {
		return fmt.Errorf("%w: %s exceeds %d characters", domain.ErrInvalidInput, field, maxRunes)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %s contains control characters", domain.ErrInvalidInput, field)
		}
	}
	return nil
}

func storeError(err error) error {
	if err == nil || errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrRecordCorrupt) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
