package activities

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"veritas/internal/domain"
	"veritas/internal/usecase"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

const (
	IssueCertificateActivityName = "IssueCertificate"

	ErrTypeInvalidInput  = "InvalidInput"
	ErrTypeAlreadyExists = "AlreadyExists"
)

// Issuer is satisfied by *usecase.IssueCertificate.
type Issuer interface {
	Execute(ctx context.Context, req usecase.IssueCertificateRequest) (*usecase.IssuedCertificate, error)
}

type Activities struct {
	Issuer    Issuer
	OutputDir string
}

type IssueCertificateInput struct {
	BatchID     string
	Index       int
	StudentName string
	CourseName  string
	TemplateID  string
	Scale       float64
	Timestamp   int64
	Nonce       string
}

type IssueCertificateOutput struct {
	CertificateID    string
	SerialNumber     string
	VerificationCode string
	Path             string
}

func New(issuer Issuer, outputDir string) *Activities {
	return &Activities{Issuer: issuer, OutputDir: outputDir}
}

// IssueCertificate issues one batch entry. Timestamp and nonce come pinned
// from the workflow, so a retry after a successful insert reports
// AlreadyExists instead of minting a second certificate.
func (a *Activities) IssueCertificate(ctx context.Context, input IssueCertificateInput) (IssueCertificateOutput, error) {
	if a == nil || a.Issuer == nil {
		return IssueCertificateOutput{}, fmt.Errorf("issuer not configured")
	}
	logger := activity.GetLogger(ctx)

	ts := input.Timestamp
	issued, err := a.Issuer.Execute(ctx, usecase.IssueCertificateRequest{
		StudentName: input.StudentName,
		CourseName:  input.CourseName,
		TemplateID:  input.TemplateID,
		Scale:       input.Scale,
		Timestamp:   &ts,
		Nonce:       input.Nonce,
	})
	if err != nil {
		return IssueCertificateOutput{}, classify(err)
	}

	out := IssueCertificateOutput{
		CertificateID:    issued.Record.CertificateID,
		SerialNumber:     issued.Record.SerialNumber,
		VerificationCode: issued.Record.VerificationCode,
	}
	if a.OutputDir != "" {
		path, err := a.writePDF(input.BatchID, out.CertificateID, issued.PDF)
		if err != nil {
			return IssueCertificateOutput{}, err
		}
		out.Path = path
	}
	logger.Info("certificate issued", "batch_id", input.BatchID, "index", input.Index, "certificate_id", out.CertificateID)
	return out, nil
}

func (a *Activities) writePDF(batchID, certificateID string, pdf []byte) (string, error) {
	dir := a.OutputDir
	if batchID != "" {
		dir = filepath.Join(dir, filepath.Base(batchID))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, certificateID+".pdf")
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write certificate: %w", err)
	}
	return path, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAsset):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, domain.ErrAlreadyExists):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeAlreadyExists, err)
	}
	return err
}
