package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"veritas/internal/domain"
	"veritas/internal/infra/certmem"
	"veritas/internal/infra/stego"
	"veritas/internal/usecase"
)

func issueJane(t *testing.T, h *harness) *usecase.IssuedCertificate {
	t.Helper()
	issued, err := h.issue.Execute(context.Background(), usecase.IssueCertificateRequest{
		StudentName: "Jane Doe",
		CourseName:  "Data Structures 101",
		TemplateID:  "standard",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return issued
}

func TestIssueThenVerify(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)
	if len(issued.PDF) == 0 {
		t.Fatal("expected document bytes")
	}
	if len(issued.Record.Hash) != 128 || !strings.HasPrefix(issued.Record.CertificateID, "CERT-") {
		t.Fatalf("unexpected record %+v", issued.Record)
	}

	for want := int64(1); want <= 2; want++ {
		res, err := h.verify.Execute(context.Background(), issued.PDF)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !res.Valid || res.Reason != domain.ReasonVerified {
			t.Fatalf("expected VERIFIED, got %+v", res)
		}
		if res.Details.CourseCode != "DATASTRUCTURES101" {
			t.Fatalf("unexpected course code %q", res.Details.CourseCode)
		}
		if res.Details.VerificationCount != want {
			t.Fatalf("expected count %d, got %d", want, res.Details.VerificationCount)
		}
		if res.Details.CertificateID != issued.Record.CertificateID || res.Details.SerialNumber != issued.Record.SerialNumber {
			t.Fatalf("details do not come from the record: %+v", res.Details)
		}
	}
}

func TestIssueUsesFreshNonces(t *testing.T) {
	h := newHarness(nil, nil)
	a := issueJane(t, h)
	b := issueJane(t, h)
	if a.Record.Hash == b.Record.Hash || a.Record.CertificateID == b.Record.CertificateID {
		t.Fatal("identical inputs must produce distinct certificates")
	}
}

func TestVerifyDetectsTamperedContent(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)

	embedder := stego.NewTripleEmbedder(210)
	meta, ok := embedder.Extract(string(issued.PDF))
	if !ok {
		t.Fatal("expected metadata in issued document")
	}
	meta.CanonicalJSON = strings.Replace(meta.CanonicalJSON, "Jane Doe", "John Doe", 1)
	forged := &textDoc{}
	if err := embedder.Embed(forged, *meta); err != nil {
		t.Fatalf("embed: %v", err)
	}

	res, err := h.verify.Execute(context.Background(), []byte(forged.b.String()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Valid || res.Reason != domain.ReasonHashMismatch {
		t.Fatalf("expected HASH_MISMATCH, got %+v", res)
	}
	if res.Comparison == nil || res.Comparison.EmbeddedHash != issued.Record.Hash || res.Comparison.RecomputedHash == issued.Record.Hash {
		t.Fatalf("expected hash comparison, got %+v", res.Comparison)
	}
	got, _ := h.store.FindByCertificateID(context.Background(), issued.Record.CertificateID)
	if got.VerificationCount != 0 {
		t.Fatal("failed verification must not be counted")
	}
}

func TestVerifyWithoutMetadata(t *testing.T) {
	h := newHarness(nil, nil)
	res, err := h.verify.Execute(context.Background(), []byte("%PDF-1.4 a scanned certificate"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Valid || res.Reason != domain.ReasonNoMetadata {
		t.Fatalf("expected NO_METADATA_FOUND, got %+v", res)
	}
	if _, err := h.verify.Execute(context.Background(), nil); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestVerifyUnknownRecord(t *testing.T) {
	issuer := newHarness(nil, nil)
	issued := issueJane(t, issuer)

	other := newHarness(nil, nil)
	res, err := other.verify.Execute(context.Background(), issued.PDF)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Valid || res.Reason != domain.ReasonNotFoundOrRevoked {
		t.Fatalf("expected NOT_FOUND_OR_REVOKED, got %+v", res)
	}
}

func TestRevokedCertificateFailsBothPaths(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)
	ctx := context.Background()

	if _, err := h.status.Transition(ctx, issued.Record.CertificateID, domain.StatusRevoked); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	res, err := h.verify.Execute(ctx, issued.PDF)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Valid || res.Reason != domain.ReasonNotFoundOrRevoked {
		t.Fatalf("expected NOT_FOUND_OR_REVOKED, got %+v", res)
	}
	byID, err := h.byID.Execute(ctx, strings.ToLower(issued.Record.CertificateID))
	if err != nil {
		t.Fatalf("verify by id: %v", err)
	}
	if byID.Valid || byID.Reason != domain.ReasonNotFoundOrRevoked {
		t.Fatalf("expected NOT_FOUND_OR_REVOKED by id, got %+v", byID)
	}
	got, _ := h.store.FindByCertificateID(ctx, issued.Record.CertificateID)
	if got.VerificationCount != 0 {
		t.Fatalf("revoked verifications must not be counted, got %d", got.VerificationCount)
	}
}

func TestVerifyByID(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)
	res, err := h.byID.Execute(context.Background(), " "+issued.Record.CertificateID+" ")
	if err != nil {
		t.Fatalf("verify by id: %v", err)
	}
	if !res.Valid || res.Details.VerificationCount != 1 {
		t.Fatalf("expected verified with count 1, got %+v", res)
	}
	res, err = h.byID.Execute(context.Background(), "CERT-0000-0000-0000-0-0000")
	if err != nil || res.Reason != domain.ReasonNotFoundOrRevoked {
		t.Fatalf("expected NOT_FOUND_OR_REVOKED, got %+v %v", res, err)
	}
	if _, err := h.byID.Execute(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStoreFailureIsNotAVerdict(t *testing.T) {
	store := certmem.New()
	repo := &failingRepo{Store: store}
	h := newHarness(repo, store)
	issued := issueJane(t, h)

	repo.findErr = errConnRefused
	res, err := h.verify.Execute(context.Background(), issued.PDF)
	if !errors.Is(err, domain.ErrStoreUnavailable) || res != nil {
		t.Fatalf("expected ErrStoreUnavailable without a result, got %+v %v", res, err)
	}

	repo.findErr = nil
	repo.incrementErr = errConnRefused
	if _, err := h.verify.Execute(context.Background(), issued.PDF); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on increment, got %v", err)
	}
}

func TestCorruptRecordIsAnError(t *testing.T) {
	store := certmem.New()
	repo := &failingRepo{Store: store}
	h := newHarness(repo, store)
	issued := issueJane(t, h)

	repo.corrupt = true
	if _, err := h.verify.Execute(context.Background(), issued.PDF); !errors.Is(err, domain.ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt, got %v", err)
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	h := newHarness(nil, nil)
	cases := map[string]usecase.IssueCertificateRequest{
		"empty name":       {StudentName: " ", CourseName: "Go"},
		"empty course":     {StudentName: "Jane", CourseName: ""},
		"long name":        {StudentName: strings.Repeat("x", 101), CourseName: "Go"},
		"control chars":    {StudentName: "Jane\x00Doe", CourseName: "Go"},
		"unknown template": {StudentName: "Jane", CourseName: "Go", TemplateID: "unknown"},
		"bad scale":        {StudentName: "Jane", CourseName: "Go", Scale: 9},
		"bad asset": {StudentName: "Jane", CourseName: "Go", Assets: &domain.UploadedAssets{
			Logo: &domain.Asset{Data: []byte("<svg/>")},
		}},
	}
	for name, req := range cases {
		if _, err := h.issue.Execute(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if h.store.Len() != 0 || h.renderer.calls != 0 {
		t.Fatal("invalid input must not reach the store or renderer")
	}
}

func TestRenderFailureKeepsRecord(t *testing.T) {
	h := newHarness(nil, nil)
	h.renderer.err = errors.New("font table exhausted")
	_, err := h.issue.Execute(context.Background(), usecase.IssueCertificateRequest{StudentName: "Jane Doe", CourseName: "Go"})
	if !errors.Is(err, domain.ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		t.Fatal("render failures must be distinct from input errors")
	}
	if h.store.Len() != 1 {
		t.Fatalf("expected record to persist, got %d", h.store.Len())
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	h := newHarness(nil, nil)
	h.issue.Secret = nil
	if _, err := h.issue.Execute(context.Background(), usecase.IssueCertificateRequest{StudentName: "Jane", CourseName: "Go"}); err == nil {
		t.Fatal("expected error without signing secret")
	}
}

func TestSignatureCheckIsOptIn(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)

	h.verify.VerifySignature = true
	h.verify.Secret = testSecret
	res, err := h.verify.Execute(context.Background(), issued.PDF)
	if err != nil || !res.Valid {
		t.Fatalf("expected valid signature, got %+v %v", res, err)
	}

	h.verify.Secret = []byte("rotated")
	res, err = h.verify.Execute(context.Background(), issued.PDF)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Valid || res.Reason != domain.ReasonSignatureMismatch {
		t.Fatalf("expected SIGNATURE_MISMATCH, got %+v", res)
	}
	got, err := h.store.FindByCertificateID(context.Background(), issued.Record.CertificateID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.VerificationCount != 1 {
		t.Fatalf("signature mismatch must not be counted, count=%d", got.VerificationCount)
	}
}

func TestVerifySecurityGrades(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)

	res, err := h.security.Execute(context.Background(), issued.PDF)
	if err != nil {
		t.Fatalf("verify security: %v", err)
	}
	if !res.Valid || res.FeaturesPresent != 6 || res.Grade != "A+" || res.Score != 100 || !res.ChecksumValid {
		t.Fatalf("unexpected security result %+v", res)
	}
	if res.PolicyHash != "test-policy" {
		t.Fatalf("expected policy hash, got %q", res.PolicyHash)
	}

	h.renderer.features = map[string]bool{domain.FeatureGuilloche: true, domain.FeatureBorder: true}
	weak := issueJane(t, h)
	res, err = h.security.Execute(context.Background(), weak.PDF)
	if err != nil {
		t.Fatalf("verify security: %v", err)
	}
	if res.Valid || res.Reason != domain.ReasonSecurityBelowFloor {
		t.Fatalf("expected SECURITY_BELOW_THRESHOLD, got %+v", res)
	}
	if res.FeaturesPresent != 2 || len(res.MissingFeatures) != 4 || res.Grade != "D" {
		t.Fatalf("unexpected grading %+v", res)
	}
}

func TestVerifySecurityPolicyFailure(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)
	h.security.Policy = gradePolicy{err: errors.New("rego: undefined")}
	if _, err := h.security.Execute(context.Background(), issued.PDF); !errors.Is(err, domain.ErrPolicyFailed) {
		t.Fatalf("expected ErrPolicyFailed, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	h := newHarness(nil, nil)
	issued := issueJane(t, h)
	ctx := context.Background()
	id := issued.Record.CertificateID

	steps := []struct {
		to      domain.CertificateStatus
		wantErr error
	}{
		{domain.StatusSuspended, nil},
		{domain.StatusActive, nil},
		{domain.StatusActive, nil},
		{domain.StatusRevoked, nil},
		{domain.StatusActive, domain.ErrInvalidInput},
		{"EXPIRED", domain.ErrInvalidInput},
	}
	for i, step := range steps {
		rec, err := h.status.Transition(ctx, id, step.to)
		if step.wantErr != nil {
			if !errors.Is(err, step.wantErr) {
				t.Fatalf("step %d: expected %v, got %v", i, step.wantErr, err)
			}
			continue
		}
		if err != nil || rec.Status != step.to {
			t.Fatalf("step %d: %+v %v", i, rec, err)
		}
	}
	if _, err := h.status.Transition(ctx, "CERT-NOPE", domain.StatusRevoked); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReinstateLosesToConcurrentRevoke(t *testing.T) {
	store := certmem.New()
	repo := &racingRepo{Store: store}
	h := newHarness(repo, store)
	issued := issueJane(t, h)
	ctx := context.Background()
	id := issued.Record.CertificateID

	if _, err := h.status.Transition(ctx, id, domain.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	repo.interleave = func() {
		if _, err := store.UpdateStatus(ctx, id, domain.StatusSuspended, domain.StatusRevoked); err != nil {
			t.Fatalf("concurrent revoke: %v", err)
		}
	}
	if _, err := h.status.Transition(ctx, id, domain.StatusActive); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected reinstate to be refused after revoke, got %v", err)
	}
	got, err := store.FindByCertificateID(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != domain.StatusRevoked {
		t.Fatalf("revocation was overwritten: %s", got.Status)
	}
}
