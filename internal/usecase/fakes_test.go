package usecase_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"veritas/internal/domain"
	"veritas/internal/infra/certmem"
	"veritas/internal/infra/crypto"
	"veritas/internal/infra/stego"
	"veritas/internal/usecase"
)

var testSecret = []byte("unit-test-secret")

type textDoc struct {
	b strings.Builder
}

func (d *textDoc) HiddenText(_, _ float64, s string) {
	d.b.WriteString(s)
}

// textRenderer produces a "document" that is just its text layer.
type textRenderer struct {
	embedder *stego.TripleEmbedder
	features map[string]bool
	err      error
	calls    int
}

func newTextRenderer() *textRenderer {
	features := map[string]bool{}
	for _, name := range domain.SecurityFeatureNames() {
		features[name] = true
	}
	return &textRenderer{embedder: stego.NewTripleEmbedder(210), features: features}
}

func (r *textRenderer) Render(_ context.Context, data domain.CertificateData, templateID string, _ *domain.UploadedAssets, _ float64) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	meta := data.Metadata
	meta.TemplateID = templateID
	meta.SecurityFeatures = r.features
	meta.SecurityChecksum = crypto.SecurityChecksum(data.CertificateID, data.Hash, data.SecuritySeed, templateID)
	doc := &textDoc{}
	doc.b.WriteString("This certifies that " + data.StudentName + " has successfully completed " + data.CourseName)
	if err := r.embedder.Embed(doc, meta); err != nil {
		return nil, err
	}
	return []byte(doc.b.String()), nil
}

type textExtractor struct{}

func (textExtractor) Text(doc []byte) (string, error) {
	return string(doc), nil
}

type fakeTemplates struct{}

func (fakeTemplates) Resolve(_ context.Context, id string) domain.Template {
	if id == "" || id == "unknown" {
		id = "standard"
	}
	return domain.Template{ID: id, Name: strings.ToUpper(id[:1]) + id[1:]}
}

func (fakeTemplates) Exists(_ context.Context, id string) bool {
	switch id {
	case "standard", "modern", "classic":
		return true
	}
	return false
}

type sniffer struct{}

func (sniffer) Sniff(data []byte) (string, error) {
	if strings.HasPrefix(string(data), "\x89PNG") {
		return "image/png", nil
	}
	return "", domain.ErrInvalidAsset
}

// gradePolicy grades on the same thresholds as the bundled rego module.
type gradePolicy struct {
	err error
}

func (p gradePolicy) Evaluate(_ context.Context, in domain.SecurityPolicyInput) (domain.SecurityPolicyEvaluation, error) {
	if p.err != nil {
		return domain.SecurityPolicyEvaluation{}, p.err
	}
	score := 0
	if in.FeaturesTotal > 0 {
		score = (100*in.FeaturesPresent + in.FeaturesTotal/2) / in.FeaturesTotal
	}
	grade := "F"
	switch {
	case score == 100:
		grade = "A+"
	case score >= 83:
		grade = "A"
	case score >= 66:
		grade = "B"
	case score >= 50:
		grade = "C"
	case score >= 33:
		grade = "D"
	}
	allow := in.HashValid && in.RecordActive && in.ChecksumValid && in.FeaturesPresent >= in.MinFeatures
	return domain.SecurityPolicyEvaluation{
		BundleHash: "test-policy",
		Result:     domain.SecurityPolicyResult{Allow: allow, Score: score, Grade: grade},
	}, nil
}

type failingRepo struct {
	*certmem.Store
	findErr      error
	incrementErr error
	corrupt      bool
}

func (r *failingRepo) FindByHash(ctx context.Context, hash string) (*domain.CertificateRecord, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	rec, err := r.Store.FindByHash(ctx, hash)
	if err == nil && r.corrupt {
		rec.Hash = rec.Hash[:64]
	}
	return rec, err
}

func (r *failingRepo) IncrementVerification(ctx context.Context, id string, at time.Time) (int64, error) {
	if r.incrementErr != nil {
		return 0, r.incrementErr
	}
	return r.Store.IncrementVerification(ctx, id, at)
}

// racingRepo runs interleave once, right before the first status write.
type racingRepo struct {
	*certmem.Store
	interleave func()
}

func (r *racingRepo) UpdateStatus(ctx context.Context, id string, from, to domain.CertificateStatus) (*domain.CertificateRecord, error) {
	if r.interleave != nil {
		fn := r.interleave
		r.interleave = nil
		fn()
	}
	return r.Store.UpdateStatus(ctx, id, from, to)
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

type harness struct {
	store    *certmem.Store
	repo     usecase.CertificateRepository
	renderer *textRenderer
	issue    *usecase.IssueCertificate
	verify   *usecase.VerifyCertificate
	byID     *usecase.VerifyByID
	security *usecase.VerifySecurity
	status   *usecase.StatusService
}

func newHarness(repo usecase.CertificateRepository, store *certmem.Store) *harness {
	if store == nil {
		store = certmem.New()
	}
	if repo == nil {
		repo = store
	}
	cryptoSvc := &crypto.Service{}
	renderer := newTextRenderer()
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	verify := &usecase.VerifyCertificate{
		Certificates: repo,
		Crypto:       cryptoSvc,
		Extractor:    textExtractor{},
		Metadata:     stego.NewTripleEmbedder(210),
		Now:          now,
	}
	return &harness{
		store:    store,
		repo:     repo,
		renderer: renderer,
		issue: &usecase.IssueCertificate{
			Certificates: repo,
			Crypto:       cryptoSvc,
			Templates:    fakeTemplates{},
			Renderer:     renderer,
			Assets:       sniffer{},
			Secret:       testSecret,
		},
		verify:   verify,
		byID:     &usecase.VerifyByID{Certificates: repo, Crypto: cryptoSvc, Now: now},
		security: &usecase.VerifySecurity{Document: verify, Policy: gradePolicy{}, MinFeatures: 4},
		status:   usecase.NewStatusService(repo),
	}
}
