package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"veritas/internal/domain"
	"veritas/internal/infra/crypto"
	"veritas/internal/infra/security"
	"veritas/internal/infra/stego"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

const (
	pageW = 297.0
	pageH = 210.0
)

type TemplateResolver interface {
	Resolve(ctx context.Context, id string) domain.Template
}

type Renderer struct {
	Templates TemplateResolver
	QR        QREncoder
	Embedder  *stego.TripleEmbedder
	BaseURL   string
	Creator   string
	Log       logrus.FieldLogger
}

func NewRenderer(templates TemplateResolver, baseURL string, log logrus.FieldLogger) *Renderer {
	return &Renderer{
		Templates: templates,
		QR:        SkipQREncoder{},
		Embedder:  NewEmbedder(),
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Creator:   "veritas",
		Log:       log,
	}
}

// NewEmbedder returns the metadata embedder laid out for the certificate page.
func NewEmbedder() *stego.TripleEmbedder {
	return stego.NewTripleEmbedder(pageH)
}

// VerifyURL is the public verification link encoded in the QR code.
func (r *Renderer) VerifyURL(certificateID string) string {
	return r.BaseURL + "/verify/" + certificateID
}

// Render lays out one A4 landscape certificate. Broken assets are skipped with
// a warning; only failures of the document itself are returned, wrapped in
// domain.ErrRenderFailed.
func (r *Renderer) Render(ctx context.Context, data domain.CertificateData, templateID string, assets *domain.UploadedAssets, scale float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	if assets == nil {
		assets = &domain.UploadedAssets{}
	}
	tpl := r.Templates.Resolve(ctx, templateID)
	log := r.logger().WithFields(logrus.Fields{
		"certificate_id": data.CertificateID,
		"template_id":    tpl.ID,
	})

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	r.setInfo(pdf, tpl, data)
	pdf.AddPage()

	canvas := newPDFCanvas(pdf)
	l := &layout{pdf: pdf, tpl: tpl, scale: scale, tr: tr, log: log}

	l.background(assets.Background)

	gen := security.NewGeneratorFromSeed(data.SecuritySeed)
	full := security.Rect{X: 0, Y: 0, W: pageW, H: pageH}
	features := map[string]bool{}
	gen.RainbowGradient(canvas, full, 0.05)
	features[domain.FeatureRainbow] = true
	gen.Guilloche(canvas, security.Rect{X: 20, Y: 20, W: pageW - 40, H: pageH - 40}, tpl.Colors.Primary, 0.08)
	features[domain.FeatureGuilloche] = true
	gen.Border(canvas, full, tpl.Colors.Primary, tpl.Colors.Secondary)
	features[domain.FeatureBorder] = true
	gen.CornerOrnaments(canvas, full, tpl.Colors.Accent)
	features[domain.FeatureCornerMotifs] = true
	gen.Microtext(canvas, full, data.CertificateID, tpl.Colors.Primary)
	features[domain.FeatureMicrotext] = true

	l.logo(firstAsset(assets.Logo, tpl.Logo))
	l.body(data)
	l.badge()
	l.panel(data)
	l.signature(firstAsset(assets.Signature, tpl.Signature))
	gen.Fingerprint(canvas, security.Point{X: 212, Y: 152}, 22, tpl.Colors.Primary)
	features[domain.FeatureFingerprint] = true
	l.qr(r.QR, r.VerifyURL(data.CertificateID))
	l.footer(r.VerifyURL(data.CertificateID))

	meta := data.Metadata
	meta.TemplateID = tpl.ID
	meta.SecurityFeatures = features
	meta.SecurityChecksum = crypto.SecurityChecksum(data.CertificateID, data.Hash, data.SecuritySeed, tpl.ID)
	if err := r.Embedder.Embed(canvas, meta); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) setInfo(pdf *gofpdf.Fpdf, tpl domain.Template, data domain.CertificateData) {
	pdf.SetTitle(tpl.CertTitle+" - "+data.StudentName, true)
	pdf.SetAuthor(tpl.Authority, true)
	pdf.SetSubject(data.CourseName, true)
	pdf.SetKeywords(data.CertificateID+" "+data.SerialNumber, true)
	pdf.SetCreator(r.Creator, true)
	if !data.IssuedAt.IsZero() {
		pdf.SetCreationDate(data.IssuedAt)
	}
}

func (r *Renderer) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func firstAsset(candidates ...*domain.Asset) *domain.Asset {
	for _, a := range candidates {
		if !a.Empty() {
			return a
		}
	}
	return nil
}
