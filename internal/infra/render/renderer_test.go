package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"veritas/internal/domain"
	"veritas/internal/infra/crypto"
	"veritas/internal/infra/pdftext"
	"veritas/internal/infra/stego"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type staticTemplates struct {
	tpl       domain.Template
	requested []string
}

func (s *staticTemplates) Resolve(_ context.Context, id string) domain.Template {
	s.requested = append(s.requested, id)
	return s.tpl
}

type failingQR struct{}

func (failingQR) Encode(string, int) ([]byte, error) {
	return nil, errors.New("qr unavailable")
}

func testTemplate() domain.Template {
	bg := domain.MustHexColor("#fdfcf7")
	return domain.Template{
		ID:        "standard",
		Name:      "Standard",
		Industry:  "education",
		CertTitle: "Certificate of Completion",
		Subtitle:  "Professional Achievement",
		Authority: "Veritas Academy",
		Colors: domain.TemplateColors{
			Primary:    domain.MustHexColor("#1e3a8a"),
			Secondary:  domain.MustHexColor("#3b82f6"),
			Accent:     domain.MustHexColor("#f59e0b"),
			Text:       domain.MustHexColor("#1f2937"),
			Background: &bg,
		},
		Fonts: domain.TemplateFonts{
			Title: domain.FontSpec{Size: 32, Family: "Times-Bold"},
			Name:  domain.FontSpec{Size: 28, Family: "Georgia"},
		},
	}
}

func testData(t *testing.T) domain.CertificateData {
	t.Helper()
	ts := int64(1700000000000)
	canonical, payload, err := crypto.Canonicalize("Zoë Doe", "Data Structures 101", &ts, "00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	hash := crypto.HashCanonical(canonical)
	id, err := crypto.CertificateID(hash, ts)
	if err != nil {
		t.Fatalf("certificate id: %v", err)
	}
	seed := crypto.SecuritySeed(id, hash)
	return domain.CertificateData{
		StudentName:   payload.User,
		CourseName:    payload.Exam,
		IssuedAt:      time.UnixMilli(ts).UTC(),
		CertificateID: id,
		SerialNumber:  "SN-20231114-0A1B2C3D",
		Hash:          hash,
		SecuritySeed:  seed,
		Metadata: domain.EmbeddedMetadata{
			User:          payload.User,
			Exam:          payload.Exam,
			Timestamp:     payload.Timestamp,
			Nonce:         payload.Nonce,
			Version:       payload.Version,
			Issuer:        payload.Issuer,
			Integrity:     payload.Integrity,
			Hash:          hash,
			CanonicalJSON: canonical,
			CertificateID: id,
			SerialNumber:  "SN-20231114-0A1B2C3D",
			SecuritySeed:  seed,
		},
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 30), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.Out = io.Discard
	return log, hook
}

func TestRenderRoundTripsMetadata(t *testing.T) {
	log, _ := quietLogger()
	templates := &staticTemplates{tpl: testTemplate()}
	r := NewRenderer(templates, "https://verify.example.com/", log)
	data := testData(t)

	doc, err := r.Render(context.Background(), data, "standard", &domain.UploadedAssets{Logo: &domain.Asset{Data: pngBytes(t)}}, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", doc[:8])
	}

	text, err := pdftext.New(log).Text(doc)
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	meta, ok := stego.NewTripleEmbedder(pageH).Extract(text)
	if !ok {
		t.Fatal("expected embedded metadata")
	}
	if meta.CanonicalJSON != data.Metadata.CanonicalJSON {
		t.Fatalf("canonical json changed:\n got %s\nwant %s", meta.CanonicalJSON, data.Metadata.CanonicalJSON)
	}
	if crypto.HashCanonical(meta.CanonicalJSON) != data.Hash {
		t.Fatal("recomputed hash does not match")
	}
	if meta.TemplateID != "standard" {
		t.Fatalf("unexpected template id %q", meta.TemplateID)
	}
	if len(meta.SecurityFeatures) != domain.SecurityFeatureCount {
		t.Fatalf("expected %d features, got %v", domain.SecurityFeatureCount, meta.SecurityFeatures)
	}
	want := crypto.SecurityChecksum(data.CertificateID, data.Hash, data.SecuritySeed, "standard")
	if meta.SecurityChecksum != want {
		t.Fatalf("checksum %s, want %s", meta.SecurityChecksum, want)
	}
}

func TestRenderSkipsCorruptAssets(t *testing.T) {
	log, hook := quietLogger()
	r := NewRenderer(&staticTemplates{tpl: testTemplate()}, "https://verify.example.com", log)
	r.QR = failingQR{}

	assets := &domain.UploadedAssets{
		Logo:       &domain.Asset{Data: []byte("\x89PNG\r\n\x1a\nnot really a png")},
		Signature:  &domain.Asset{Data: []byte("GIF89a garbage")},
		Background: &domain.Asset{Data: []byte("<svg></svg>")},
	}
	doc, err := r.Render(context.Background(), testData(t), "standard", assets, 1.5)
	if err != nil {
		t.Fatalf("render should degrade gracefully: %v", err)
	}
	if len(doc) == 0 {
		t.Fatal("expected a document")
	}
	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 4 {
		t.Fatalf("expected 4 warnings (logo, signature, background, qr), got %d", warnings)
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	log, _ := quietLogger()
	r := NewRenderer(&staticTemplates{tpl: testTemplate()}, "", log)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, testData(t), "standard", nil, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestVerifyURL(t *testing.T) {
	r := NewRenderer(&staticTemplates{}, "https://verify.example.com/", nil)
	if got := r.VerifyURL("CERT-1"); got != "https://verify.example.com/verify/CERT-1" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestDetectImage(t *testing.T) {
	mime, err := DetectImage(pngBytes(t))
	if err != nil || mime != "image/png" {
		t.Fatalf("expected image/png, got %q %v", mime, err)
	}
	for _, bad := range [][]byte{nil, []byte("hello"), []byte("\x89PNG\r\n\x1a\ntruncated")} {
		if _, err := DetectImage(bad); !errors.Is(err, domain.ErrInvalidAsset) {
			t.Fatalf("expected ErrInvalidAsset for %q, got %v", bad, err)
		}
	}
}

func TestResolveFont(t *testing.T) {
	cases := []struct {
		in, family, style string
	}{
		{"Times-Bold", coreTimes, "B"},
		{"Georgia", coreTimes, ""},
		{"Courier New", coreCourier, ""},
		{"Helvetica-BoldOblique", coreHelvetica, "BI"},
		{"Comic Sans", coreHelvetica, ""},
		{"", coreHelvetica, ""},
	}
	for _, tc := range cases {
		family, style := resolveFont(tc.in)
		if family != tc.family || style != tc.style {
			t.Fatalf("resolveFont(%q) = %s/%s, want %s/%s", tc.in, family, style, tc.family, tc.style)
		}
	}
}

func TestTruncateHash(t *testing.T) {
	h := strings.Repeat("a", 64) + strings.Repeat("b", 64)
	if got := truncateHash(h); got != strings.Repeat("a", 16)+"..."+strings.Repeat("b", 16) {
		t.Fatalf("unexpected truncation %s", got)
	}
}

func TestImageSnifferAcceptsUndecodableImages(t *testing.T) {
	var s ImageSniffer
	if mime, err := s.Sniff([]byte("\x89PNG\r\n\x1a\ntruncated")); err != nil || mime != "image/png" {
		t.Fatalf("expected image/png, got %q %v", mime, err)
	}
	if _, err := s.Sniff([]byte("<svg xmlns=\"http://www.w3.org/2000/svg\"/>")); !errors.Is(err, domain.ErrInvalidAsset) {
		t.Fatalf("expected ErrInvalidAsset for svg, got %v", err)
	}
}

type pngQR struct{ png []byte }

func (q pngQR) Encode(string, int) ([]byte, error) { return q.png, nil }

func TestLayoutFontsFollowScale(t *testing.T) {
	log, _ := quietLogger()
	data := testData(t)
	for _, scale := range []float64{1, 1.5} {
		pdf := gofpdf.New("L", "mm", "A4", "")
		pdf.AddPage()
		l := &layout{pdf: pdf, tpl: testTemplate(), scale: scale, tr: pdf.UnicodeTranslatorFromDescriptor(""), log: log}

		steps := []struct {
			name string
			draw func()
			want float64
		}{
			{"panel", func() { l.panel(data) }, 6.5},
			{"qr caption", func() { l.qr(pngQR{png: pngBytes(t)}, "https://verify.example.com/verify/x") }, 6},
			{"footer", func() { l.footer("https://verify.example.com") }, 7},
			{"badge", func() { l.badge() }, 8},
		}
		for _, step := range steps {
			step.draw()
			if got, _ := pdf.GetFontSize(); got != step.want*scale {
				t.Fatalf("scale %v %s: font size %v, want %v", scale, step.name, got, step.want*scale)
			}
		}
		if err := pdf.Error(); err != nil {
			t.Fatalf("scale %v: %v", scale, err)
		}
	}
}
