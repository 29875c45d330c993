package render

import (
	"strings"

	"veritas/internal/domain"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

type layout struct {
	pdf   *gofpdf.Fpdf
	tpl   domain.Template
	scale float64
	tr    func(string) string
	log   logrus.FieldLogger
}

// background prefers the uploaded image, then the template image, then the
// template color. White needs no drawing.
func (l *layout) background(uploaded *domain.Asset) {
	for _, candidate := range []struct {
		name  string
		asset *domain.Asset
	}{
		{"background-upload", uploaded},
		{"background-template", l.tpl.Background},
	} {
		if candidate.asset.Empty() {
			continue
		}
		if err := registerImage(l.pdf, candidate.name, candidate.asset); err != nil {
			l.log.WithError(err).WithField("asset", candidate.name).Warn("skipping background image")
			continue
		}
		l.pdf.ImageOptions(candidate.name, 0, 0, pageW, pageH, false, gofpdf.ImageOptions{}, 0, "")
		return
	}
	if bg := l.tpl.Colors.Background; bg != nil && *bg != domain.White {
		l.pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
		l.pdf.Rect(0, 0, pageW, pageH, "F")
	}
}

func (l *layout) logo(asset *domain.Asset) {
	if asset.Empty() {
		return
	}
	if err := registerImage(l.pdf, "logo", asset); err != nil {
		l.log.WithError(err).Warn("skipping logo")
		return
	}
	l.pdf.ImageOptions("logo", 20, 18, 28*l.scale, 0, false, gofpdf.ImageOptions{}, 0, "")
}

func (l *layout) signature(asset *domain.Asset) {
	lineY := 182.0
	if !asset.Empty() {
		if err := registerImage(l.pdf, "signature", asset); err != nil {
			l.log.WithError(err).Warn("skipping signature")
		} else {
			w := 40 * l.scale
			l.pdf.ImageOptions("signature", 150-w/2, lineY-16*l.scale, w, 0, false, gofpdf.ImageOptions{}, 0, "")
		}
	}
	l.setDraw(l.tpl.Colors.Text)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Line(120, lineY, 180, lineY)
	l.font(l.tpl.Fonts.Small, 9)
	l.textColor(l.tpl.Colors.Text)
	l.centered(150, lineY+5, "Authorized Signature")
	l.centered(150, lineY+10, l.tpl.Authority)
}

func (l *layout) body(data domain.CertificateData) {
	l.font(l.tpl.Fonts.Title, 34)
	l.textColor(l.tpl.Colors.Primary)
	l.centered(pageW/2, 48, strings.ToUpper(l.tpl.CertTitle))

	if l.tpl.Subtitle != "" {
		l.font(l.tpl.Fonts.Subtitle, 14)
		l.textColor(l.tpl.Colors.Secondary)
		l.centered(pageW/2, 58, l.tpl.Subtitle)
	}

	l.setDraw(l.tpl.Colors.Accent)
	l.pdf.SetLineWidth(0.6)
	l.pdf.Line(98, 63, 199, 63)

	l.font(l.tpl.Fonts.Body, 13)
	l.textColor(l.tpl.Colors.Text)
	l.centered(pageW/2, 78, "This certifies that")

	l.font(l.tpl.Fonts.Name, 30)
	l.textColor(l.tpl.Colors.Primary)
	w := l.centered(pageW/2, 95, data.StudentName)
	l.setDraw(l.tpl.Colors.Primary)
	l.pdf.SetLineWidth(0.4)
	l.pdf.Line(pageW/2-w/2-4, 98, pageW/2+w/2+4, 98)

	l.font(l.tpl.Fonts.Body, 13)
	l.textColor(l.tpl.Colors.Text)
	l.centered(pageW/2, 110, "has successfully completed")

	l.font(l.tpl.Fonts.Subtitle, 20)
	l.textColor(l.tpl.Colors.Secondary)
	l.centered(pageW/2, 123, data.CourseName)

	l.font(l.tpl.Fonts.Body, 12)
	l.textColor(l.tpl.Colors.Text)
	l.centered(pageW/2, 135, "Issued on "+data.IssuedAt.UTC().Format("January 2, 2006"))
}

func (l *layout) badge() {
	if l.tpl.Industry == "" {
		return
	}
	label := l.tr(strings.ToUpper(l.tpl.Industry))
	l.fixedFont(coreHelvetica, "B", 8)
	w := l.pdf.GetStringWidth(label) + 8
	x := pageW - 20 - w
	l.setFill(l.tpl.Colors.Accent)
	l.pdf.Rect(x, 17, w, 8, "F")
	l.textColor(domain.White)
	l.pdf.Text(x+4, 22.5, label)
}

// panel lists the identifiers a reader can check by hand.
func (l *layout) panel(data domain.CertificateData) {
	const x, y, w, h = 20.0, 148.0, 95.0, 40.0
	l.setDraw(l.tpl.Colors.Secondary)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Rect(x, y, w, h, "D")

	l.fixedFont(coreHelvetica, "B", 8)
	l.textColor(l.tpl.Colors.Primary)
	l.pdf.Text(x+3, y+5, "VERIFICATION DETAILS")

	lines := [][2]string{
		{"Certificate ID", data.CertificateID},
		{"Serial", data.SerialNumber},
		{"Issue date", data.IssuedAt.UTC().Format("2006-01-02")},
		{"Template", l.tpl.Name},
		{"Security seed", strings.ToUpper(data.SecuritySeed)},
		{"Hash", truncateHash(data.Hash)},
	}
	l.fixedFont(coreCourier, "", 6.5)
	l.textColor(l.tpl.Colors.Text)
	for i, line := range lines {
		l.pdf.Text(x+3, y+11+float64(i)*5, l.tr(line[0]+": "+line[1]))
	}
}

func truncateHash(hash string) string {
	if len(hash) <= 32 {
		return hash
	}
	return hash[:16] + "..." + hash[len(hash)-16:]
}

func (l *layout) qr(enc QREncoder, url string) {
	if enc == nil {
		return
	}
	png, err := enc.Encode(url, 256)
	if err != nil {
		l.log.WithError(err).Warn("skipping qr code")
		return
	}
	if err := registerImage(l.pdf, "qr", &domain.Asset{Data: png, MimeType: "image/png"}); err != nil {
		l.log.WithError(err).Warn("skipping qr code")
		return
	}
	size := 30 * l.scale
	l.pdf.ImageOptions("qr", pageW-20-size, 150, size, size, false, gofpdf.ImageOptions{}, 0, "")
	l.fixedFont(coreHelvetica, "", 6)
	l.textColor(l.tpl.Colors.Text)
	l.centered(pageW-20-size/2, 150+size+3, "Scan to verify")
}

func (l *layout) footer(url string) {
	l.fixedFont(coreHelvetica, "", 7)
	l.textColor(l.tpl.Colors.Secondary)
	l.centered(pageW/2, 199, "Issued by "+l.tpl.Authority+". Verify at "+url)
}

// fixedFont sets one of the layout's own sizes, which do not come from the
// template but still follow scale.
func (l *layout) fixedFont(family, style string, size float64) {
	l.pdf.SetFont(family, style, size*l.scale)
}

func (l *layout) font(spec domain.FontSpec, fallback float64) {
	family, style := resolveFont(spec.Family)
	l.pdf.SetFont(family, style, scaledSize(spec, fallback, l.scale))
}

// centered draws s centered on cx and returns its width.
func (l *layout) centered(cx, y float64, s string) float64 {
	s = l.tr(s)
	w := l.pdf.GetStringWidth(s)
	l.pdf.Text(cx-w/2, y, s)
	return w
}

func (l *layout) textColor(c domain.RGB) {
	l.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (l *layout) setDraw(c domain.RGB) {
	l.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func (l *layout) setFill(c domain.RGB) {
	l.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
