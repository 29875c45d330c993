package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"veritas/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jung-kurt/gofpdf"
)

var imageTypes = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/gif":  "GIF",
}

// DetectImage sniffs the content type and checks the header decodes. Only
// PNG, JPEG and GIF are accepted.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidAsset)
	}
	mime := mimetype.Detect(data)
	if _, ok := imageTypes[mime.String()]; !ok {
		return "", fmt.Errorf("%w: unsupported type %s", domain.ErrInvalidAsset, mime.String())
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidAsset, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("%w: zero-sized image", domain.ErrInvalidAsset)
	}
	return mime.String(), nil
}

// registerImage validates and registers an image under name. A failure is
// returned to the caller and leaves the document without an error state.
func registerImage(pdf *gofpdf.Fpdf, name string, asset *domain.Asset) error {
	if asset.Empty() {
		return fmt.Errorf("%w: empty image", domain.ErrInvalidAsset)
	}
	mime, err := DetectImage(asset.Data)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: imageTypes[mime], ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(asset.Data))
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		return fmt.Errorf("%w: %v", domain.ErrInvalidAsset, err)
	}
	return nil
}

// ImageSniffer only checks the content type of uploads. Data that sniffs as
// an image but fails to decode is dropped from the layout at render time.
type ImageSniffer struct{}

func (ImageSniffer) Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidAsset)
	}
	mime := mimetype.Detect(data).String()
	if _, ok := imageTypes[mime]; !ok {
		return "", fmt.Errorf("%w: unsupported type %s", domain.ErrInvalidAsset, mime)
	}
	return mime, nil
}
