package render

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QREncoder interface {
	Encode(content string, size int) ([]byte, error)
}

// SkipQREncoder renders PNG QR codes with medium error correction.
type SkipQREncoder struct{}

func (SkipQREncoder) Encode(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}
