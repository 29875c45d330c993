package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type RGB struct {
	R uint8
	G uint8
	B uint8
}

var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
)

// ParseHexColor accepts "#rrggbb", "rrggbb" and "#rgb".
func ParseHexColor(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func MustHexColor(s string) RGB {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type FontSpec struct {
	Size   float64 `json:"size"`
	Family string  `json:"family"`
}

type TemplateColors struct {
	Primary    RGB
	Secondary  RGB
	Accent     RGB
	Text       RGB
	Background *RGB
}

type TemplateFonts struct {
	Title    FontSpec
	Subtitle FontSpec
	Name     FontSpec
	Body     FontSpec
	Small    FontSpec
}

type Asset struct {
	Data     []byte
	MimeType string
}

func (a *Asset) Empty() bool {
	return a == nil || len(a.Data) == 0
}

type UploadedAssets struct {
	Logo       *Asset
	Signature  *Asset
	Background *Asset
}

type Template struct {
	ID         string
	Name       string
	Industry   string
	CertTitle  string
	Subtitle   string
	Authority  string
	Colors     TemplateColors
	Fonts      TemplateFonts
	Logo       *Asset
	Signature  *Asset
	Background *Asset
}
