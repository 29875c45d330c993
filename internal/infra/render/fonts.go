package render

import (
	"strings"

	"veritas/internal/domain"
)

const (
	coreHelvetica = "Helvetica"
	coreTimes     = "Times"
	coreCourier   = "Courier"
)

// fontSubstitutes maps template font names onto the PDF core fonts. Anything
// not listed renders in Helvetica.
var fontSubstitutes = map[string]string{
	"helvetica":       coreHelvetica,
	"arial":           coreHelvetica,
	"sans-serif":      coreHelvetica,
	"inter":           coreHelvetica,
	"roboto":          coreHelvetica,
	"open sans":       coreHelvetica,
	"montserrat":      coreHelvetica,
	"times":           coreTimes,
	"times-roman":     coreTimes,
	"times new roman": coreTimes,
	"georgia":         coreTimes,
	"garamond":        coreTimes,
	"playfair":        coreTimes,
	"serif":           coreTimes,
	"courier":         coreCourier,
	"courier new":     coreCourier,
	"monospace":       coreCourier,
	"fira code":       coreCourier,
}

// resolveFont returns the core family and style for a template font name such
// as "Times-Bold" or "Helvetica-BoldOblique".
func resolveFont(family string) (string, string) {
	name := strings.ToLower(strings.TrimSpace(family))
	styleStr := ""
	for _, suffix := range []struct{ name, style string }{
		{"-bolditalic", "BI"},
		{"-boldoblique", "BI"},
		{"-bold", "B"},
		{"-italic", "I"},
		{"-oblique", "I"},
	} {
		if strings.HasSuffix(name, suffix.name) {
			name = strings.TrimSuffix(name, suffix.name)
			styleStr = suffix.style
			break
		}
	}
	if core, ok := fontSubstitutes[name]; ok {
		return core, styleStr
	}
	return coreHelvetica, styleStr
}

func scaledSize(spec domain.FontSpec, fallback, scale float64) float64 {
	size := spec.Size
	if size <= 0 {
		size = fallback
	}
	return size * scale
}
