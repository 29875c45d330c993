package templates

import "veritas/internal/domain"

const DefaultID = "standard"

func rgb(hex string) domain.RGB {
	return domain.MustHexColor(hex)
}

func bg(hex string) *domain.RGB {
	c := domain.MustHexColor(hex)
	return &c
}

func fonts(titleFamily, nameFamily, bodyFamily string, titleSize float64) domain.TemplateFonts {
	return domain.TemplateFonts{
		Title:    domain.FontSpec{Size: titleSize, Family: titleFamily},
		Subtitle: domain.FontSpec{Size: 16, Family: bodyFamily},
		Name:     domain.FontSpec{Size: 30, Family: nameFamily},
		Body:     domain.FontSpec{Size: 13, Family: bodyFamily},
		Small:    domain.FontSpec{Size: 9, Family: bodyFamily},
	}
}

var builtins = map[string]domain.Template{
	"standard": {
		ID:        "standard",
		Name:      "Standard",
		Industry:  "General Certification",
		CertTitle: "Certificate of Completion",
		Subtitle:  "Professional Achievement",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#1e3a8a"), Secondary: rgb("#3b82f6"), Accent: rgb("#f59e0b"), Text: rgb("#1f2937"),
		},
		Fonts: fonts("Helvetica-Bold", "Times-Bold", "Helvetica", 32),
	},
	"modern": {
		ID:        "modern",
		Name:      "Modern",
		Industry:  "Professional Development",
		CertTitle: "Certificate of Achievement",
		Subtitle:  "Excellence in Learning",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#0f172a"), Secondary: rgb("#6366f1"), Accent: rgb("#14b8a6"), Text: rgb("#334155"),
			Background: bg("#f8fafc"),
		},
		Fonts: fonts("Helvetica-Bold", "Helvetica-Bold", "Helvetica", 30),
	},
	"classic": {
		ID:        "classic",
		Name:      "Classic",
		Industry:  "Academic Tradition",
		CertTitle: "Certificate of Merit",
		Subtitle:  "With Distinction",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#7c2d12"), Secondary: rgb("#a16207"), Accent: rgb("#b45309"), Text: rgb("#292524"),
			Background: bg("#fffbeb"),
		},
		Fonts: fonts("Times-Bold", "Times-BoldItalic", "Times", 34),
	},
	"corporate": {
		ID:        "corporate",
		Name:      "Corporate",
		Industry:  "Corporate Training",
		CertTitle: "Certificate of Training",
		Subtitle:  "Corporate Learning Program",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#111827"), Secondary: rgb("#4b5563"), Accent: rgb("#2563eb"), Text: rgb("#1f2937"),
		},
		Fonts: fonts("Helvetica-Bold", "Helvetica-Bold", "Helvetica", 30),
	},
	"academic": {
		ID:        "academic",
		Name:      "Academic",
		Industry:  "Higher Education",
		CertTitle: "Academic Certificate",
		Subtitle:  "Course Completion",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#14532d"), Secondary: rgb("#15803d"), Accent: rgb("#ca8a04"), Text: rgb("#1c1917"),
			Background: bg("#fefce8"),
		},
		Fonts: fonts("Times-Bold", "Times-Bold", "Times", 32),
	},
	"tech": {
		ID:        "tech",
		Name:      "Tech",
		Industry:  "Technology Certification",
		CertTitle: "Technical Certification",
		Subtitle:  "Verified Skills",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#0c4a6e"), Secondary: rgb("#0891b2"), Accent: rgb("#22c55e"), Text: rgb("#0f172a"),
		},
		Fonts: fonts("Courier-Bold", "Helvetica-Bold", "Helvetica", 30),
	},
	"healthcare": {
		ID:        "healthcare",
		Name:      "Healthcare",
		Industry:  "Healthcare Training",
		CertTitle: "Certificate of Competency",
		Subtitle:  "Clinical Training Program",
		Authority: "Veritas Certificate Authority",
		Colors: domain.TemplateColors{
			Primary: rgb("#155e75"), Secondary: rgb("#0d9488"), Accent: rgb("#e11d48"), Text: rgb("#1e293b"),
			Background: bg("#f0fdfa"),
		},
		Fonts: fonts("Helvetica-Bold", "Times-Bold", "Helvetica", 30),
	},
}

// Builtin returns a copy of a built-in template.
func Builtin(id string) (domain.Template, bool) {
	t, ok := builtins[id]
	return t, ok
}

func BuiltinIDs() []string {
	return []string{"standard", "modern", "classic", "corporate", "academic", "tech", "healthcare"}
}
