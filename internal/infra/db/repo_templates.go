package db

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"veritas/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TemplateRepository reads admin-managed templates. Inactive rows are
// treated as missing.
type TemplateRepository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewTemplateRepository(db *gorm.DB, log logrus.FieldLogger) *TemplateRepository {
	return &TemplateRepository{db: db, log: log}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model TemplateModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		Take(&model).Error
	if err != nil {
		return nil, translate(err)
	}
	tpl := r.fromModel(model)
	return &tpl, nil
}

func (r *TemplateRepository) fromModel(m TemplateModel) domain.Template {
	tpl := domain.Template{
		ID:        m.ID,
		Name:      m.Name,
		Industry:  m.Industry,
		CertTitle: m.CertTitle,
		Subtitle:  m.Subtitle,
		Authority: m.Authority,
		Fonts:     ParseTemplateFonts(m.Fonts),
	}
	tpl.Colors.Primary = r.color(m.ID, m.PrimaryColor)
	tpl.Colors.Secondary = r.color(m.ID, m.SecondaryColor)
	tpl.Colors.Accent = r.color(m.ID, m.AccentColor)
	tpl.Colors.Text = r.color(m.ID, m.TextColor)
	if m.BackgroundColor != nil {
		if c, err := domain.ParseHexColor(*m.BackgroundColor); err == nil {
			tpl.Colors.Background = &c
		}
	}
	if len(m.Logo) > 0 {
		tpl.Logo = &domain.Asset{Data: copyBytes(m.Logo)}
	}
	if len(m.Signature) > 0 {
		tpl.Signature = &domain.Asset{Data: copyBytes(m.Signature)}
	}
	if len(m.Background) > 0 {
		tpl.Background = &domain.Asset{Data: copyBytes(m.Background)}
	}
	return tpl
}

// color leaves empty and unparseable values at the zero RGB.
func (r *TemplateRepository) color(templateID, hex string) domain.RGB {
	if strings.TrimSpace(hex) == "" {
		return domain.RGB{}
	}
	c, err := domain.ParseHexColor(hex)
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).WithField("template_id", templateID).Warn("ignoring template color")
		}
		return domain.RGB{}
	}
	return c
}

// ParseTemplateFonts normalizes the stored font object. Each slot may be an
// object {"size": 32, "family": "Georgia"}, a CSS-like shorthand such as
// "bold 32px Georgia", or a bare size.
func ParseTemplateFonts(raw []byte) domain.TemplateFonts {
	var slots map[string]json.RawMessage
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &slots) != nil {
		return domain.TemplateFonts{}
	}
	return domain.TemplateFonts{
		Title:    parseFontSpec(slots["title"]),
		Subtitle: parseFontSpec(slots["subtitle"]),
		Name:     parseFontSpec(slots["name"]),
		Body:     parseFontSpec(slots["body"]),
		Small:    parseFontSpec(slots["small"]),
	}
}

func parseFontSpec(raw json.RawMessage) domain.FontSpec {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.FontSpec{}
	}
	switch raw[0] {
	case '{':
		var obj struct {
			Size   json.RawMessage `json:"size"`
			Family string          `json:"family"`
			Weight string          `json:"weight"`
		}
		if json.Unmarshal(raw, &obj) != nil {
			return domain.FontSpec{}
		}
		spec := domain.FontSpec{Family: strings.TrimSpace(obj.Family)}
		spec.Size = parseSize(strings.Trim(string(obj.Size), `"`))
		if isBold(obj.Weight) && spec.Family != "" {
			spec.Family += "-Bold"
		}
		return spec
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return domain.FontSpec{}
		}
		return parseShorthand(s)
	default:
		return domain.FontSpec{Size: parseSize(string(raw))}
	}
}

func parseShorthand(s string) domain.FontSpec {
	var spec domain.FontSpec
	var family []string
	bold := false
	for _, tok := range strings.Fields(s) {
		switch {
		case isBold(tok):
			bold = true
		case spec.Size == 0 && parseSize(tok) > 0:
			spec.Size = parseSize(tok)
		case strings.EqualFold(tok, "normal") || strings.EqualFold(tok, "italic"):
		default:
			family = append(family, strings.Trim(tok, `'",`))
		}
	}
	spec.Family = strings.Join(family, " ")
	if bold && spec.Family != "" {
		spec.Family += "-Bold"
	}
	return spec
}

func parseSize(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), "px"), "pt")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

func isBold(s string) bool {
	return strings.EqualFold(s, "bold") || s == "700" || s == "800" || s == "900"
}
