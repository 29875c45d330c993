package templates

import (
	"context"
	"errors"
	"time"

	"veritas/internal/domain"

	"github.com/sirupsen/logrus"
)

// Store loads admin-managed templates. It returns domain.ErrNotFound for
// unknown ids.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Template, error)
}

type Registry struct {
	Store Store
	TTL   time.Duration
	Log   logrus.FieldLogger

	cache *cache
}

func NewRegistry(store Store, ttl time.Duration, log logrus.FieldLogger) *Registry {
	return &Registry{Store: store, TTL: ttl, Log: log, cache: newCache(nil)}
}

// Resolve never fails: unknown ids and store errors fall back to the
// standard template.
func (r *Registry) Resolve(ctx context.Context, id string) domain.Template {
	if t, ok := Builtin(id); ok {
		return t
	}
	if id != "" {
		if t := r.lookup(ctx, id); t != nil {
			return merge(*t)
		}
	}
	t, _ := Builtin(DefaultID)
	return t
}

// Exists reports whether id names a built-in or admin template.
func (r *Registry) Exists(ctx context.Context, id string) bool {
	if _, ok := Builtin(id); ok {
		return true
	}
	return id != "" && r.lookup(ctx, id) != nil
}

func (r *Registry) lookup(ctx context.Context, id string) *domain.Template {
	if r.Store == nil {
		return nil
	}
	if t, ok := r.cache.get(id); ok {
		return t
	}
	t, err := r.Store.GetByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.cache.put(id, nil, r.TTL)
		return nil
	case err != nil:
		if r.Log != nil {
			r.Log.WithError(err).WithField("template_id", id).Warn("template lookup failed")
		}
		return nil
	}
	r.cache.put(id, t, r.TTL)
	return t
}

// merge fills the zero fields of an admin template from the standard one.
func merge(t domain.Template) domain.Template {
	base, _ := Builtin(DefaultID)
	if t.Name == "" {
		t.Name = t.ID
	}
	if t.CertTitle == "" {
		t.CertTitle = base.CertTitle
	}
	if t.Authority == "" {
		t.Authority = base.Authority
	}
	if t.Colors == (domain.TemplateColors{}) {
		t.Colors = base.Colors
	}
	t.Fonts.Title = fontOr(t.Fonts.Title, base.Fonts.Title)
	t.Fonts.Subtitle = fontOr(t.Fonts.Subtitle, base.Fonts.Subtitle)
	t.Fonts.Name = fontOr(t.Fonts.Name, base.Fonts.Name)
	t.Fonts.Body = fontOr(t.Fonts.Body, base.Fonts.Body)
	t.Fonts.Small = fontOr(t.Fonts.Small, base.Fonts.Small)
	return t
}

func fontOr(f, fallback domain.FontSpec) domain.FontSpec {
	if f.Size <= 0 {
		f.Size = fallback.Size
	}
	if f.Family == "" {
		f.Family = fallback.Family
	}
	return f
}
