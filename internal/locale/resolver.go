// Package locale resolves the active storefront language and localizes
// catalog display fields.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/caspian-bazaar/api/internal/domain"
)

// Resolver negotiates request locales against the supported set and resolves
// localized fields with the storefront fallback chain.
type Resolver struct {
	defaultLocale domain.Locale
	supported     []domain.Locale
	tags          []language.Tag
	matcher       language.Matcher
}

// NewResolver builds a resolver for the given supported locales. The default
// locale must be part of the supported set.
func NewResolver(defaultLocale domain.Locale, supported []domain.Locale) (*Resolver, error) {
	if len(supported) == 0 {
		return nil, fmt.Errorf("locale: supported set is empty")
	}

	tags := make([]language.Tag, 0, len(supported))
	hasDefault := false
	for _, loc := range supported {
		tag, err := language.Parse(string(loc))
		if err != nil {
			return nil, fmt.Errorf("locale: parse %q: %w", loc, err)
		}
		tags = append(tags, tag)
		if loc == defaultLocale {
			hasDefault = true
		}
	}
	if !hasDefault {
		return nil, fmt.Errorf("locale: default %q not in supported set", defaultLocale)
	}

	return &Resolver{
		defaultLocale: defaultLocale,
		supported:     append([]domain.Locale(nil), supported...),
		tags:          tags,
		matcher:       language.NewMatcher(tags),
	}, nil
}

// Default returns the configured fallback locale.
func (r *Resolver) Default() domain.Locale {
	return r.defaultLocale
}

// Supported returns the declared locale set in priority order.
func (r *Resolver) Supported() []domain.Locale {
	return append([]domain.Locale(nil), r.supported...)
}

// Negotiate picks the best supported locale for an Accept-Language header or
// an explicit lang parameter. Blank or unparseable input yields the default.
func (r *Resolver) Negotiate(acceptLanguage string) domain.Locale {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return r.defaultLocale
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return r.defaultLocale
	}
	_, index, conf := r.matcher.Match(desired...)
	if conf == language.No || index < 0 || index >= len(r.supported) {
		return r.defaultLocale
	}
	return r.supported[index]
}

// ResolveName localizes a product name, never returning an empty string.
func (r *Resolver) ResolveName(p domain.Product, loc domain.Locale) string {
	return p.Name.Resolve(loc)
}

// ResolveDescription localizes a product description.
func (r *Resolver) ResolveDescription(p domain.Product, loc domain.Locale) string {
	return p.Description.ResolveDescription(loc)
}

// NameResolver returns the per-product name function used by the search
// pipeline for the given locale.
func (r *Resolver) NameResolver(loc domain.Locale) domain.NameResolver {
	return func(p domain.Product) string {
		return p.Name.Resolve(loc)
	}
}

// LessNames returns a locale-aware name comparator. The collator keeps
// internal buffers, so each call builds a fresh one for a single sort pass.
func (r *Resolver) LessNames(loc domain.Locale) domain.LessNames {
	tag := r.tagFor(loc)
	c := collate.New(tag)
	return func(a, b string) bool {
		return c.CompareString(a, b) < 0
	}
}

func (r *Resolver) tagFor(loc domain.Locale) language.Tag {
	for i, candidate := range r.supported {
		if candidate == loc {
			return r.tags[i]
		}
	}
	for i, candidate := range r.supported {
		if candidate == r.defaultLocale {
			return r.tags[i]
		}
	}
	return language.English
}
