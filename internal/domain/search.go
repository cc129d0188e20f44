package domain

import (
	"math"
	"sort"
	"strings"
)

// SortKey selects the ordering applied by the search pipeline.
type SortKey string

const (
	SortDefault   SortKey = "default"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortName      SortKey = "name"
)

// ParseSortKey maps a request parameter onto a known sort key, falling back
// to the default ordering for blank or unknown values.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.TrimSpace(strings.ToLower(raw))) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	case SortName:
		return SortName
	default:
		return SortDefault
	}
}

// PriceBucket is a named price range filter.
type PriceBucket string

const (
	PriceBucketNone   PriceBucket = ""
	PriceBucketLow    PriceBucket = "0-50"
	PriceBucketMedium PriceBucket = "50-100"
	PriceBucketHigh   PriceBucket = "100+"
)

// Contains reports whether a price falls inside the bucket. The low bucket
// is inclusive on both ends; the medium bucket excludes its lower boundary
// so a 50.00 product lands in exactly one bucket.
func (b PriceBucket) Contains(price float64) bool {
	switch b {
	case PriceBucketLow:
		return price >= 0 && price <= 50
	case PriceBucketMedium:
		return price > 50 && price <= 100
	case PriceBucketHigh:
		return price > 100
	case PriceBucketNone:
		return true
	}
	return false
}

// ParsePriceBucket validates a request parameter against the known buckets.
// Unknown values behave as no filter.
func ParsePriceBucket(raw string) PriceBucket {
	switch PriceBucket(strings.TrimSpace(raw)) {
	case PriceBucketLow:
		return PriceBucketLow
	case PriceBucketMedium:
		return PriceBucketMedium
	case PriceBucketHigh:
		return PriceBucketHigh
	default:
		return PriceBucketNone
	}
}

// SearchCriteria narrows and orders a product listing. The zero value is the
// identity: every product passes and input order is preserved.
type SearchCriteria struct {
	Query      string
	CategoryID string
	Bucket     PriceBucket
	Sort       SortKey
}

// NameResolver maps a product to its display name for the active locale.
type NameResolver func(Product) string

// LessNames compares two already-resolved names; locale-aware comparison is
// supplied by the caller (collation lives in the locale package).
type LessNames func(a, b string) bool

// FilterAndSort applies the search pipeline: case-insensitive substring
// match on the resolved name, exact category match, price bucket, then a
// stable sort. Ties and the default sort preserve input order. The input
// slice is never mutated.
func FilterAndSort(products []Product, criteria SearchCriteria, resolve NameResolver, lessNames LessNames) []Product {
	if resolve == nil {
		resolve = func(p Product) string { return p.Name.Resolve(DefaultLocale) }
	}

	query := strings.ToLower(strings.TrimSpace(criteria.Query))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if query != "" && !strings.Contains(strings.ToLower(resolve(p)), query) {
			continue
		}
		if criteria.CategoryID != "" && p.CategoryID != criteria.CategoryID {
			continue
		}
		if !criteria.Bucket.Contains(p.Price) {
			continue
		}
		out = append(out, p)
	}

	switch criteria.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortName:
		if lessNames == nil {
			lessNames = func(a, b string) bool { return a < b }
		}
		sort.SliceStable(out, func(i, j int) bool {
			return lessNames(resolve(out[i]), resolve(out[j]))
		})
	}
	return out
}

// Resolve walks the locale fallback chain: active locale, default locale,
// generic field, placeholder. It never returns an empty string.
func (t LocalizedText) Resolve(loc Locale) string {
	if v := strings.TrimSpace(t.ForLocale(loc)); v != "" {
		return v
	}
	if v := strings.TrimSpace(t.EN); v != "" {
		return v
	}
	if v := strings.TrimSpace(t.Generic); v != "" {
		return v
	}
	return PlaceholderName
}

// ResolveDescription mirrors Resolve but yields an empty string instead of
// the name placeholder when nothing is set.
func (t LocalizedText) ResolveDescription(loc Locale) string {
	if v := strings.TrimSpace(t.ForLocale(loc)); v != "" {
		return v
	}
	if v := strings.TrimSpace(t.EN); v != "" {
		return v
	}
	return strings.TrimSpace(t.Generic)
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
