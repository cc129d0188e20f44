package domain

import (
	"testing"
)

func sampleProducts() []Product {
	return []Product{
		{ID: "p1", Name: LocalizedText{EN: "Walnut Chair", DE: "Walnuss Stuhl"}, Price: 40, CategoryID: "furniture"},
		{ID: "p2", Name: LocalizedText{EN: "Oak Table"}, Price: 75, CategoryID: "furniture"},
		{ID: "p3", Name: LocalizedText{EN: "Silk Rug", FA: "فرش ابریشم"}, Price: 120, CategoryID: "textiles"},
	}
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterAndSortIdentity(t *testing.T) {
	products := sampleProducts()
	got := FilterAndSort(products, SearchCriteria{}, nil, nil)
	if !equalIDs(ids(got), []string{"p1", "p2", "p3"}) {
		t.Fatalf("expected input order preserved, got %v", ids(got))
	}
	if &got[0] == &products[0] {
		t.Fatalf("expected a copy of the input slice")
	}
}

func TestFilterAndSortQueryCaseInsensitive(t *testing.T) {
	got := FilterAndSort(sampleProducts(), SearchCriteria{Query: "  oAk "}, nil, nil)
	if !equalIDs(ids(got), []string{"p2"}) {
		t.Fatalf("expected only p2, got %v", ids(got))
	}
}

func TestFilterAndSortBlankQueryPassesAll(t *testing.T) {
	got := FilterAndSort(sampleProducts(), SearchCriteria{Query: "   "}, nil, nil)
	if len(got) != 3 {
		t.Fatalf("expected all products, got %d", len(got))
	}
}

func TestFilterAndSortCategory(t *testing.T) {
	got := FilterAndSort(sampleProducts(), SearchCriteria{CategoryID: "textiles"}, nil, nil)
	if !equalIDs(ids(got), []string{"p3"}) {
		t.Fatalf("expected only p3, got %v", ids(got))
	}
}

func TestFilterAndSortMediumBucket(t *testing.T) {
	got := FilterAndSort(sampleProducts(), SearchCriteria{Bucket: PriceBucketMedium}, nil, nil)
	if !equalIDs(ids(got), []string{"p2"}) {
		t.Fatalf("expected only p2 in 50-100, got %v", ids(got))
	}
}

func TestPriceBucketBoundaries(t *testing.T) {
	if !PriceBucketLow.Contains(50) {
		t.Fatalf("50 should fall in 0-50")
	}
	if PriceBucketMedium.Contains(50) {
		t.Fatalf("50 should not fall in 50-100")
	}
	if !PriceBucketMedium.Contains(100) {
		t.Fatalf("100 should fall in 50-100")
	}
	if PriceBucketHigh.Contains(100) {
		t.Fatalf("100 should not fall in 100+")
	}
	if !PriceBucketHigh.Contains(100.01) {
		t.Fatalf("100.01 should fall in 100+")
	}
	if PriceBucketLow.Contains(-1) {
		t.Fatalf("negative prices fall in no bucket")
	}
}

func TestFilterAndSortPriceOrdering(t *testing.T) {
	asc := FilterAndSort(sampleProducts(), SearchCriteria{Sort: SortPriceLow}, nil, nil)
	if !equalIDs(ids(asc), []string{"p1", "p2", "p3"}) {
		t.Fatalf("price-low order wrong: %v", ids(asc))
	}
	desc := FilterAndSort(sampleProducts(), SearchCriteria{Sort: SortPriceHigh}, nil, nil)
	if !equalIDs(ids(desc), []string{"p3", "p2", "p1"}) {
		t.Fatalf("price-high order wrong: %v", ids(desc))
	}
}

func TestFilterAndSortStableOnTies(t *testing.T) {
	products := []Product{
		{ID: "a", Name: LocalizedText{EN: "Lamp A"}, Price: 30},
		{ID: "b", Name: LocalizedText{EN: "Lamp B"}, Price: 30},
		{ID: "c", Name: LocalizedText{EN: "Lamp C"}, Price: 30},
	}
	got := FilterAndSort(products, SearchCriteria{Sort: SortPriceLow}, nil, nil)
	if !equalIDs(ids(got), []string{"a", "b", "c"}) {
		t.Fatalf("ties must keep input order, got %v", ids(got))
	}
}

func TestFilterAndSortNameUsesResolver(t *testing.T) {
	resolve := func(p Product) string { return p.Name.Resolve(LocaleGerman) }
	got := FilterAndSort(sampleProducts(), SearchCriteria{Sort: SortName}, resolve, nil)
	// Resolved names: "Walnuss Stuhl", "Oak Table", "Silk Rug".
	if !equalIDs(ids(got), []string{"p2", "p3", "p1"}) {
		t.Fatalf("name order wrong: %v", ids(got))
	}
}

func TestLocalizedTextResolveFallback(t *testing.T) {
	chair := LocalizedText{EN: "Chair"}
	if got := chair.Resolve(LocalePersian); got != "Chair" {
		t.Fatalf("expected english fallback, got %q", got)
	}

	generic := LocalizedText{Generic: "Thing"}
	if got := generic.Resolve(LocaleGerman); got != "Thing" {
		t.Fatalf("expected generic fallback, got %q", got)
	}

	var empty LocalizedText
	if got := empty.Resolve(LocaleEnglish); got != PlaceholderName {
		t.Fatalf("expected placeholder, got %q", got)
	}

	localized := LocalizedText{EN: "Rug", FA: "فرش"}
	if got := localized.Resolve(LocalePersian); got != "فرش" {
		t.Fatalf("expected active locale value, got %q", got)
	}
}

func TestParseSortKey(t *testing.T) {
	if got := ParseSortKey(" Price-Low "); got != SortPriceLow {
		t.Fatalf("got %q", got)
	}
	if got := ParseSortKey("newest"); got != SortDefault {
		t.Fatalf("unknown keys fall back to default, got %q", got)
	}
	if got := ParseSortKey(""); got != SortDefault {
		t.Fatalf("blank falls back to default, got %q", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(19.999); got != 20.00 {
		t.Fatalf("got %v", got)
	}
	if got := Round2(0.1 + 0.2); got != 0.30 {
		t.Fatalf("got %v", got)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	if !OrderStatusPending.CanTransitionTo(OrderStatusProcessing) {
		t.Fatalf("pending -> processing must be allowed")
	}
	if OrderStatusPending.CanTransitionTo(OrderStatusShipped) {
		t.Fatalf("pending -> shipped skips processing")
	}
	if !OrderStatusShipped.CanTransitionTo(OrderStatusDelivered) {
		t.Fatalf("shipped -> delivered must be allowed")
	}
	if OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled) {
		t.Fatalf("delivered is terminal")
	}
	if !OrderStatusProcessing.CanTransitionTo(OrderStatusCancelled) {
		t.Fatalf("processing -> cancelled must be allowed")
	}
	if OrderStatusCancelled.CanTransitionTo(OrderStatusPending) {
		t.Fatalf("cancelled is terminal")
	}
}
