package collection_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shashiranjanraj/giftbid/pkg/collection"
)

func TestMapAndFilter(t *testing.T) {
	words := []string{"auction", "donation", "auction"}

	upper := collection.Map(words, strings.ToUpper)
	if want := []string{"AUCTION", "DONATION", "AUCTION"}; !reflect.DeepEqual(upper, want) {
		t.Errorf("Map = %v, want %v", upper, want)
	}

	auctions := collection.Filter(words, func(s string) bool { return s == "auction" })
	if len(auctions) != 2 {
		t.Errorf("Filter kept %d elements, want 2", len(auctions))
	}
}

func TestFirstAndContains(t *testing.T) {
	amounts := []float64{10, 25, 40}

	v, ok := collection.First(amounts, func(f float64) bool { return f > 20 })
	if !ok || v != 25 {
		t.Errorf("First = (%v, %v), want (25, true)", v, ok)
	}

	if _, ok := collection.First(amounts, func(f float64) bool { return f > 100 }); ok {
		t.Error("First matched on an impossible predicate")
	}
	if !collection.Contains(amounts, func(f float64) bool { return f == 40 }) {
		t.Error("Contains missed an existing element")
	}
}

func TestUniqueByKeepsFirstOccurrence(t *testing.T) {
	type listing struct{ id, label string }
	in := []listing{
		{"auction-1", "posted"},
		{"auction-2", "posted"},
		{"auction-1", "ending"},
	}

	out := collection.UniqueBy(in, func(l listing) string { return l.id })
	if len(out) != 2 {
		t.Fatalf("UniqueBy kept %d elements, want 2", len(out))
	}
	if out[0].label != "posted" {
		t.Errorf("UniqueBy replaced the first occurrence with a later duplicate")
	}
}

func TestSum(t *testing.T) {
	type review struct{ rating float64 }
	reviews := []review{{5}, {4}, {5}}

	if got := collection.Sum(reviews, func(r review) float64 { return r.rating }); got != 14 {
		t.Errorf("Sum = %v, want 14", got)
	}
	if got := collection.Sum([]review{}, func(r review) float64 { return r.rating }); got != 0 {
		t.Errorf("Sum of empty slice = %v, want 0", got)
	}
}
