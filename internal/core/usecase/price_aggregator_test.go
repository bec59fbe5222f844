package usecase

import (
	"testing"
	"valuation-service/internal/core/domain"
)

func floatPtr(v float64) *float64 {
	return &v
}

func pricedListings(prices ...float64) []domain.Listing {
	listings := make([]domain.Listing, 0, len(prices))
	for _, p := range prices {
		listings = append(listings, domain.Listing{Price: floatPtr(p)})
	}
	return listings
}

func TestAggregateMarketPrice_Mean(t *testing.T) {
	price, ok := AggregateMarketPrice(pricedListings(100, 200, 300))
	if !ok {
		t.Fatal("expected a market price")
	}
	if price != 200 {
		t.Errorf("got %d, want 200", price)
	}
}

func TestAggregateMarketPrice_RoundsHalfUp(t *testing.T) {
	// среднее 150.5 округляется вверх
	price, ok := AggregateMarketPrice(pricedListings(100, 201))
	if !ok {
		t.Fatal("expected a market price")
	}
	if price != 151 {
		t.Errorf("got %d, want 151", price)
	}
}

func TestAggregateMarketPrice_IgnoresInvalidPrices(t *testing.T) {
	candidates := []domain.Listing{
		{Price: nil},
		{Price: floatPtr(0)},
		{Price: floatPtr(-500)},
		{Price: floatPtr(300)},
		{Price: floatPtr(100)},
	}

	price, ok := AggregateMarketPrice(candidates)
	if !ok {
		t.Fatal("expected a market price")
	}
	if price != 200 {
		t.Errorf("got %d, want 200", price)
	}
}

func TestAggregateMarketPrice_NoCandidates(t *testing.T) {
	if _, ok := AggregateMarketPrice(nil); ok {
		t.Error("expected no market price for empty candidate set")
	}
}

func TestAggregateMarketPrice_NoValidPrices(t *testing.T) {
	candidates := []domain.Listing{
		{Price: nil},
		{Price: floatPtr(0)},
	}
	if _, ok := AggregateMarketPrice(candidates); ok {
		t.Error("expected no market price when no candidate has a positive price")
	}
}
