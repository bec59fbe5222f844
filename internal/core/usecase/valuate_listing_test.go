package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"valuation-service/internal/core/domain"

	"github.com/google/uuid"
)

// memoryStorage применяет семантику фильтра в памяти - как хранилище,
// только без базы. Считает запросы подбора для проверок.
type memoryStorage struct {
	listings  []domain.Listing
	findCalls int
}

func (s *memoryStorage) GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	for i := range s.listings {
		if s.listings[i].ID == id {
			l := s.listings[i]
			return &l, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (s *memoryStorage) FindComparables(ctx context.Context, filter domain.ComparableFilter, limit int) ([]domain.Listing, error) {
	s.findCalls++

	var out []domain.Listing
	for _, l := range s.listings {
		if !matchesFilter(l, filter) {
			continue
		}
		out = append(out, l)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matchesFilter(l domain.Listing, filter domain.ComparableFilter) bool {
	// базовая пригодность
	if l.ListingStatus != domain.ListingStatusPublished || l.ListingType != domain.ListingTypeForSale {
		return false
	}
	if l.Price == nil {
		return false
	}
	if l.ID == filter.ExcludeID {
		return false
	}

	if filter.VehicleType != "" && l.VehicleType != filter.VehicleType {
		return false
	}
	if filter.BrandSubstring != "" && !containsFold(l.Brand, filter.BrandSubstring) {
		return false
	}
	if filter.ModelSubstring != "" && !containsFold(l.Model, filter.ModelSubstring) {
		return false
	}
	if len(filter.Years) > 0 {
		year, ok := l.ComparisonYear()
		if !ok {
			return false
		}
		found := false
		for _, y := range filter.Years {
			if y == year {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(value *string, substr string) bool {
	if value == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*value), strings.ToLower(substr))
}

func carListing(brand, model, year string, price float64) domain.Listing {
	return domain.Listing{
		ID:               uuid.New(),
		Price:            floatPtr(price),
		ListingStatus:    domain.ListingStatusPublished,
		ListingType:      domain.ListingTypeForSale,
		VehicleType:      domain.VehicleTypeCar,
		Brand:            &brand,
		Model:            &model,
		ManufacturedYear: &year,
	}
}

func newValuateUseCase(storage *memoryStorage) *ValuateListingUseCase {
	locator := NewComparableLocator(storage, 50)
	return NewValuateListingUseCase(storage, locator, nil)
}

func TestValuate_SubjectNotFound(t *testing.T) {
	uc := newValuateUseCase(&memoryStorage{})

	_, err := uc.Execute(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrListingNotFound) {
		t.Errorf("got error %v, want ErrListingNotFound", err)
	}
}

func TestValuate_SubjectWithoutPrice(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 0)
	subject.Price = nil
	storage := &memoryStorage{listings: []domain.Listing{subject}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CurrentPrice != nil || result.MarketPrice != nil {
		t.Errorf("prices must be nil: %+v", result)
	}
	if result.SimilarAdsCount != 0 {
		t.Errorf("similarAdsCount: got %d, want 0", result.SimilarAdsCount)
	}
	if result.Message == nil || *result.Message != "No price available for comparison." {
		t.Errorf("unexpected message: %v", result.Message)
	}
	// каскад не должен запускаться вообще
	if storage.findCalls != 0 {
		t.Errorf("locator queried storage %d times, want 0", storage.findCalls)
	}
}

func TestValuate_NoComparablesAtAnyTier(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)
	storage := &memoryStorage{listings: []domain.Listing{subject}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.MarketPrice != nil {
		t.Errorf("marketPrice must be nil, got %v", *result.MarketPrice)
	}
	if result.CurrentPrice == nil || *result.CurrentPrice != 5000000 {
		t.Errorf("currentPrice: got %v, want 5000000", result.CurrentPrice)
	}
	if result.SimilarAdsCount != 0 {
		t.Errorf("similarAdsCount: got %d, want 0", result.SimilarAdsCount)
	}
	if result.Message == nil || *result.Message != "No similar vehicles found in the market." {
		t.Errorf("unexpected message: %v", result.Message)
	}
}

func TestValuate_CandidatesWithoutValidPrices(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)
	// кандидат проходит базовую пригодность (цена заполнена),
	// но для среднего его нулевая цена не годится
	zeroPriced := carListing("Toyota", "Aqua", "2019", 0)

	storage := &memoryStorage{listings: []domain.Listing{subject, zeroPriced}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.MarketPrice != nil {
		t.Errorf("marketPrice must be nil, got %v", *result.MarketPrice)
	}
	if result.Message == nil || *result.Message != "No valid prices found in similar vehicles." {
		t.Errorf("unexpected message: %v", result.Message)
	}
	// исход терминальный: более широкие уровни не пробуются
	if storage.findCalls != 1 {
		t.Errorf("storage queried %d times, want 1", storage.findCalls)
	}
}

func TestValuate_EndToEnd_PrimaryTier(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)

	listings := []domain.Listing{
		subject,
		carListing("Toyota", "Aqua", "2018", 4800000),
		carListing("Toyota", "Aqua", "2020", 5200000),
		carListing("Toyota", "Aqua", "2019", 5000000),
	}
	// посторонние объявления не должны попасть в выборку
	for i := 0; i < 5; i++ {
		listings = append(listings, carListing("Honda", "Vezel", "2019", 7000000))
	}
	for i := 0; i < 5; i++ {
		listings = append(listings, carListing("Toyota", "Prius", "2010", 3500000))
	}

	storage := &memoryStorage{listings: listings}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.MarketPrice == nil || *result.MarketPrice != 5000000 {
		t.Fatalf("marketPrice: got %v, want 5000000", result.MarketPrice)
	}
	if result.PriceDifference == nil || *result.PriceDifference != 0 {
		t.Errorf("priceDifference: got %v, want 0", result.PriceDifference)
	}
	if result.PriceDifferencePercent == nil || *result.PriceDifferencePercent != 0 {
		t.Errorf("priceDifferencePercent: got %v, want 0", result.PriceDifferencePercent)
	}
	if result.SimilarAdsCount != 3 {
		t.Errorf("similarAdsCount: got %d, want 3", result.SimilarAdsCount)
	}
	// основной уровень - без пояснения
	if result.Message != nil {
		t.Errorf("message must be nil for primary tier, got %q", *result.Message)
	}
	if storage.findCalls != 1 {
		t.Errorf("storage queried %d times, want 1", storage.findCalls)
	}
}

func TestValuate_PriceDifferenceSigns(t *testing.T) {
	tests := []struct {
		name         string
		subjectPrice float64
		wantDiff     float64
		wantPercent  int
	}{
		{"subject above market", 120, 20, 20},
		{"subject below market", 80, -20, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := carListing("Toyota", "Aqua", "2019", tt.subjectPrice)
			comparable := carListing("Toyota", "Aqua", "2019", 100)

			storage := &memoryStorage{listings: []domain.Listing{subject, comparable}}
			uc := newValuateUseCase(storage)

			result, err := uc.Execute(context.Background(), subject.ID)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if result.MarketPrice == nil || *result.MarketPrice != 100 {
				t.Fatalf("marketPrice: got %v, want 100", result.MarketPrice)
			}
			if result.PriceDifference == nil || *result.PriceDifference != tt.wantDiff {
				t.Errorf("priceDifference: got %v, want %v", result.PriceDifference, tt.wantDiff)
			}
			if result.PriceDifferencePercent == nil || *result.PriceDifferencePercent != tt.wantPercent {
				t.Errorf("priceDifferencePercent: got %v, want %d", result.PriceDifferencePercent, tt.wantPercent)
			}
		})
	}
}

func TestValuate_BroaderBrandTierMessage(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)
	// совпадает марка, но не модель и не год - сработает второй уровень
	otherModel := carListing("Toyota", "Prius", "2010", 3500000)

	storage := &memoryStorage{listings: []domain.Listing{subject, otherModel}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Message == nil || *result.Message != "Based on similar brand" {
		t.Errorf("unexpected message: %v", result.Message)
	}
	if result.MarketPrice == nil || *result.MarketPrice != 3500000 {
		t.Errorf("marketPrice: got %v, want 3500000", result.MarketPrice)
	}
	if storage.findCalls != 2 {
		t.Errorf("storage queried %d times, want 2", storage.findCalls)
	}
}

func TestValuate_TypeOnlyTierMessage(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)
	otherBrand := carListing("Honda", "Vezel", "2019", 7000000)

	storage := &memoryStorage{listings: []domain.Listing{subject, otherBrand}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Message == nil || *result.Message != "Based on similar vehicle type" {
		t.Errorf("unexpected message: %v", result.Message)
	}
	if storage.findCalls != 3 {
		t.Errorf("storage queried %d times, want 3", storage.findCalls)
	}
}

func TestValuate_CaseInsensitiveBrandModelMatch(t *testing.T) {
	subject := carListing("TOYOTA", "aqua", "2019", 5000000)
	comparable := carListing("toyota", "AQUA", "2019", 4000000)

	storage := &memoryStorage{listings: []domain.Listing{subject, comparable}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Message != nil {
		t.Errorf("expected primary tier match, got message %q", *result.Message)
	}
	if result.SimilarAdsCount != 1 {
		t.Errorf("similarAdsCount: got %d, want 1", result.SimilarAdsCount)
	}
}

func TestValuate_ExcludesInactiveAndNonSaleListings(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)

	archived := carListing("Toyota", "Aqua", "2019", 100)
	archived.ListingStatus = "archived"
	rental := carListing("Toyota", "Aqua", "2019", 200)
	rental.ListingType = "for_rent"
	valid := carListing("Toyota", "Aqua", "2019", 4500000)

	storage := &memoryStorage{listings: []domain.Listing{subject, archived, rental, valid}}
	uc := newValuateUseCase(storage)

	result, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.SimilarAdsCount != 1 {
		t.Errorf("similarAdsCount: got %d, want 1", result.SimilarAdsCount)
	}
	if result.MarketPrice == nil || *result.MarketPrice != 4500000 {
		t.Errorf("marketPrice: got %v, want 4500000", result.MarketPrice)
	}
}

func TestValuate_Idempotent(t *testing.T) {
	subject := carListing("Toyota", "Aqua", "2019", 5000000)
	storage := &memoryStorage{listings: []domain.Listing{
		subject,
		carListing("Toyota", "Aqua", "2018", 4800000),
		carListing("Toyota", "Aqua", "2020", 5200000),
	}}
	uc := newValuateUseCase(storage)

	first, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := uc.Execute(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between identical calls:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
