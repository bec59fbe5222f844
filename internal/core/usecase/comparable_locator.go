package usecase

import (
	"context"
	"strings"
	"valuation-service/internal/constants"
	"valuation-service/internal/contextkeys"
	"valuation-service/internal/core/domain"
	"valuation-service/internal/core/port"
)

// ComparableLocator подбирает похожие объявления каскадом все более широких
// запросов к хранилищу: сначала точное совпадение (тип + марка/модель + окно
// по году), затем тип + марка, затем только тип. Каскад останавливается на
// первом непустом результате - специфичность важнее покрытия, но на тонком
// рынке точный запрос слишком часто дает пустой ответ.
type ComparableLocator struct {
	storage port.ListingStoragePort
	limit   int
}

func NewComparableLocator(storage port.ListingStoragePort, limit int) *ComparableLocator {
	if limit <= 0 {
		limit = constants.DefaultMaxComparables
	}
	return &ComparableLocator{
		storage: storage,
		limit:   limit,
	}
}

// tierSpec связывает ярлык уровня с чистым построителем фильтра.
// Построители не трогают хранилище, их можно проверять по отдельности.
type tierSpec struct {
	tier    domain.Tier
	applies func(subject *domain.Listing) bool
	build   func(subject *domain.Listing) domain.ComparableFilter
}

var tierCascade = []tierSpec{
	{
		tier:    domain.TierPrimary,
		applies: func(*domain.Listing) bool { return true },
		build:   primaryFilter,
	},
	{
		// без марки этот уровень совпал бы со следующим
		tier:    domain.TierBroaderBrand,
		applies: func(s *domain.Listing) bool { return s.HasBrand() },
		build:   brandFilter,
	},
	{
		tier:    domain.TierTypeOnly,
		applies: func(*domain.Listing) bool { return true },
		build:   typeFilter,
	},
}

// Locate возвращает кандидатов и ярлык уровня, который их дал.
// Если не сработал ни один уровень - пустой срез и domain.TierNone.
func (l *ComparableLocator) Locate(ctx context.Context, subject *domain.Listing) ([]domain.Listing, domain.Tier, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	locatorLogger := logger.WithFields(port.Fields{
		"component": "ComparableLocator",
		"ad_id":     subject.ID.String(),
	})

	for _, ts := range tierCascade {
		if !ts.applies(subject) {
			continue
		}

		filter := ts.build(subject)
		candidates, err := l.storage.FindComparables(ctx, filter, l.limit)
		if err != nil {
			return nil, domain.TierNone, err
		}

		if len(candidates) > 0 {
			locatorLogger.Debug("Comparables found", port.Fields{
				"tier":  string(ts.tier),
				"count": len(candidates),
			})
			return candidates, ts.tier, nil
		}

		locatorLogger.Debug("Tier yielded no candidates, relaxing criteria", port.Fields{
			"tier": string(ts.tier),
		})
	}

	locatorLogger.Info("No comparables found at any tier", nil)
	return nil, domain.TierNone, nil
}

// primaryFilter - первый уровень: тип + марка/модель + окно по году.
// Марка без модели дает условие только по марке; модель без марки
// не дает ничего.
func primaryFilter(subject *domain.Listing) domain.ComparableFilter {
	f := domain.ComparableFilter{
		ExcludeID:   subject.ID,
		VehicleType: subject.VehicleType,
	}

	if subject.HasBrand() {
		f.BrandSubstring = strings.TrimSpace(*subject.Brand)
		if subject.HasModel() {
			f.ModelSubstring = strings.TrimSpace(*subject.Model)
		}
	}

	if year, ok := subject.ComparisonYear(); ok {
		f.Years = yearWindow(year)
	}

	return f
}

// brandFilter - второй уровень: тип + марка, без модели и года.
func brandFilter(subject *domain.Listing) domain.ComparableFilter {
	f := domain.ComparableFilter{
		ExcludeID:   subject.ID,
		VehicleType: subject.VehicleType,
	}
	if subject.HasBrand() {
		f.BrandSubstring = strings.TrimSpace(*subject.Brand)
	}
	return f
}

// typeFilter - третий уровень: только тип.
func typeFilter(subject *domain.Listing) domain.ComparableFilter {
	return domain.ComparableFilter{
		ExcludeID:   subject.ID,
		VehicleType: subject.VehicleType,
	}
}

// Начиная с этого года модель считается новой: объявлений "из будущего"
// для нее еще нет, окно смотрит только назад.
const newModelYearThreshold = 2024

func yearWindow(year int) []int {
	if year >= newModelYearThreshold {
		return []int{year - 2, year - 1, year}
	}

	// для остальных моделей +-3 года - сопоставимость в рамках поколения
	years := make([]int, 0, 7)
	for y := year - 3; y <= year+3; y++ {
		years = append(years, y)
	}
	return years
}
