package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier - уровень каскада ослабления критериев похожести.
// Каскад пробует уровни строго по порядку и останавливается
// на первом непустом результате.
type Tier string

const (
	TierPrimary      Tier = "primary"
	TierBroaderBrand Tier = "broader-brand"
	TierTypeOnly     Tier = "type-only"
	TierNone         Tier = "none"
)

// ComparableFilter - переменная часть условий для одного уровня каскада.
// Базовые условия (опубликовано, продажа, есть цена, исключение самого
// объявления) хранилище применяет всегда.
type ComparableFilter struct {
	ExcludeID      uuid.UUID
	VehicleType    string // пустая строка = без условия
	BrandSubstring string // поиск подстроки без учета регистра
	ModelSubstring string
	Years          []int // пустой срез = без условия по году
}

// ValuationResult - итог оценки рыночной цены. Живет только в рамках
// одного запроса, никуда не сохраняется.
type ValuationResult struct {
	CurrentPrice           *float64
	MarketPrice            *int64
	PriceDifference        *float64
	PriceDifferencePercent *int
	SimilarAdsCount        int
	Message                *string // nil, когда сработал основной уровень
}

// ValuationComputedEvent - событие для аналитического конвейера.
// Публикуется после каждой посчитанной оценки, сервис сам ничего не хранит.
type ValuationComputedEvent struct {
	AdID            uuid.UUID
	Tier            Tier
	CurrentPrice    *float64
	MarketPrice     *int64
	SimilarAdsCount int
	ComputedAt      time.Time
}
