package usecase

import (
	"math"
	"valuation-service/internal/core/domain"
)

// AggregateMarketPrice считает рыночную цену по набору кандидатов: среднее
// арифметическое по валидным (положительным) ценам, округленное до целой
// денежной единицы. Второе значение false, если валидных цен нет -
// вызывающий трактует это как "нет рыночных данных", а не как ошибку.
func AggregateMarketPrice(candidates []domain.Listing) (int64, bool) {
	var sum float64
	var count int

	for _, c := range candidates {
		if c.Price != nil && *c.Price > 0 {
			sum += *c.Price
			count++
		}
	}

	if count == 0 {
		return 0, false
	}

	// округление "половина вверх": среднее 150.5 дает 151
	mean := sum / float64(count)
	return int64(math.Floor(mean + 0.5)), true
}
