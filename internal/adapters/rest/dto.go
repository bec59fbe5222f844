package rest

// MarketPriceResponse - ответ GET /api/v1/market-price.
// Нулевые указатели сериализуются как null: отсутствие рыночных данных -
// валидный ответ, а не ошибка.
type MarketPriceResponse struct {
	CurrentPrice           *float64 `json:"currentPrice"`
	MarketPrice            *int64   `json:"marketPrice"`
	PriceDifference        *float64 `json:"priceDifference"`
	PriceDifferencePercent *int     `json:"priceDifferencePercent"`
	SimilarAdsCount        int      `json:"similarAdsCount"`
	Message                *string  `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
