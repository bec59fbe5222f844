package constants

// Обменник аналитических событий
const (
	ExchangeValuation = "valuation_exchange"
)

// Ключи маршрутизации
const (
	RoutingKeyValuationComputed = "analytics.valuation.computed"
)
