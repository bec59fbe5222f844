package port

import (
	"context"
	"valuation-service/internal/core/domain"
)

// ValuationEventsPort - порт для публикации событий о посчитанных оценках
// (их забирает аналитический конвейер).
type ValuationEventsPort interface {
	PublishValuationComputed(ctx context.Context, event domain.ValuationComputedEvent) error
}
