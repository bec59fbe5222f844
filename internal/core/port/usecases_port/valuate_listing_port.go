package usecases_port

import (
	"context"
	"valuation-service/internal/core/domain"

	"github.com/google/uuid"
)

type ValuateListingUseCase interface {
	Execute(ctx context.Context, adID uuid.UUID) (*domain.ValuationResult, error)
}
