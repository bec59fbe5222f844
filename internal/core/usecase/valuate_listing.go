package usecase

import (
	"context"
	"errors"
	"math"
	"time"
	"valuation-service/internal/contextkeys"
	"valuation-service/internal/core/domain"
	"valuation-service/internal/core/port"

	"github.com/google/uuid"
)

// Тексты для поля message результата. Разреженный рынок - ожидаемый исход,
// поэтому все эти случаи остаются успешным ответом, а не ошибкой.
const (
	msgNoPrice       = "No price available for comparison."
	msgNoSimilar     = "No similar vehicles found in the market."
	msgNoValidPrices = "No valid prices found in similar vehicles."
	msgSimilarBrand  = "Based on similar brand"
	msgSimilarType   = "Based on similar vehicle type"
)

// ValuateListingUseCase - точка входа движка оценки: находит объявление,
// запускает каскад подбора похожих и собирает итоговый результат.
type ValuateListingUseCase struct {
	storage port.ListingStoragePort
	locator *ComparableLocator
	events  port.ValuationEventsPort // nil = публикация событий выключена
}

func NewValuateListingUseCase(storage port.ListingStoragePort, locator *ComparableLocator, events port.ValuationEventsPort) *ValuateListingUseCase {
	return &ValuateListingUseCase{
		storage: storage,
		locator: locator,
		events:  events,
	}
}

func (uc *ValuateListingUseCase) Execute(ctx context.Context, adID uuid.UUID) (*domain.ValuationResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ValuateListing",
		"ad_id":    adID.String(),
	})

	ucLogger.Info("Use case started", nil)

	subject, err := uc.storage.GetListingByID(ctx, adID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			ucLogger.Warn("Subject listing not found", nil)
		} else {
			ucLogger.Error("Storage returned an error", err, nil)
		}
		return nil, err
	}

	// Терминальный случай: без цены объявления сравнивать не с чем,
	// каскад даже не запускается.
	if !subject.HasPrice() {
		ucLogger.Info("Subject has no price, skipping comparable search", nil)
		result := &domain.ValuationResult{Message: strPtr(msgNoPrice)}
		uc.publish(ctx, adID, domain.TierNone, result)
		return result, nil
	}

	candidates, tier, err := uc.locator.Locate(ctx, subject)
	if err != nil {
		ucLogger.Error("Comparable search failed", err, nil)
		return nil, err
	}

	if tier == domain.TierNone {
		result := &domain.ValuationResult{
			CurrentPrice: subject.Price,
			Message:      strPtr(msgNoSimilar),
		}
		uc.publish(ctx, adID, tier, result)
		return result, nil
	}

	marketPrice, ok := AggregateMarketPrice(candidates)
	if !ok {
		// Кандидаты нашлись, но валидных цен среди них нет. Исход
		// терминальный: к более широким уровням не возвращаемся.
		ucLogger.Info("Candidates carry no valid prices", port.Fields{
			"tier":       string(tier),
			"candidates": len(candidates),
		})
		result := &domain.ValuationResult{
			CurrentPrice: subject.Price,
			Message:      strPtr(msgNoValidPrices),
		}
		uc.publish(ctx, adID, tier, result)
		return result, nil
	}

	diff := *subject.Price - float64(marketPrice)
	result := &domain.ValuationResult{
		CurrentPrice:    subject.Price,
		MarketPrice:     &marketPrice,
		PriceDifference: &diff,
		SimilarAdsCount: len(candidates),
	}
	if marketPrice != 0 {
		percent := int(math.Round(diff / float64(marketPrice) * 100))
		result.PriceDifferencePercent = &percent
	}

	switch tier {
	case domain.TierBroaderBrand:
		result.Message = strPtr(msgSimilarBrand)
	case domain.TierTypeOnly:
		result.Message = strPtr(msgSimilarType)
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"tier":         string(tier),
		"similar_ads":  result.SimilarAdsCount,
		"market_price": marketPrice,
	})

	uc.publish(ctx, adID, tier, result)
	return result, nil
}

// publish отправляет событие в аналитику. Ошибка брокера только логируется:
// оценка не должна падать из-за побочного канала.
func (uc *ValuateListingUseCase) publish(ctx context.Context, adID uuid.UUID, tier domain.Tier, result *domain.ValuationResult) {
	if uc.events == nil {
		return
	}

	event := domain.ValuationComputedEvent{
		AdID:            adID,
		Tier:            tier,
		CurrentPrice:    result.CurrentPrice,
		MarketPrice:     result.MarketPrice,
		SimilarAdsCount: result.SimilarAdsCount,
		ComputedAt:      time.Now().UTC(),
	}

	if err := uc.events.PublishValuationComputed(ctx, event); err != nil {
		logger := contextkeys.LoggerFromContext(ctx)
		logger.Error("Failed to publish valuation event", err, port.Fields{
			"ad_id": adID.String(),
		})
	}
}

func strPtr(s string) *string {
	return &s
}
