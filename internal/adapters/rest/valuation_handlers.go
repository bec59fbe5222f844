package rest

import (
	"context"
	"errors"
	"net/http"
	"valuation-service/internal/contextkeys"
	"valuation-service/internal/core/domain"
	"valuation-service/internal/core/port"
	"valuation-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// Pinger - минимальный контракт для health-check (его реализует pgxpool.Pool)
type Pinger interface {
	Ping(ctx context.Context) error
}

type ValuationHandler struct {
	valuateListingUC usecases_port.ValuateListingUseCase
	pinger           Pinger
}

func NewValuationHandler(valuateListingUC usecases_port.ValuateListingUseCase, pinger Pinger) *ValuationHandler {
	return &ValuationHandler{
		valuateListingUC: valuateListingUC,
		pinger:           pinger,
	}
}

// GetMarketPrice обрабатывает GET /api/v1/market-price?adId=<uuid>
func (h *ValuationHandler) GetMarketPrice(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	adIDStr := r.URL.Query().Get("adId")
	if adIDStr == "" {
		logger.Warn("Missing adId query parameter", nil)
		WriteJSONError(w, http.StatusBadRequest, "adId query parameter is required")
		return
	}

	adID, err := uuid.Parse(adIDStr)
	if err != nil {
		logger.Warn("Invalid adId format", port.Fields{"ad_id": adIDStr, "error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid adId format")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"handler": "GetMarketPrice",
		"ad_id":   adIDStr,
	})
	handlerLogger.Debug("Processing market price request", nil)

	result, err := h.valuateListingUC.Execute(r.Context(), adID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Listing not found")
			return
		}
		handlerLogger.Error("Use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to estimate market price")
		return
	}

	response := MarketPriceResponse{
		CurrentPrice:           result.CurrentPrice,
		MarketPrice:            result.MarketPrice,
		PriceDifference:        result.PriceDifference,
		PriceDifferencePercent: result.PriceDifferencePercent,
		SimilarAdsCount:        result.SimilarAdsCount,
		Message:                result.Message,
	}

	handlerLogger.Info("Market price request served", port.Fields{
		"similar_ads": result.SimilarAdsCount,
	})
	RespondWithJSON(w, http.StatusOK, response)
}

// GetHealth обрабатывает GET /api/v1/health
func (h *ValuationHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		logger := contextkeys.LoggerFromContext(r.Context())
		logger.Error("Health check failed", err, nil)
		WriteJSONError(w, http.StatusServiceUnavailable, "database is unreachable")
		return
	}
	RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
