package postgres

import (
	"context"
	"errors"
	"fmt"
	"valuation-service/internal/contextkeys"
	"valuation-service/internal/core/domain"
	"valuation-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listingColumns = `l.id, l.price, l.listing_status, l.listing_type, l.vehicle_type,
	   l.brand, l.model, l.manufactured_year, l.model_year`

// ListingStorageAdapter реализует ListingStoragePort поверх таблицы listings.
// Таблица принадлежит сервису листингов, здесь она только читается.
type ListingStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewListingStorageAdapter создает новый экземпляр адаптера.
func NewListingStorageAdapter(pool *pgxpool.Pool) (*ListingStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingStorageAdapter{
		pool: pool,
	}, nil
}

// GetListingByID возвращает объявление по идентификатору.
func (a *ListingStorageAdapter) GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ListingStorageAdapter",
		"method":    "GetListingByID",
		"id":        id.String(),
	})

	query := fmt.Sprintf("SELECT %s FROM listings l WHERE l.id = $1", listingColumns)

	var listing domain.Listing
	err := a.pool.QueryRow(ctx, query, id).Scan(
		&listing.ID, &listing.Price, &listing.ListingStatus, &listing.ListingType,
		&listing.VehicleType, &listing.Brand, &listing.Model,
		&listing.ManufacturedYear, &listing.ModelYear,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Debug("Listing not found", nil)
			return nil, domain.ErrListingNotFound
		}
		repoLogger.Error("Failed to query listing", err, nil)
		return nil, fmt.Errorf("failed to query listing %s: %w", id, err)
	}

	return &listing, nil
}

// FindComparables выполняет один уровень каскада подбора похожих.
func (a *ListingStorageAdapter) FindComparables(ctx context.Context, filter domain.ComparableFilter, limit int) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ListingStorageAdapter",
		"method":    "FindComparables",
		"limit":     limit,
	})

	whereClause, args := applyComparableFilter(filter)

	query := fmt.Sprintf(
		"SELECT %s FROM listings l %s LIMIT $%d",
		listingColumns, whereClause, len(args)+1,
	)
	args = append(args, limit)

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		repoLogger.Error("Failed to query comparables", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query comparables: %w", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0, limit)
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ID, &l.Price, &l.ListingStatus, &l.ListingType,
			&l.VehicleType, &l.Brand, &l.Model,
			&l.ManufacturedYear, &l.ModelYear,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comparable listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comparable listings: %w", err)
	}

	repoLogger.Debug("Comparables query finished", port.Fields{"count": len(listings)})
	return listings, nil
}
