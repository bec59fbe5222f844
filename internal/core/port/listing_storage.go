package port

import (
	"context"
	"valuation-service/internal/core/domain"

	"github.com/google/uuid"
)

// ListingStoragePort - порт только для чтения к внешнему хранилищу объявлений.
// Схема хранилища принадлежит сервису листингов, здесь только выборки.
type ListingStoragePort interface {
	// GetListingByID возвращает domain.ErrListingNotFound, если объявления нет.
	GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)

	// FindComparables выполняет один уровень каскада: базовые условия
	// пригодности + переменная часть из фильтра, не больше limit строк.
	// Порядок строк не важен, дальше считается только среднее.
	FindComparables(ctx context.Context, filter domain.ComparableFilter, limit int) ([]domain.Listing, error)
}
