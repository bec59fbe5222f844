package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Статусы и типы объявлений в хранилище листингов.
// Для сравнимых берутся только опубликованные объявления о продаже.
const (
	ListingStatusPublished = "published"
	ListingTypeForSale     = "for_sale"
)

// Словарь типов транспортных средств (принадлежит хранилищу объявлений,
// здесь продублированы самые ходовые значения)
const (
	VehicleTypeCar        = "car"
	VehicleTypeVan        = "van"
	VehicleTypeMotorcycle = "motorcycle"
)

var ErrListingNotFound = errors.New("listing not found")

// Listing - объявление из внешнего хранилища. Сервис оценки его только читает,
// весь CRUD живет на стороне хранилища.
type Listing struct {
	ID            uuid.UUID
	Price         *float64 // nil = "цена по запросу"
	ListingStatus string
	ListingType   string
	VehicleType   string

	Brand *string
	Model *string

	// Год в хранилище закодирован строкой
	ManufacturedYear *string
	ModelYear        *string
}

func (l *Listing) HasPrice() bool {
	return l.Price != nil
}

func (l *Listing) HasBrand() bool {
	return l.Brand != nil && strings.TrimSpace(*l.Brand) != ""
}

func (l *Listing) HasModel() bool {
	return l.Model != nil && strings.TrimSpace(*l.Model) != ""
}

// ComparisonYear возвращает год для подбора похожих: manufacturedYear,
// при его отсутствии - modelYear. Второе значение false, если года нет
// или он не парсится как целое число.
func (l *Listing) ComparisonYear() (int, bool) {
	raw := l.ManufacturedYear
	if raw == nil || strings.TrimSpace(*raw) == "" {
		raw = l.ModelYear
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return 0, false
	}

	year, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return 0, false
	}
	return year, true
}
