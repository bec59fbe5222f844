package postgres

import (
	"fmt"
	"strings"
	"valuation-service/internal/core/domain"
)

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argID      int
}

// Базовая пригодность кандидата зашита прямо в билдер: опубликованное
// объявление о продаже с заполненной ценой. Эти условия участвуют в
// каждом уровне каскада.
func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argID: 1,
		conditions: []string{
			"l.listing_status = 'published'",
			"l.listing_type = 'for_sale'",
			"l.price IS NOT NULL",
		},
		args: make([]interface{}, 0),
	}
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argID))
	qb.args = append(qb.args, arg)
	qb.argID++
}

// build создает финальную часть запроса
func (qb *queryBuilder) build() (string, []interface{}) {
	return "WHERE " + strings.Join(qb.conditions, " AND "), qb.args
}

// Год кандидата: manufactured_year, при его отсутствии model_year.
// В хранилище год закодирован строкой, мусорные значения просто не матчатся.
const candidateYearExpr = "(CASE WHEN l.manufactured_year ~ '^[0-9]{4}$' THEN l.manufactured_year::int WHEN l.model_year ~ '^[0-9]{4}$' THEN l.model_year::int END)"

// applyComparableFilter строит WHERE по переменной части фильтра уровня.
// Каждое необязательное поле добавляет свое условие только когда оно задано.
func applyComparableFilter(filter domain.ComparableFilter) (string, []interface{}) {
	qb := newQueryBuilder()

	qb.addCondition("%s <> $%d", "l.id", filter.ExcludeID)

	if filter.VehicleType != "" {
		qb.addCondition("%s = $%d", "l.vehicle_type", filter.VehicleType)
	}

	// Поиск подстроки без учета регистра, как в остальных выборках по каталогу
	if filter.BrandSubstring != "" {
		qb.addCondition("%s ILIKE $%d", "l.brand", "%"+filter.BrandSubstring+"%")
	}
	if filter.ModelSubstring != "" {
		qb.addCondition("%s ILIKE $%d", "l.model", "%"+filter.ModelSubstring+"%")
	}

	if len(filter.Years) > 0 {
		years := make([]int32, len(filter.Years))
		for i, y := range filter.Years {
			years[i] = int32(y)
		}
		qb.addCondition("%s = ANY($%d)", candidateYearExpr, years)
	}

	return qb.build()
}
