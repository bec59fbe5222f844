package constants

// DefaultMaxComparables - верхняя граница выборки похожих объявлений на один
// уровень каскада. Это вычислительный предел, а не бизнес-правило: дальше
// считается только среднее, порядок строк не важен. Переопределяется через
// MAX_COMPARABLES.
const DefaultMaxComparables = 50
