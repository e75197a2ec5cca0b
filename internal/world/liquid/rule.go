package liquid

import (
	"github.com/annel0/liquidsim/internal/logging"
	"github.com/annel0/liquidsim/internal/observability"
	"github.com/annel0/liquidsim/internal/world/block"
)

// Значения по умолчанию
const (
	DefaultReplaceableThreshold = 5000
	DefaultSearchRadius         = 3
	DefaultSpreadDelay          = 150
)

// Rule - настройки растекания и столкновений одного семейства жидкости
type Rule struct {
	Family             block.Family
	SpreadDelay        int          // Задержка повторной оценки, тики
	CollidesWith       block.Family // Семейство, с которым жидкость реагирует
	SourceReplacement  string       // Код блока при вытеснении чужого источника
	FlowingReplacement string       // Код блока при вытеснении чужого потока
	CollisionSound     string
}

// Settings - общие параметры движка
type Settings struct {
	// ReplaceableThreshold - блоки с заменяемостью не ниже порога считаются открытым пространством
	ReplaceableThreshold int
	// SearchRadius - максимальное манхэттенское расстояние затравок поиска пути вниз
	SearchRadius int
	// DefaultSpreadDelay - задержка для семейств без явного правила
	DefaultSpreadDelay int
}

// DefaultSettings возвращает параметры по умолчанию
func DefaultSettings() Settings {
	return Settings{
		ReplaceableThreshold: DefaultReplaceableThreshold,
		SearchRadius:         DefaultSearchRadius,
		DefaultSpreadDelay:   DefaultSpreadDelay,
	}
}

// Option настраивает Engine
type Option func(*Engine)

// WithLogger задаёт логгер движка
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetrics задаёт метрики движка
func WithMetrics(m *observability.SimMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}
