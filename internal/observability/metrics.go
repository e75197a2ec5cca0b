package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SimMetrics - Prometheus-метрики симуляции жидкостей.
// Все методы безопасны для nil-получателя: движок без метрик просто их не пишет.
//
// Метрики:
// * liquidsim_evaluations_total - отложенные оценки позиций
// * liquidsim_lowered_total{family} - понижения уровня
// * liquidsim_spread_total{family,kind} - растекания (down/horizontal/path)
// * liquidsim_collisions_total{family,displaced} - превращения при столкновении
// * liquidsim_path_candidates - число путей, найденных за поиск
// * liquidsim_config_errors_total - пропуски из-за неразрешимой конфигурации
// * liquidsim_pending_updates - запланированные обратные вызовы
// * liquidsim_ticks_total - обработанные тики
type SimMetrics struct {
	evaluations    prometheus.Counter
	lowered        *prometheus.CounterVec
	spread         *prometheus.CounterVec
	collisions     *prometheus.CounterVec
	pathCandidates prometheus.Histogram
	configErrors   prometheus.Counter
	pending        prometheus.Gauge
	ticks          prometheus.Counter
}

// NewSimMetrics создаёт метрики и регистрирует их в reg (если reg не nil).
// Для глобального регистра передайте prometheus.DefaultRegisterer.
func NewSimMetrics(reg prometheus.Registerer) *SimMetrics {
	const ns = "liquidsim"
	m := &SimMetrics{
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "evaluations_total",
			Help:      "Число отложенных оценок позиций.",
		}),
		lowered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "lowered_total",
			Help:      "Понижения уровня жидкости.",
		}, []string{"family"}),
		spread: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "spread_total",
			Help:      "Растекания жидкости по видам.",
		}, []string{"family", "kind"}),
		collisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "collisions_total",
			Help:      "Превращения при столкновении разных жидкостей.",
		}, []string{"family", "displaced"}),
		pathCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "path_candidates",
			Help:      "Число путей к обрыву, возвращённых поиском.",
			Buckets:   []float64{0, 1, 2, 3, 4, 8},
		}),
		configErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "config_errors_total",
			Help:      "Операции, пропущенные из-за неразрешимой ссылки в конфигурации.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "pending_updates",
			Help:      "Запланированные обратные вызовы.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "ticks_total",
			Help:      "Обработанные тики.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.evaluations, m.lowered, m.spread, m.collisions,
			m.pathCandidates, m.configErrors, m.pending, m.ticks)
	}
	return m
}

func (m *SimMetrics) ObserveEvaluation() {
	if m == nil {
		return
	}
	m.evaluations.Inc()
}

func (m *SimMetrics) ObserveLowered(family string) {
	if m == nil {
		return
	}
	m.lowered.WithLabelValues(family).Inc()
}

func (m *SimMetrics) ObserveSpread(family, kind string) {
	if m == nil {
		return
	}
	m.spread.WithLabelValues(family, kind).Inc()
}

func (m *SimMetrics) ObserveCollision(family, displaced string) {
	if m == nil {
		return
	}
	m.collisions.WithLabelValues(family, displaced).Inc()
}

func (m *SimMetrics) ObservePathSearch(found int) {
	if m == nil {
		return
	}
	m.pathCandidates.Observe(float64(found))
}

func (m *SimMetrics) ObserveConfigError() {
	if m == nil {
		return
	}
	m.configErrors.Inc()
}

// ObserveTick отмечает обработанный тик и текущий размер очереди
func (m *SimMetrics) ObserveTick(pending int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.pending.Set(float64(pending))
}
