// Package liquid реализует конечные растекающиеся жидкости: уровни 1..7,
// источники, поиск стока вниз и превращение при столкновении разных жидкостей.
//
// Движок не хранит состояние мира. Всё чтение и запись идут через
// block.BlockAPI, а повторные оценки планируются хостом с дебаунсом по позиции.
package liquid

import (
	"fmt"

	"github.com/annel0/liquidsim/internal/logging"
	"github.com/annel0/liquidsim/internal/observability"
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// Engine - поведение конечной растекающейся жидкости. Один экземпляр
// обслуживает все семейства и привязывается ко всем их вариантам уровней.
type Engine struct {
	registry *block.Registry
	settings Settings
	rules    map[block.Family]Rule
	offsets  []vec.Vec2

	log     *logging.Logger
	metrics *observability.SimMetrics
}

var _ block.Behavior = (*Engine)(nil)

// NewEngine создаёт движок и регистрирует его поведением всех жидких блоков реестра
func NewEngine(reg *block.Registry, settings Settings, rules []Rule, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("реестр блоков не задан")
	}
	if settings.ReplaceableThreshold <= 0 {
		settings.ReplaceableThreshold = DefaultReplaceableThreshold
	}
	if settings.SearchRadius <= 0 {
		settings.SearchRadius = DefaultSearchRadius
	}
	if settings.DefaultSpreadDelay <= 0 {
		settings.DefaultSpreadDelay = DefaultSpreadDelay
	}

	e := &Engine{
		registry: reg,
		settings: settings,
		rules:    make(map[block.Family]Rule, len(rules)),
		offsets:  SearchOffsets(settings.SearchRadius),
		log:      logging.GetLiquidLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, r := range rules {
		if _, ok := reg.LiquidVariant(r.Family, 1); !ok {
			return nil, fmt.Errorf("правило для незарегистрированного семейства %q", r.Family)
		}
		if _, dup := e.rules[r.Family]; dup {
			return nil, fmt.Errorf("повторное правило для семейства %q", r.Family)
		}
		if r.SpreadDelay <= 0 {
			return nil, fmt.Errorf("семейство %q: задержка растекания должна быть положительной", r.Family)
		}
		for _, code := range []string{r.SourceReplacement, r.FlowingReplacement} {
			if code == "" {
				continue
			}
			if _, ok := reg.ByCode(code); !ok {
				e.log.Warn("Семейство %s: блок замены %q не найден, столкновения будут пропускаться", r.Family, code)
			}
		}
		e.rules[r.Family] = r
	}

	for _, family := range reg.Families() {
		if _, ok := e.rules[family]; !ok {
			e.rules[family] = Rule{Family: family, SpreadDelay: settings.DefaultSpreadDelay}
		}
		for level := 1; level <= block.MaxLiquidLevel; level++ {
			id, _ := reg.LiquidVariant(family, level)
			reg.SetBehavior(id, e)
		}
	}

	return e, nil
}

// Settings возвращает действующие параметры движка
func (e *Engine) Settings() Settings {
	return e.settings
}

// Rule возвращает правило семейства
func (e *Engine) Rule(family block.Family) (Rule, bool) {
	r, ok := e.rules[family]
	return r, ok
}

// OnPlaced планирует первую оценку только что установленной жидкости
func (e *Engine) OnPlaced(api block.BlockAPI, pos vec.Vec3) {
	e.scheduleUpdate(api, pos, api.GetBlock(pos))
}

// OnNeighborChange планирует повторную оценку при изменении соседа
func (e *Engine) OnNeighborChange(api block.BlockAPI, pos, neighbor vec.Vec3) {
	e.scheduleUpdate(api, pos, api.GetBlock(pos))
}

// IsReplaceableBy разрешает заменить жидкость (или открытую ячейку) блоком,
// заменяемость которого не выше собственной
func (e *Engine) IsReplaceableBy(own, by block.Type) bool {
	return (own.IsLiquid() || own.Replaceable >= e.settings.ReplaceableThreshold) && by.Replaceable <= own.Replaceable
}

// Evaluate - отложенный обратный вызов: одна оценка позиции и фиксация пакета записей
func (e *Engine) Evaluate(api block.BlockAPI, pos vec.Vec3) error {
	e.metrics.ObserveEvaluation()
	e.spreadAndUpdateLiquidLevels(api, pos)
	return api.Commit()
}

// spreadAndUpdateLiquidLevels выбирает первую подходящую ветку:
// понижение, падение вниз, сток к ближайшему обрыву, подпитка от источника
// или растекание в стороны.
func (e *Engine) spreadAndUpdateLiquidLevels(api block.BlockAPI, pos vec.Vec3) {
	// Блок мог измениться с момента планирования
	our := api.GetBlock(pos)
	if !our.IsLiquid() {
		return
	}

	if e.tryLoweringLiquidLevel(api, pos, our) {
		return
	}

	below := api.GetBlock(pos.DownCopy())
	onSolidGround := below.Replaceable < e.settings.ReplaceableThreshold
	if !onSolidGround {
		e.trySpreadDownwards(api, pos, our)
		return
	}
	if our.LiquidLevel <= 1 {
		return
	}

	paths := e.FindDownwardPaths(api, pos, our)
	if len(paths) > 0 {
		e.flowTowardDownwardPaths(api, paths, our)
		return
	}
	if e.tryFindSourceAndSpread(api, pos, our.Family) {
		return
	}
	e.trySpreadHorizontal(api, pos, our)
}

func (e *Engine) ruleFor(t block.Type) Rule {
	if r, ok := e.rules[t.Family]; ok {
		return r
	}
	return Rule{Family: t.Family, SpreadDelay: e.settings.DefaultSpreadDelay}
}

func (e *Engine) scheduleUpdate(api block.BlockAPI, pos vec.Vec3, t block.Type) {
	api.ScheduleUniqueDelayed(pos, e.ruleFor(t).SpreadDelay, e.Evaluate)
}

// notifyNeighbors уведомляет все шесть соседей об изменении блока в pos
func (e *Engine) notifyNeighbors(api block.BlockAPI, pos vec.Vec3) {
	for _, face := range vec.AllFaces {
		api.NotifyNeighborChanged(pos.Add(face), pos)
	}
}
