package liquid

import (
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// Виды растекания для метрик
const (
	spreadDown       = "down"
	spreadHorizontal = "horizontal"
	spreadPath       = "path"
)

// CanSpreadInto сообщает, может ли жидкость our занять ячейку с блоком other:
// либо там та же жидкость строго меньшего уровня, либо чужой блок с
// заменяемостью не ниже порога.
func (e *Engine) CanSpreadInto(our, other block.Type) bool {
	sameLiquid := our.SameLiquid(other)
	return (sameLiquid && other.LiquidLevel < our.LiquidLevel) ||
		(!sameLiquid && other.Replaceable >= e.settings.ReplaceableThreshold)
}

// trySpreadDownwards стекает в ячейку под pos падающим потоком уровня 6
func (e *Engine) trySpreadDownwards(api block.BlockAPI, pos vec.Vec3, our block.Type) {
	npos := pos.DownCopy()
	neighbor := api.GetBlock(npos)
	if !e.CanSpreadInto(our, neighbor) {
		return
	}

	if e.isDifferentCollidableLiquid(our, neighbor) {
		e.replaceLiquidBlock(api, our, neighbor, npos)
		e.tryFindSourceAndSpread(api, npos, our.Family)
		return
	}

	id, ok := e.fallingLiquidBlockID(our)
	if !ok {
		return
	}
	e.metrics.ObserveSpread(string(our.Family), spreadDown)
	e.spreadLiquid(api, id, npos)
}

// trySpreadHorizontal пытается растечься во все четыре стороны независимо
func (e *Engine) trySpreadHorizontal(api block.BlockAPI, pos vec.Vec3, our block.Type) {
	for _, face := range vec.Horizontals {
		e.trySpreadIntoBlock(api, our, pos.Add(face), spreadHorizontal)
	}
}

func (e *Engine) trySpreadIntoBlock(api block.BlockAPI, our block.Type, npos vec.Vec3, kind string) {
	neighbor := api.GetBlock(npos)
	if !e.CanSpreadInto(our, neighbor) {
		return
	}

	if e.isDifferentCollidableLiquid(our, neighbor) {
		e.replaceLiquidBlock(api, our, neighbor, npos)
		return
	}

	id, ok := e.lessLiquidBlockID(our)
	if !ok {
		return
	}
	e.metrics.ObserveSpread(string(our.Family), kind)
	e.spreadLiquid(api, id, npos)
}

// flowTowardDownwardPaths растекается в первые клетки всех найденных путей
func (e *Engine) flowTowardDownwardPaths(api block.BlockAPI, paths []PathCandidate, our block.Type) {
	for _, p := range paths {
		e.trySpreadIntoBlock(api, our, p.Pos, spreadPath)
	}
}

// spreadLiquid записывает блок, планирует его оценку и сразу превращает
// соседние чужие жидкости, чтобы несовместимые жидкости не оставались рядом.
// Запись воздуха (полное осушение) новую оценку не планирует.
func (e *Engine) spreadLiquid(api block.BlockAPI, id block.BlockID, pos vec.Vec3) {
	api.SetBlock(pos, id)
	if id == block.AirBlockID {
		return
	}

	placed, ok := e.registry.Get(id)
	if !ok {
		return
	}
	e.scheduleUpdate(api, pos, placed)
	e.tryReplaceNearbyLiquidBlocks(api, placed, pos)
}

// tryReplaceNearbyLiquidBlocks превращает горизонтальных соседей pos,
// если там жидкость, с которой our сталкивается
func (e *Engine) tryReplaceNearbyLiquidBlocks(api block.BlockAPI, our block.Type, pos vec.Vec3) {
	for _, face := range vec.Horizontals {
		e.collideWith(api, our, pos.Add(face))
	}
}

// tryFindSourceAndSpread поднимается от start по столбу своей жидкости до
// источника и растекается от него в стороны. Возвращает false, если
// источник не найден.
func (e *Engine) tryFindSourceAndSpread(api block.BlockAPI, start vec.Vec3, family block.Family) bool {
	pos := start.UpCopy()
	b := api.GetBlock(pos)
	for b.IsLiquid() && b.Family == family {
		if b.IsSource() {
			e.trySpreadHorizontal(api, pos, b)
			return true
		}
		pos = pos.UpCopy()
		b = api.GetBlock(pos)
	}
	return false
}
