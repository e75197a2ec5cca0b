package liquid

import (
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// tryLoweringLiquidLevel понижает уровень потока, не связанного с более
// высоким уровнем своего семейства. Источники никогда не понижаются сами.
func (e *Engine) tryLoweringLiquidLevel(api block.BlockAPI, pos vec.Vec3, our block.Type) bool {
	if our.IsSource() {
		return false
	}
	if e.MaxNeighborLevel(api, pos, our) > our.LiquidLevel {
		return false
	}
	e.lowerLiquidLevelAndNotifyNeighbors(api, pos, our)
	return true
}

// lowerLiquidLevelAndNotifyNeighbors заменяет блок вариантом на уровень ниже
// (или воздухом) и уведомляет всех шестерых соседей
func (e *Engine) lowerLiquidLevelAndNotifyNeighbors(api block.BlockAPI, pos vec.Vec3, our block.Type) {
	id, ok := e.lessLiquidBlockID(our)
	if !ok {
		return
	}
	e.metrics.ObserveLowered(string(our.Family))
	e.spreadLiquid(api, id, pos)
	e.notifyNeighbors(api, pos)
}

// MaxNeighborLevel возвращает наибольший уровень своего семейства среди
// соседей. Та же жидкость сверху означает полную подпитку и даёт 7.
func (e *Engine) MaxNeighborLevel(api block.BlockAPI, pos vec.Vec3, our block.Type) int {
	if our.SameLiquid(api.GetBlock(pos.UpCopy())) {
		return block.MaxLiquidLevel
	}

	level := 0
	for _, face := range vec.Horizontals {
		n := api.GetBlock(pos.Add(face))
		if our.SameLiquid(n) && n.LiquidLevel > level {
			level = n.LiquidLevel
		}
	}
	return level
}

// lessLiquidBlockID возвращает ID варианта на уровень ниже; для уровня 1 - воздух
func (e *Engine) lessLiquidBlockID(our block.Type) (block.BlockID, bool) {
	id, ok := e.registry.LiquidVariant(our.Family, our.LiquidLevel-1)
	if !ok {
		e.log.Warn("Нет варианта %s уровня %d", our.Family, our.LiquidLevel-1)
		e.metrics.ObserveConfigError()
	}
	return id, ok
}

// fallingLiquidBlockID возвращает ID падающего потока (уровень 6)
func (e *Engine) fallingLiquidBlockID(our block.Type) (block.BlockID, bool) {
	id, ok := e.registry.LiquidVariant(our.Family, block.FallingLiquidLevel)
	if !ok {
		e.log.Warn("Нет варианта %s уровня %d", our.Family, block.FallingLiquidLevel)
		e.metrics.ObserveConfigError()
	}
	return id, ok
}
