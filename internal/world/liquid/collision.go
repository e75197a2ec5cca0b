package liquid

import (
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// isDifferentCollidableLiquid - обе ячейки жидкие, семейства разные и
// семейство other указано в правиле our как реагирующее
func (e *Engine) isDifferentCollidableLiquid(our, other block.Type) bool {
	if !our.IsLiquid() || !other.IsLiquid() || our.SameLiquid(other) {
		return false
	}
	rule := e.ruleFor(our)
	return rule.CollidesWith != block.NoFamily && rule.CollidesWith == other.Family
}

// ResolveCollision превращает жидкость в target, если она сталкивается с
// жидкостью в ourPos. Повторный вызов для уже затвердевшей ячейки ничего не
// меняет. Записи буферизуются до Commit.
func (e *Engine) ResolveCollision(api block.BlockAPI, ourPos, target vec.Vec3) bool {
	return e.collideWith(api, api.GetBlock(ourPos), target)
}

// collideWith - то же, что ResolveCollision, но для жидкости our, которая
// ещё не зафиксирована в сетке
func (e *Engine) collideWith(api block.BlockAPI, our block.Type, target vec.Vec3) bool {
	other := api.GetBlock(target)
	if !e.isDifferentCollidableLiquid(our, other) {
		return false
	}
	return e.replaceLiquidBlock(api, our, other, target)
}

// replaceLiquidBlock записывает в pos блок замены из правила our, выбирая его
// по тому, источник ли вытесняемая жидкость displaced
func (e *Engine) replaceLiquidBlock(api block.BlockAPI, our, displaced block.Type, pos vec.Vec3) bool {
	rule := e.ruleFor(our)

	code := rule.FlowingReplacement
	if displaced.IsSource() {
		code = rule.SourceReplacement
	}

	replacement, ok := e.registry.ByCode(code)
	if code == "" || !ok {
		e.log.Warn("Столкновение %s/%s в %v: блок замены %q не найден, замена пропущена",
			our.Family, displaced.Family, pos, code)
		e.metrics.ObserveConfigError()
		return false
	}

	api.SetBlock(pos, replacement.ID)
	e.notifyNeighbors(api, pos)
	api.SpawnParticles(SteamParticles(pos))
	if rule.CollisionSound != "" {
		api.PlaySound(pos, rule.CollisionSound)
	}
	api.ScheduleUniqueDelayed(pos.UpCopy(), rule.SpreadDelay, e.Evaluate)

	e.metrics.ObserveCollision(string(our.Family), string(displaced.Family))
	e.log.Debug("Столкновение %s с %s в %v → %s", our.Family, displaced.Family, pos, replacement.Code)
	return true
}
