package block

import (
	"github.com/annel0/liquidsim/internal/vec"
)

// Behavior определяет реакцию блока на события мира.
// Хост вызывает методы поведения, привязанного к типу блока в Registry.
type Behavior interface {
	// OnPlaced вызывается после внешней установки блока
	OnPlaced(api BlockAPI, pos vec.Vec3)
	// OnNeighborChange вызывается, когда изменился соседний блок neighbor
	OnNeighborChange(api BlockAPI, pos, neighbor vec.Vec3)
	// IsReplaceableBy решает, может ли блок own быть заменён блоком by
	IsReplaceableBy(own, by Type) bool
}
