package world

import (
	"errors"

	"github.com/annel0/liquidsim/internal/vec"
)

// ErrOutOfBounds возвращается при записи за границы мира
var ErrOutOfBounds = errors.New("position is out of world bounds")

// Bounds - конечная область мира (границы включительно). Сверху высота не
// ограничена: жидкость не поднимается, а источники ставятся над рельефом.
type Bounds struct {
	MinX, MaxX int
	MinY       int
	MinZ, MaxZ int
}

// Contains сообщает, лежит ли pos внутри области
func (b Bounds) Contains(pos vec.Vec3) bool {
	return pos.X >= b.MinX && pos.X <= b.MaxX &&
		pos.Y >= b.MinY &&
		pos.Z >= b.MinZ && pos.Z <= b.MaxZ
}

// Bounds возвращает наименьшую область, содержащую все непустые ячейки.
// Для пустой сетки ok == false.
func (g *Grid) Bounds() (b Bounds, ok bool) {
	for pos := range g.cells {
		if !ok {
			b = Bounds{MinX: pos.X, MaxX: pos.X, MinY: pos.Y, MinZ: pos.Z, MaxZ: pos.Z}
			ok = true
			continue
		}
		b.MinX = min(b.MinX, pos.X)
		b.MaxX = max(b.MaxX, pos.X)
		b.MinY = min(b.MinY, pos.Y)
		b.MinZ = min(b.MinZ, pos.Z)
		b.MaxZ = max(b.MaxZ, pos.Z)
	}
	return b, ok
}

// Bounds возвращает область, которую занимает рельеф генератора
func (g *Generator) Bounds() Bounds {
	return Bounds{MaxX: g.SizeX - 1, MaxZ: g.SizeZ - 1}
}
