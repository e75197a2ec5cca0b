package world

import (
	"sort"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// Cell - непустая ячейка сетки
type Cell struct {
	Pos vec.Vec3      `json:"pos"`
	ID  block.BlockID `json:"id"`
}

// Grid - разреженная воксельная сетка. Отсутствующая ячейка - воздух.
type Grid struct {
	cells map[vec.Vec3]block.BlockID
}

// NewGrid создаёт пустую сетку
func NewGrid() *Grid {
	return &Grid{cells: make(map[vec.Vec3]block.BlockID)}
}

// Get возвращает ID блока в позиции
func (g *Grid) Get(pos vec.Vec3) block.BlockID {
	return g.cells[pos]
}

// Set записывает блок; воздух удаляет ячейку
func (g *Grid) Set(pos vec.Vec3, id block.BlockID) {
	if id == block.AirBlockID {
		delete(g.cells, pos)
		return
	}
	g.cells[pos] = id
}

// Len возвращает число непустых ячеек
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cells возвращает непустые ячейки в детерминированном порядке (Y, Z, X)
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, len(g.cells))
	for pos, id := range g.cells {
		cells = append(cells, Cell{Pos: pos, ID: id})
	}
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i].Pos, cells[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return cells
}

// Clone создаёт независимую копию сетки
func (g *Grid) Clone() *Grid {
	c := &Grid{cells: make(map[vec.Vec3]block.BlockID, len(g.cells))}
	for pos, id := range g.cells {
		c.cells[pos] = id
	}
	return c
}

// Fill заполняет прямоугольный объём блоком (границы включительно)
func (g *Grid) Fill(from, to vec.Vec3, id block.BlockID) {
	for y := min(from.Y, to.Y); y <= max(from.Y, to.Y); y++ {
		for z := min(from.Z, to.Z); z <= max(from.Z, to.Z); z++ {
			for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
				g.Set(vec.Vec3{X: x, Y: y, Z: z}, id)
			}
		}
	}
}
