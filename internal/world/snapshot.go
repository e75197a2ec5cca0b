package world

import (
	"fmt"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// SnapshotCell - ячейка снимка. Блок хранится кодом, а не ID: ID зависят от
// порядка регистрации и между запусками могут отличаться.
type SnapshotCell struct {
	Pos  vec.Vec3 `json:"pos"`
	Code string   `json:"code"`
}

// Snapshot - переносимый снимок сетки
type Snapshot struct {
	Name  string         `json:"name"`
	Tick  uint64         `json:"tick"`
	Cells []SnapshotCell `json:"cells"`
}

// TakeSnapshot сохраняет содержимое сетки мира
func (w *World) TakeSnapshot(name string) (Snapshot, error) {
	cells := w.grid.Cells()
	snap := Snapshot{
		Name:  name,
		Tick:  w.scheduler.CurrentTick(),
		Cells: make([]SnapshotCell, 0, len(cells)),
	}
	for _, c := range cells {
		t, ok := w.registry.Get(c.ID)
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: id=%d в %v", block.ErrUnknownBlock, c.ID, c.Pos)
		}
		snap.Cells = append(snap.Cells, SnapshotCell{Pos: c.Pos, Code: t.Code})
	}
	return snap, nil
}

// RestoreGrid строит сетку из снимка по кодам реестра
func RestoreGrid(snap Snapshot, reg *block.Registry) (*Grid, error) {
	grid := NewGrid()
	for _, c := range snap.Cells {
		t, ok := reg.ByCode(c.Code)
		if !ok {
			return nil, fmt.Errorf("%w: код %q в %v", block.ErrUnknownBlock, c.Code, c.Pos)
		}
		grid.Set(c.Pos, t.ID)
	}
	return grid, nil
}

// Census - число ячеек по кодам блоков
type Census map[string]int

// TakeCensus подсчитывает блоки сетки по кодам
func (w *World) TakeCensus() Census {
	census := make(Census)
	for _, c := range w.grid.Cells() {
		if t, ok := w.registry.Get(c.ID); ok {
			census[t.Code]++
		} else {
			census["unknown"]++
		}
	}
	return census
}

// LiquidVolume возвращает суммарный уровень жидкости семейства в сетке
func (w *World) LiquidVolume(family block.Family) int {
	total := 0
	for _, c := range w.grid.Cells() {
		if t, ok := w.registry.Get(c.ID); ok && t.Family == family {
			total += t.LiquidLevel
		}
	}
	return total
}

// WakeAll вызывает OnPlaced для каждого блока сетки, у которого есть
// поведение. Нужен после восстановления из снимка: очередь обновлений в
// снимок не попадает.
func (w *World) WakeAll() int {
	woken := 0
	for _, c := range w.grid.Cells() {
		if b, ok := w.registry.Behavior(c.ID); ok {
			b.OnPlaced(w, c.Pos)
			woken++
		}
	}
	return woken
}
