package world

import (
	"github.com/annel0/liquidsim/internal/vec"
)

// BlockChange - изменение ячейки сетки, применённое Commit или PlaceBlock
type BlockChange struct {
	Pos  vec.Vec3 `json:"pos"`
	From string   `json:"from"` // Код прежнего блока
	To   string   `json:"to"`   // Код нового блока
	Tick uint64   `json:"tick"`
}

// ChangeSink получает изменения сетки в порядке применения
type ChangeSink interface {
	BlockChanged(change BlockChange)
}

// RecordingChanges запоминает изменения. Используется в тестах.
type RecordingChanges struct {
	Changes []BlockChange
}

func (r *RecordingChanges) BlockChanged(change BlockChange) {
	r.Changes = append(r.Changes, change)
}
