package block

import (
	"github.com/annel0/liquidsim/internal/vec"
)

// UpdateFunc - отложенный обратный вызов для позиции
type UpdateFunc func(api BlockAPI, pos vec.Vec3) error

// BlockAPI определяет интерфейс для взаимодействия блоков с игровым миром.
// Чтение всегда идёт из живой сетки, запись буферизуется до Commit, поэтому
// в рамках одного прохода блок видит согласованный снимок мира.
type BlockAPI interface {
	// GetBlock возвращает тип блока в позиции (живая сетка, без учёта буфера).
	GetBlock(pos vec.Vec3) Type

	// SetBlock буферизует запись блока в позицию.
	SetBlock(pos vec.Vec3, id BlockID)

	// Commit атомарно применяет все буферизованные записи.
	Commit() error

	// NotifyNeighborChanged сообщает блоку в pos, что изменился блок source.
	NotifyNeighborChanged(pos, source vec.Vec3)

	// ScheduleUniqueDelayed планирует обратный вызов для позиции через delayTicks тиков.
	// Повторный запрос для той же позиции обновляет таймер, а не добавляет второй вызов.
	ScheduleUniqueDelayed(pos vec.Vec3, delayTicks int, fn UpdateFunc)

	// PlaySound воспроизводит звук в позиции. Не блокирует.
	PlaySound(pos vec.Vec3, sound string)

	// SpawnParticles порождает частицы по описанию. Не блокирует.
	SpawnParticles(spec ParticleSpec)
}
