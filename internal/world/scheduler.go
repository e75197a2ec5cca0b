package world

import (
	"container/heap"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// scheduledUpdate - отложенный обратный вызов для позиции
type scheduledUpdate struct {
	pos   vec.Vec3
	due   uint64
	seq   uint64
	fn    block.UpdateFunc
	index int
}

// updateQueue - min-куча по (due, seq)
type updateQueue []*scheduledUpdate

func (q updateQueue) Len() int { return len(q) }

func (q updateQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q updateQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *updateQueue) Push(x interface{}) {
	u := x.(*scheduledUpdate)
	u.index = len(*q)
	*q = append(*q, u)
}

func (q *updateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	u := old[n-1]
	old[n-1] = nil
	u.index = -1
	*q = old[:n-1]
	return u
}

// Scheduler - тиковый планировщик уникальных отложенных вызовов.
// На каждую позицию приходится не больше одного ожидающего вызова: повторное
// планирование переносит срок и заменяет функцию. Вызовы срабатывают в порядке
// срока, при равенстве - в порядке планирования.
type Scheduler struct {
	tick  uint64
	seq   uint64
	byPos map[vec.Vec3]*scheduledUpdate
	queue updateQueue
}

// NewScheduler создаёт пустой планировщик
func NewScheduler() *Scheduler {
	return &Scheduler{byPos: make(map[vec.Vec3]*scheduledUpdate)}
}

// Schedule планирует fn для pos через delay тиков (минимум 1)
func (s *Scheduler) Schedule(pos vec.Vec3, delay int, fn block.UpdateFunc) {
	if delay < 1 {
		delay = 1
	}
	s.seq++
	due := s.tick + uint64(delay)

	if u, exists := s.byPos[pos]; exists {
		u.due = due
		u.seq = s.seq
		u.fn = fn
		heap.Fix(&s.queue, u.index)
		return
	}

	u := &scheduledUpdate{pos: pos, due: due, seq: s.seq, fn: fn}
	s.byPos[pos] = u
	heap.Push(&s.queue, u)
}

// IsScheduled сообщает, ожидает ли позиция вызова, и на какой тик
func (s *Scheduler) IsScheduled(pos vec.Vec3) (uint64, bool) {
	u, ok := s.byPos[pos]
	if !ok {
		return 0, false
	}
	return u.due, true
}

// Pending возвращает число ожидающих вызовов
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// CurrentTick возвращает номер текущего тика
func (s *Scheduler) CurrentTick() uint64 {
	return s.tick
}

// NextDue возвращает тик ближайшего вызова
func (s *Scheduler) NextDue() (uint64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].due, true
}

// SkipIdle перематывает время к тику перед ближайшим вызовом и возвращает
// число пропущенных тиков
func (s *Scheduler) SkipIdle() uint64 {
	next, ok := s.NextDue()
	if !ok || next <= s.tick+1 {
		return 0
	}
	skipped := next - 1 - s.tick
	s.tick = next - 1
	return skipped
}

// Advance переходит к следующему тику и извлекает все наступившие вызовы
func (s *Scheduler) Advance() []scheduledUpdate {
	s.tick++

	var due []scheduledUpdate
	for len(s.queue) > 0 && s.queue[0].due <= s.tick {
		u := heap.Pop(&s.queue).(*scheduledUpdate)
		delete(s.byPos, u.pos)
		due = append(due, *u)
	}
	return due
}
