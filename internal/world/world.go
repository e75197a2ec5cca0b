package world

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/annel0/liquidsim/internal/logging"
	"github.com/annel0/liquidsim/internal/observability"
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// ErrNotReplaceable возвращается PlaceBlock, если текущий блок запрещает замену
var ErrNotReplaceable = errors.New("block is not replaceable")

// ErrInvalidTickLimit возвращается RunUntilIdle для неположительного предела
var ErrInvalidTickLimit = errors.New("tick limit must be positive")

// World - однопоточный хост симуляции: сетка, планировщик и приёмник эффектов.
// Реализует block.BlockAPI: чтение идёт из живой сетки, запись копится в
// буфере и применяется в Commit.
type World struct {
	registry  *block.Registry
	grid      *Grid
	scheduler *Scheduler
	effects   EffectSink
	changes   ChangeSink
	bounds    *Bounds

	staged      map[vec.Vec3]block.BlockID
	stagedOrder []vec.Vec3
	corrupt     error

	log     *logging.Logger
	metrics *observability.SimMetrics
	tracer  oteltrace.Tracer
}

var _ block.BlockAPI = (*World)(nil)

// Option настраивает World
type Option func(*World)

// WithEffects задаёт приёмник звуков и частиц
func WithEffects(sink EffectSink) Option {
	return func(w *World) {
		if sink != nil {
			w.effects = sink
		}
	}
}

// WithChanges задаёт приёмник изменений сетки
func WithChanges(sink ChangeSink) Option {
	return func(w *World) {
		w.changes = sink
	}
}

// WithBounds ограничивает мир областью b. Без него мир бесконечен.
func WithBounds(b Bounds) Option {
	return func(w *World) {
		w.bounds = &b
	}
}

// WithMetrics задаёт метрики хоста
func WithMetrics(m *observability.SimMetrics) Option {
	return func(w *World) {
		w.metrics = m
	}
}

// WithLogger задаёт логгер хоста
func WithLogger(l *logging.Logger) Option {
	return func(w *World) {
		w.log = l
	}
}

// NewWorld создаёт мир поверх сетки. Если grid равен nil, создаётся пустая сетка.
func NewWorld(reg *block.Registry, grid *Grid, opts ...Option) *World {
	if grid == nil {
		grid = NewGrid()
	}
	w := &World{
		registry:  reg,
		grid:      grid,
		scheduler: NewScheduler(),
		effects:   NopEffects{},
		staged:    make(map[vec.Vec3]block.BlockID),
		log:       logging.GetWorldLogger(),
		tracer:    observability.Tracer(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Registry возвращает реестр блоков мира
func (w *World) Registry() *block.Registry {
	return w.registry
}

// Grid возвращает живую сетку
func (w *World) Grid() *Grid {
	return w.grid
}

// Scheduler возвращает планировщик
func (w *World) Scheduler() *Scheduler {
	return w.scheduler
}

// Bounds возвращает границы мира; ok == false для бесконечного мира
func (w *World) Bounds() (Bounds, bool) {
	if w.bounds == nil {
		return Bounds{}, false
	}
	return *w.bounds, true
}

func (w *World) inBounds(pos vec.Vec3) bool {
	return w.bounds == nil || w.bounds.Contains(pos)
}

// GetBlock возвращает тип блока из живой сетки. За границами мира - block.Void.
// Незарегистрированный ID запоминается как повреждение сетки и возвращается
// ошибкой из Commit.
func (w *World) GetBlock(pos vec.Vec3) block.Type {
	if !w.inBounds(pos) {
		return block.Void
	}
	id := w.grid.Get(pos)
	t, ok := w.registry.Get(id)
	if !ok {
		if w.corrupt == nil {
			w.corrupt = fmt.Errorf("%w: id=%d в %v", block.ErrUnknownBlock, id, pos)
		}
		return block.Type{ID: id, Code: "unknown"}
	}
	return t
}

// SetBlock буферизует запись. Повторная запись в ту же позицию заменяет предыдущую.
func (w *World) SetBlock(pos vec.Vec3, id block.BlockID) {
	if _, exists := w.staged[pos]; !exists {
		w.stagedOrder = append(w.stagedOrder, pos)
	}
	w.staged[pos] = id
}

// Commit применяет буфер записей целиком или не применяет ничего
func (w *World) Commit() error {
	defer w.resetStaged()

	if err := w.takeCorrupt(); err != nil {
		return err
	}

	for _, pos := range w.stagedOrder {
		if id := w.staged[pos]; !w.registry.IsValidBlockID(id) {
			return fmt.Errorf("%w: запись id=%d в %v", block.ErrUnknownBlock, id, pos)
		}
		if !w.inBounds(pos) {
			return fmt.Errorf("%w: запись в %v", ErrOutOfBounds, pos)
		}
	}
	for _, pos := range w.stagedOrder {
		w.setCell(pos, w.staged[pos])
	}
	return nil
}

// setCell пишет в сетку и сообщает приёмнику изменений, если блок сменился
func (w *World) setCell(pos vec.Vec3, id block.BlockID) {
	prev := w.grid.Get(pos)
	w.grid.Set(pos, id)
	if w.changes == nil || prev == id {
		return
	}
	from, _ := w.registry.Get(prev)
	to, _ := w.registry.Get(id)
	w.changes.BlockChanged(BlockChange{
		Pos:  pos,
		From: from.Code,
		To:   to.Code,
		Tick: w.scheduler.CurrentTick(),
	})
}

func (w *World) resetStaged() {
	if len(w.stagedOrder) == 0 {
		return
	}
	w.staged = make(map[vec.Vec3]block.BlockID)
	w.stagedOrder = w.stagedOrder[:0]
}

// NotifyNeighborChanged передаёт событие поведению блока в pos
func (w *World) NotifyNeighborChanged(pos, source vec.Vec3) {
	t := w.GetBlock(pos)
	if b, ok := w.registry.Behavior(t.ID); ok {
		b.OnNeighborChange(w, pos, source)
	}
}

// ScheduleUniqueDelayed планирует обратный вызов с дебаунсом по позиции
func (w *World) ScheduleUniqueDelayed(pos vec.Vec3, delayTicks int, fn block.UpdateFunc) {
	w.scheduler.Schedule(pos, delayTicks, fn)
}

func (w *World) PlaySound(pos vec.Vec3, sound string) {
	w.effects.PlaySound(pos, sound)
}

func (w *World) SpawnParticles(spec block.ParticleSpec) {
	w.effects.SpawnParticles(spec)
}

// PlaceBlock - внешняя установка блока (игрок, генератор, загрузка сценария).
// Запись применяется сразу, соседи уведомляются, поведение нового блока
// получает OnPlaced. Повреждение сетки, найденное при уведомлении соседей,
// возвращается ошибкой, хотя сама запись уже применена.
func (w *World) PlaceBlock(pos vec.Vec3, id block.BlockID) error {
	placed, ok := w.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: id=%d", block.ErrUnknownBlock, id)
	}
	if !w.inBounds(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}

	current := w.GetBlock(pos)
	if err := w.takeCorrupt(); err != nil {
		return err
	}
	if b, ok := w.registry.Behavior(current.ID); ok && !b.IsReplaceableBy(current, placed) {
		return fmt.Errorf("%w: %s в %v нельзя заменить на %s", ErrNotReplaceable, current.Code, pos, placed.Code)
	}

	w.setCell(pos, id)
	for _, face := range vec.AllFaces {
		w.NotifyNeighborChanged(pos.Add(face), pos)
	}
	if b, ok := w.registry.Behavior(id); ok {
		b.OnPlaced(w, pos)
	}
	return w.takeCorrupt()
}

// takeCorrupt возвращает и сбрасывает запомненное повреждение сетки
func (w *World) takeCorrupt() error {
	err := w.corrupt
	w.corrupt = nil
	return err
}

// PlaceByCode устанавливает блок по его коду
func (w *World) PlaceByCode(pos vec.Vec3, code string) error {
	t, ok := w.registry.ByCode(code)
	if !ok {
		return fmt.Errorf("%w: код %q", block.ErrUnknownBlock, code)
	}
	return w.PlaceBlock(pos, t.ID)
}

// CurrentTick возвращает номер текущего тика
func (w *World) CurrentTick() uint64 {
	return w.scheduler.CurrentTick()
}

// Tick продвигает время на один тик и выполняет все наступившие вызовы
func (w *World) Tick(ctx context.Context) error {
	ctx, span := w.tracer.Start(ctx, "World.Tick")
	defer span.End()

	due := w.scheduler.Advance()
	span.SetAttributes(
		attribute.Int64("tick", int64(w.scheduler.CurrentTick())),
		attribute.Int("updates", len(due)),
	)

	for _, u := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := u.fn(w, u.pos); err != nil {
			span.RecordError(err)
			return fmt.Errorf("тик %d, позиция %v: %w", w.scheduler.CurrentTick(), u.pos, err)
		}
	}

	if len(due) > 0 {
		w.log.Trace("Тик %d: выполнено %d обновлений, в очереди %d",
			w.scheduler.CurrentTick(), len(due), w.scheduler.Pending())
	}
	w.metrics.ObserveTick(w.scheduler.Pending())
	return nil
}

// RunUntilIdle выполняет тики, пока очередь не опустеет или не пройдёт
// maxTicks игровых тиков. Тики без вызовов пропускаются без работы.
// Возвращает число прошедших игровых тиков.
func (w *World) RunUntilIdle(ctx context.Context, maxTicks int) (int, error) {
	if maxTicks < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTickLimit, maxTicks)
	}
	start := w.scheduler.CurrentTick()
	limit := start + uint64(maxTicks)

	for w.scheduler.Pending() > 0 {
		if next, _ := w.scheduler.NextDue(); next > limit {
			break
		}
		w.scheduler.SkipIdle()
		if err := w.Tick(ctx); err != nil {
			return int(w.scheduler.CurrentTick() - start), err
		}
	}

	elapsed := int(w.scheduler.CurrentTick() - start)
	if w.scheduler.Pending() > 0 {
		w.log.Warn("Симуляция не успокоилась за %d тиков: в очереди %d обновлений", maxTicks, w.scheduler.Pending())
	}
	return elapsed, nil
}
