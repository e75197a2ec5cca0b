package world

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBehavior запоминает вызовы поведения
type recordingBehavior struct {
	placed      []vec.Vec3
	neighbors   []vec.Vec3
	replaceable bool
}

func (b *recordingBehavior) OnPlaced(api block.BlockAPI, pos vec.Vec3) {
	b.placed = append(b.placed, pos)
}

func (b *recordingBehavior) OnNeighborChange(api block.BlockAPI, pos, neighbor vec.Vec3) {
	b.neighbors = append(b.neighbors, neighbor)
}

func (b *recordingBehavior) IsReplaceableBy(own, by block.Type) bool {
	return b.replaceable
}

func newTestRegistry(t *testing.T) (*block.Registry, block.BlockID) {
	t.Helper()
	reg := block.NewRegistry()
	stone, err := reg.Register("stone", 0)
	require.NoError(t, err)
	return reg, stone
}

func TestWorld_StagedWritesApplyOnCommit(t *testing.T) {
	reg, stone := newTestRegistry(t)
	w := NewWorld(reg, nil)
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}

	w.SetBlock(pos, stone)
	assert.Equal(t, block.AirBlockID, w.GetBlock(pos).ID, "До Commit чтение должно видеть живую сетку")

	require.NoError(t, w.Commit())
	assert.Equal(t, stone, w.GetBlock(pos).ID, "После Commit запись должна быть применена")
}

func TestWorld_LastStagedWriteWins(t *testing.T) {
	reg, stone := newTestRegistry(t)
	w := NewWorld(reg, nil)
	pos := vec.Vec3{}

	w.SetBlock(pos, stone)
	w.SetBlock(pos, block.AirBlockID)
	require.NoError(t, w.Commit())

	assert.Equal(t, 0, w.Grid().Len(), "Повторная запись должна заменить предыдущую")
}

func TestWorld_CommitRejectsUnknownIDAtomically(t *testing.T) {
	reg, stone := newTestRegistry(t)
	w := NewWorld(reg, nil)

	w.SetBlock(vec.Vec3{X: 1}, stone)
	w.SetBlock(vec.Vec3{X: 2}, block.BlockID(999))

	err := w.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, block.ErrUnknownBlock))
	assert.Equal(t, 0, w.Grid().Len(), "Пакет с неизвестным ID не должен применяться частично")

	require.NoError(t, w.Commit(), "Буфер должен быть очищен после ошибки")
}

func TestWorld_CorruptGridSurfacesAtCommit(t *testing.T) {
	reg, _ := newTestRegistry(t)
	grid := NewGrid()
	grid.Set(vec.Vec3{}, block.BlockID(500))
	w := NewWorld(reg, grid)

	typ := w.GetBlock(vec.Vec3{})
	assert.False(t, typ.IsLiquid())

	err := w.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, block.ErrUnknownBlock))
}

func TestWorld_PlaceBlockNotifiesAndCallsOnPlaced(t *testing.T) {
	reg, stone := newTestRegistry(t)
	beh := &recordingBehavior{replaceable: true}
	reg.SetBehavior(stone, beh)
	w := NewWorld(reg, nil)

	neighbor := vec.Vec3{X: 1}
	require.NoError(t, w.PlaceBlock(neighbor, stone))
	require.NoError(t, w.PlaceBlock(vec.Vec3{}, stone))

	assert.Equal(t, []vec.Vec3{neighbor, {}}, beh.placed)
	assert.Equal(t, []vec.Vec3{{}}, beh.neighbors, "Соседний камень должен получить уведомление")
}

func TestWorld_PlaceBlockRespectsReplaceability(t *testing.T) {
	reg, stone := newTestRegistry(t)
	reg.SetBehavior(stone, &recordingBehavior{replaceable: false})
	w := NewWorld(reg, nil)

	require.NoError(t, w.PlaceBlock(vec.Vec3{}, stone))
	err := w.PlaceBlock(vec.Vec3{}, block.AirBlockID)
	assert.True(t, errors.Is(err, ErrNotReplaceable))
	assert.Equal(t, stone, w.Grid().Get(vec.Vec3{}))
}

func TestWorld_TickRunsDueCallbacks(t *testing.T) {
	reg, stone := newTestRegistry(t)
	w := NewWorld(reg, nil)
	pos := vec.Vec3{Y: 1}

	w.ScheduleUniqueDelayed(pos, 2, func(api block.BlockAPI, p vec.Vec3) error {
		api.SetBlock(p, stone)
		return api.Commit()
	})

	require.NoError(t, w.Tick(context.Background()))
	assert.Equal(t, block.AirBlockID, w.Grid().Get(pos), "Вызов не должен сработать раньше срока")

	require.NoError(t, w.Tick(context.Background()))
	assert.Equal(t, stone, w.Grid().Get(pos))
	assert.Equal(t, 0, w.Scheduler().Pending())
}

func TestWorld_TickPropagatesCallbackError(t *testing.T) {
	reg, _ := newTestRegistry(t)
	w := NewWorld(reg, nil)
	boom := errors.New("boom")

	w.ScheduleUniqueDelayed(vec.Vec3{}, 1, func(block.BlockAPI, vec.Vec3) error { return boom })

	err := w.Tick(context.Background())
	assert.True(t, errors.Is(err, boom))
}

func TestWorld_RunUntilIdleSkipsEmptyTicks(t *testing.T) {
	reg, _ := newTestRegistry(t)
	w := NewWorld(reg, nil)

	calls := 0
	var again block.UpdateFunc
	again = func(api block.BlockAPI, pos vec.Vec3) error {
		calls++
		if calls < 3 {
			api.ScheduleUniqueDelayed(pos, 100, again)
		}
		return nil
	}
	w.ScheduleUniqueDelayed(vec.Vec3{}, 100, again)

	elapsed, err := w.RunUntilIdle(context.Background(), 10000)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 300, elapsed)
}

func TestWorld_RunUntilIdleStopsAtLimit(t *testing.T) {
	reg, _ := newTestRegistry(t)
	w := NewWorld(reg, nil)

	var forever block.UpdateFunc
	forever = func(api block.BlockAPI, pos vec.Vec3) error {
		api.ScheduleUniqueDelayed(pos, 10, forever)
		return nil
	}
	w.ScheduleUniqueDelayed(vec.Vec3{}, 10, forever)

	elapsed, err := w.RunUntilIdle(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, 50, elapsed)
	assert.Equal(t, 1, w.Scheduler().Pending())
}

func TestWorld_EffectsReachSink(t *testing.T) {
	reg, _ := newTestRegistry(t)
	rec := &RecordingEffects{}
	w := NewWorld(reg, nil, WithEffects(rec))

	w.PlaySound(vec.Vec3{X: 1}, "sounds/hiss")
	w.SpawnParticles(block.ParticleSpec{MinQuantity: 1})

	require.Len(t, rec.Sounds, 1)
	assert.Equal(t, "sounds/hiss", rec.Sounds[0].Sound)
	assert.Len(t, rec.Particles, 1)
}

func TestWorld_SnapshotRoundTrip(t *testing.T) {
	reg, stone := newTestRegistry(t)
	w := NewWorld(reg, nil)
	w.Grid().Fill(vec.Vec3{X: -1}, vec.Vec3{X: 1, Z: 1}, stone)

	snap, err := w.TakeSnapshot("test")
	require.NoError(t, err)
	assert.Len(t, snap.Cells, 6)
	assert.Equal(t, "stone", snap.Cells[0].Code)

	grid, err := RestoreGrid(snap, reg)
	require.NoError(t, err)
	assert.Equal(t, w.Grid().Cells(), grid.Cells())

	snap.Cells[0].Code = "missing"
	_, err = RestoreGrid(snap, reg)
	assert.True(t, errors.Is(err, block.ErrUnknownBlock))
}

func TestGenerator_Deterministic(t *testing.T) {
	reg, stone := newTestRegistry(t)
	sand, err := reg.Register("sand", 0)
	require.NoError(t, err)

	a, b := NewGrid(), NewGrid()
	NewGenerator(42, 8, 8, stone, sand).Generate(a)
	NewGenerator(42, 8, 8, stone, sand).Generate(b)

	assert.Equal(t, a.Cells(), b.Cells(), "Один сид должен давать одинаковый рельеф")

	g := NewGenerator(42, 8, 8, stone, sand)
	for x := 0; x < 8; x++ {
		for z := 0; z < 8; z++ {
			h := g.Height(x, z)
			assert.GreaterOrEqual(t, h, g.BaseHeight)
			assert.LessOrEqual(t, h, g.BaseHeight+g.Amplitude)
			assert.NotEqual(t, block.AirBlockID, a.Get(vec.Vec3{X: x, Y: h, Z: z}))
			assert.Equal(t, block.AirBlockID, a.Get(g.Surface(x, z)))
		}
	}
}

func TestWorld_WakeAllCallsOnPlaced(t *testing.T) {
	reg, stone := newTestRegistry(t)
	sand, err := reg.Register("sand", 0)
	require.NoError(t, err)
	beh := &recordingBehavior{}
	reg.SetBehavior(stone, beh)

	grid := NewGrid()
	grid.Set(vec.Vec3{X: 1}, stone)
	grid.Set(vec.Vec3{X: 2}, sand)
	w := NewWorld(reg, grid)

	assert.Equal(t, 1, w.WakeAll(), "Блоки без поведения пропускаются")
	assert.Equal(t, []vec.Vec3{{X: 1}}, beh.placed)
}

func TestWorld_ChangeSinkReceivesAppliedChanges(t *testing.T) {
	reg, stone := newTestRegistry(t)
	rec := &RecordingChanges{}
	w := NewWorld(reg, nil, WithChanges(rec))
	pos := vec.Vec3{X: 4}

	require.NoError(t, w.PlaceBlock(pos, stone))
	w.SetBlock(pos, stone)
	w.SetBlock(vec.Vec3{X: 5}, stone)
	require.NoError(t, w.Commit())

	require.Len(t, rec.Changes, 2, "Запись того же блока не считается изменением")
	assert.Equal(t, BlockChange{Pos: pos, From: "air", To: "stone"}, rec.Changes[0])
	assert.Equal(t, vec.Vec3{X: 5}, rec.Changes[1].Pos)
}

func TestWorld_PlaceBlockReportsCorruptNeighbor(t *testing.T) {
	reg, stone := newTestRegistry(t)
	grid := NewGrid()
	grid.Set(vec.Vec3{X: 1}, block.BlockID(500))
	w := NewWorld(reg, grid)

	err := w.PlaceBlock(vec.Vec3{}, stone)
	assert.True(t, errors.Is(err, block.ErrUnknownBlock), "Повреждение у соседа должно вернуться из PlaceBlock")
	assert.Equal(t, stone, w.Grid().Get(vec.Vec3{}), "Сама запись уже применена")

	w.SetBlock(vec.Vec3{Y: 5}, stone)
	require.NoError(t, w.Commit(), "Следующий Commit не должен получать чужое повреждение")
}

func TestWorld_BoundsReadAsVoid(t *testing.T) {
	reg, stone := newTestRegistry(t)
	w := NewWorld(reg, nil, WithBounds(Bounds{MinX: -2, MaxX: 2, MinY: 0, MinZ: -2, MaxZ: 2}))

	assert.Equal(t, block.AirBlockID, w.GetBlock(vec.Vec3{X: 2, Y: 100}).ID, "Сверху высота не ограничена")
	for _, pos := range []vec.Vec3{{X: 3}, {X: -3}, {Z: 3}, {Z: -3}, {Y: -1}} {
		got := w.GetBlock(pos)
		assert.Equal(t, block.Void, got, "%v за границей", pos)
		assert.Less(t, got.Replaceable, 0)
	}

	err := w.PlaceBlock(vec.Vec3{Y: -1}, stone)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	w.SetBlock(vec.Vec3{X: 1}, stone)
	w.SetBlock(vec.Vec3{X: 3}, stone)
	err = w.Commit()
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, 0, w.Grid().Len(), "Пакет с записью за границу не применяется")

	b, ok := w.Bounds()
	require.True(t, ok)
	assert.Equal(t, 2, b.MaxX)
	_, ok = NewWorld(reg, nil).Bounds()
	assert.False(t, ok)
}

func TestGrid_Bounds(t *testing.T) {
	_, stone := newTestRegistry(t)
	grid := NewGrid()
	_, ok := grid.Bounds()
	assert.False(t, ok, "У пустой сетки нет границ")

	grid.Fill(vec.Vec3{X: -3, Y: 0, Z: 1}, vec.Vec3{X: 4, Y: 0, Z: 2}, stone)
	grid.Set(vec.Vec3{X: 0, Y: 5, Z: -1}, stone)

	b, ok := grid.Bounds()
	require.True(t, ok)
	assert.Equal(t, Bounds{MinX: -3, MaxX: 4, MinY: 0, MinZ: -1, MaxZ: 2}, b)

	g := NewGenerator(1, 8, 4, stone, block.AirBlockID)
	assert.Equal(t, Bounds{MaxX: 7, MaxZ: 3}, g.Bounds())
}

func TestWorld_RunUntilIdleRejectsNonPositiveLimit(t *testing.T) {
	reg, _ := newTestRegistry(t)
	w := NewWorld(reg, nil)
	w.ScheduleUniqueDelayed(vec.Vec3{}, 1, func(block.BlockAPI, vec.Vec3) error { return nil })

	for _, limit := range []int{0, -1} {
		elapsed, err := w.RunUntilIdle(context.Background(), limit)
		assert.True(t, errors.Is(err, ErrInvalidTickLimit), "предел %d", limit)
		assert.Equal(t, 0, elapsed)
	}
	assert.Equal(t, uint64(0), w.CurrentTick(), "Время не должно сдвигаться")
	assert.Equal(t, 1, w.Scheduler().Pending())
}
