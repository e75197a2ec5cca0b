package liquid

import (
	"context"
	"fmt"
	"testing"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world"
	"github.com/annel0/liquidsim/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioTickLimit = 1_000_000

// newScenario создаёт мир с каменным полом y=0 в квадрате ±half. За краем
// пола и под ним пустота.
func newScenario(t *testing.T, half int) (*testBlocks, *world.World, *world.RecordingEffects) {
	t.Helper()
	tb := newTestBlocks(t)
	newTestEngine(t, tb)

	grid := world.NewGrid()
	grid.Fill(vec.Vec3{X: -half, Z: -half}, vec.Vec3{X: half, Z: half}, tb.stone)
	bounds, ok := grid.Bounds()
	require.True(t, ok)

	rec := &world.RecordingEffects{}
	return tb, world.NewWorld(tb.reg, grid, world.WithEffects(rec), world.WithBounds(bounds)), rec
}

func runUntilIdle(t *testing.T, w *world.World) {
	t.Helper()
	_, err := w.RunUntilIdle(context.Background(), scenarioTickLimit)
	require.NoError(t, err)
	require.Equal(t, 0, w.Scheduler().Pending(), "Симуляция должна успокоиться")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestScenario_IsolatedFlowDrains(t *testing.T) {
	tb, w, _ := newScenario(t, 3)
	pos := vec.Vec3{Y: 1}
	require.NoError(t, w.PlaceBlock(pos, tb.liquid(t, "water", 4)))

	ctx := context.Background()
	for _, want := range []int{3, 2, 1, 0} {
		w.Scheduler().SkipIdle()
		require.NoError(t, w.Tick(ctx))
		assert.Equal(t, want, w.GetBlock(pos).LiquidLevel, "Одна оценка понижает уровень на один (тик %d)", w.CurrentTick())
	}

	assert.Equal(t, block.AirBlockID, w.Grid().Get(pos), "Поток без подпитки должен высохнуть")
	assert.Equal(t, 0, w.Scheduler().Pending(), "Высохшая ячейка не перепланируется")
	assert.Equal(t, 0, w.LiquidVolume("water"))
	assert.Equal(t, uint64(40), w.CurrentTick(), "Четыре оценки с задержкой 10")
}

func TestScenario_SourceReachOnFlatFloor(t *testing.T) {
	tb, w, _ := newScenario(t, 10)
	require.NoError(t, w.PlaceBlock(vec.Vec3{Y: 1}, tb.liquid(t, "water", block.MaxLiquidLevel)))

	runUntilIdle(t, w)

	for x := -10; x <= 10; x++ {
		for z := -10; z <= 10; z++ {
			pos := vec.Vec3{X: x, Y: 1, Z: z}
			d := abs(x) + abs(z)
			got := w.GetBlock(pos)
			if d > 6 {
				assert.False(t, got.IsLiquid(), "%v за пределами досягаемости", pos)
				continue
			}
			assert.Equal(t, block.Family("water"), got.Family, "%v", pos)
			assert.Equal(t, block.MaxLiquidLevel-d, got.LiquidLevel, "Уровень в %v должен быть 7-d", pos)
		}
	}
	census := w.TakeCensus()
	cells := 0
	for level := 1; level <= block.MaxLiquidLevel; level++ {
		cells += census[fmt.Sprintf("water-%d", level)]
	}
	assert.Equal(t, 85, cells, "Ромб радиуса 6 содержит 85 клеток")
}

func TestScenario_SourceFallsAndStaysBounded(t *testing.T) {
	tb, w, _ := newScenario(t, 12)
	source := vec.Vec3{Y: 4}
	require.NoError(t, w.PlaceBlock(source, tb.liquid(t, "water", block.MaxLiquidLevel)))

	runUntilIdle(t, w)

	assert.True(t, w.GetBlock(source).IsSource(), "Источник не должен меняться")
	for y := 1; y < source.Y; y++ {
		got := w.GetBlock(vec.Vec3{Y: y})
		assert.Equal(t, block.FallingLiquidLevel, got.LiquidLevel, "Столб под источником y=%d", y)
	}
	for _, c := range w.Grid().Cells() {
		typ := w.GetBlock(c.Pos)
		if typ.IsLiquid() {
			assert.GreaterOrEqual(t, typ.LiquidLevel, 1)
			assert.LessOrEqual(t, typ.LiquidLevel, block.MaxLiquidLevel)
		}
	}
}

func TestScenario_LavaMeetsWaterSource(t *testing.T) {
	tb, w, rec := newScenario(t, 8)
	lavaPos := vec.Vec3{Y: 1}
	waterPos := vec.Vec3{X: 2, Y: 1}
	require.NoError(t, w.PlaceBlock(lavaPos, tb.liquid(t, "lava", block.MaxLiquidLevel)))
	require.NoError(t, w.PlaceBlock(waterPos, tb.liquid(t, "water", block.MaxLiquidLevel)))

	runUntilIdle(t, w)

	assert.Equal(t, tb.obsidian, w.Grid().Get(waterPos), "Источник воды превращается в обсидиан")
	assert.True(t, w.GetBlock(lavaPos).IsSource())
	assert.Equal(t, 0, w.LiquidVolume("water"))

	require.NotEmpty(t, rec.Sounds)
	assert.Equal(t, world.SoundEvent{Pos: waterPos, Sound: "sounds/effect/extinguish"}, rec.Sounds[0])
	require.NotEmpty(t, rec.Particles)
	assert.InDelta(t, 2.5, rec.Particles[0].MinPos.X, 1e-9)
}

func TestScenario_LavaMeetsFlowingWater(t *testing.T) {
	tb, w, _ := newScenario(t, 8)
	lavaPos := vec.Vec3{Y: 1}
	waterPos := vec.Vec3{X: 2, Y: 1}
	require.NoError(t, w.PlaceBlock(lavaPos, tb.liquid(t, "lava", block.MaxLiquidLevel)))
	require.NoError(t, w.PlaceBlock(waterPos, tb.liquid(t, "water", 3)))

	runUntilIdle(t, w)

	assert.Equal(t, tb.basalt, w.Grid().Get(waterPos), "Поток воды превращается в базальт")
}

func TestScenario_LavaFallsOntoWater(t *testing.T) {
	tb, w, _ := newScenario(t, 8)
	waterPos := vec.Vec3{Y: 1}
	lavaPos := vec.Vec3{Y: 2}
	require.NoError(t, w.PlaceBlock(lavaPos, tb.liquid(t, "lava", block.MaxLiquidLevel)))
	require.NoError(t, w.PlaceBlock(waterPos, tb.liquid(t, "water", block.MaxLiquidLevel)))

	runUntilIdle(t, w)

	assert.Equal(t, tb.obsidian, w.Grid().Get(waterPos))
	assert.Equal(t, block.Family("lava"), w.GetBlock(lavaPos.Add(vec.East)).Family,
		"После столкновения внизу источник растекается в стороны")
}

func TestScenario_PlaceStoneOverFlow(t *testing.T) {
	tb, w, _ := newScenario(t, 4)
	pos := vec.Vec3{Y: 1}
	require.NoError(t, w.PlaceBlock(pos, tb.liquid(t, "water", 3)))

	require.NoError(t, w.PlaceBlock(pos, tb.stone), "Жидкость заменяется твёрдым блоком")
	runUntilIdle(t, w)

	assert.Equal(t, tb.stone, w.Grid().Get(pos), "Устаревшая оценка не должна трогать камень")
}

func TestScenario_Deterministic(t *testing.T) {
	run := func() []world.Cell {
		tb, w, _ := newScenario(t, 8)
		require.NoError(t, w.PlaceBlock(vec.Vec3{Y: 3}, tb.liquid(t, "water", block.MaxLiquidLevel)))
		require.NoError(t, w.PlaceBlock(vec.Vec3{X: 4, Y: 1}, tb.liquid(t, "lava", block.MaxLiquidLevel)))
		runUntilIdle(t, w)
		return w.Grid().Cells()
	}

	assert.Equal(t, run(), run(), "Одинаковые входные данные должны давать одинаковый результат")
}

func TestScenario_SourceAtEdgeSettles(t *testing.T) {
	tb, w, _ := newScenario(t, 3)
	edge := vec.Vec3{X: 3, Y: 1}
	require.NoError(t, w.PlaceBlock(edge, tb.liquid(t, "lava", block.MaxLiquidLevel)))

	runUntilIdle(t, w)

	assert.True(t, w.GetBlock(edge).IsSource())
	assert.Equal(t, block.Void, w.GetBlock(edge.Add(vec.East)), "За краем пола пустота")
	for _, c := range w.Grid().Cells() {
		assert.LessOrEqual(t, c.Pos.X, 3, "Жидкость не выходит за край: %v", c.Pos)
		assert.GreaterOrEqual(t, c.Pos.Y, 0, "Жидкость не уходит под пол: %v", c.Pos)
	}
	assert.Equal(t, block.Family("lava"), w.GetBlock(vec.Vec3{X: 2, Y: 1}).Family)
}
