package liquid

import (
	"testing"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
	"github.com/stretchr/testify/require"
)

// mockBlockAPI реализует block.BlockAPI для тестирования
type mockBlockAPI struct {
	reg       *block.Registry
	blocks    map[vec.Vec3]block.BlockID
	staged    map[vec.Vec3]block.BlockID
	scheduled map[vec.Vec3]int
	notified  []vec.Vec3
	sounds    []string
	particles []block.ParticleSpec
}

func newMockBlockAPI(reg *block.Registry) *mockBlockAPI {
	return &mockBlockAPI{
		reg:       reg,
		blocks:    make(map[vec.Vec3]block.BlockID),
		staged:    make(map[vec.Vec3]block.BlockID),
		scheduled: make(map[vec.Vec3]int),
	}
}

func (m *mockBlockAPI) GetBlock(pos vec.Vec3) block.Type {
	t, _ := m.reg.Get(m.blocks[pos])
	return t
}

func (m *mockBlockAPI) SetBlock(pos vec.Vec3, id block.BlockID) {
	m.staged[pos] = id
}

func (m *mockBlockAPI) Commit() error {
	for pos, id := range m.staged {
		m.blocks[pos] = id
	}
	m.staged = make(map[vec.Vec3]block.BlockID)
	return nil
}

func (m *mockBlockAPI) NotifyNeighborChanged(pos, source vec.Vec3) {
	m.notified = append(m.notified, pos)
}

func (m *mockBlockAPI) ScheduleUniqueDelayed(pos vec.Vec3, delayTicks int, fn block.UpdateFunc) {
	m.scheduled[pos] = delayTicks
}

func (m *mockBlockAPI) PlaySound(pos vec.Vec3, sound string) {
	m.sounds = append(m.sounds, sound)
}

func (m *mockBlockAPI) SpawnParticles(spec block.ParticleSpec) {
	m.particles = append(m.particles, spec)
}

// fill заполняет прямоугольник блоком сразу, минуя буфер
func (m *mockBlockAPI) fill(from, to vec.Vec3, id block.BlockID) {
	for y := from.Y; y <= to.Y; y++ {
		for z := from.Z; z <= to.Z; z++ {
			for x := from.X; x <= to.X; x++ {
				m.blocks[vec.Vec3{X: x, Y: y, Z: z}] = id
			}
		}
	}
}

// testBlocks - набор блоков для тестов жидкостей
type testBlocks struct {
	reg         *block.Registry
	stone       block.BlockID
	obsidian    block.BlockID
	basalt      block.BlockID
	cobblestone block.BlockID
}

const testLiquidReplaceable = 6000

func newTestBlocks(t *testing.T) *testBlocks {
	t.Helper()
	reg := block.NewRegistry()

	tb := &testBlocks{reg: reg}
	var err error
	tb.stone, err = reg.Register("stone", 0)
	require.NoError(t, err)
	tb.obsidian, err = reg.Register("obsidian", 0)
	require.NoError(t, err)
	tb.basalt, err = reg.Register("basalt", 0)
	require.NoError(t, err)
	tb.cobblestone, err = reg.Register("cobblestone", 0)
	require.NoError(t, err)

	require.NoError(t, reg.RegisterLiquid("water", testLiquidReplaceable))
	require.NoError(t, reg.RegisterLiquid("lava", testLiquidReplaceable))
	return tb
}

func (tb *testBlocks) liquid(t *testing.T, family block.Family, level int) block.BlockID {
	t.Helper()
	id, ok := tb.reg.LiquidVariant(family, level)
	require.True(t, ok)
	return id
}

func (tb *testBlocks) typeOf(t *testing.T, id block.BlockID) block.Type {
	t.Helper()
	typ, ok := tb.reg.Get(id)
	require.True(t, ok)
	return typ
}

// testRules - взаимно реагирующие вода и лава с одинаковой задержкой
func testRules() []Rule {
	return []Rule{
		{
			Family:             "lava",
			SpreadDelay:        10,
			CollidesWith:       "water",
			SourceReplacement:  "obsidian",
			FlowingReplacement: "basalt",
			CollisionSound:     "sounds/effect/extinguish",
		},
		{
			Family:             "water",
			SpreadDelay:        10,
			CollidesWith:       "lava",
			SourceReplacement:  "obsidian",
			FlowingReplacement: "cobblestone",
			CollisionSound:     "sounds/effect/extinguish",
		},
	}
}

func newTestEngine(t *testing.T, tb *testBlocks, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(tb.reg, DefaultSettings(), testRules(), opts...)
	require.NoError(t, err)
	return e
}
