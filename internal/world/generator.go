package world

import (
	"math"

	"github.com/annel0/liquidsim/internal/util"
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// Параметры ландшафта по умолчанию
const (
	DefaultNoiseScale = 0.08 // Сглаженность рельефа
	DefaultBaseHeight = 2    // Минимальная высота столбца
	DefaultAmplitude  = 6    // Разброс высот над базовой
)

// Generator строит рельеф из столбцов по карте высот шума Перлина.
// Столбцы занимают ячейки от y=0 до высоты столбца включительно; если задан
// верхний блок, он кладётся на столбцы не выше SandLevel.
type Generator struct {
	noise *util.Noise

	SizeX      int
	SizeZ      int
	NoiseScale float64
	BaseHeight int
	Amplitude  int
	SandLevel  int

	Floor block.BlockID // Блок столбцов
	Top   block.BlockID // Верхний блок низин; AirBlockID - без него
}

// NewGenerator создаёт генератор для области sizeX × sizeZ
func NewGenerator(seed int64, sizeX, sizeZ int, floor, top block.BlockID) *Generator {
	return &Generator{
		noise:      util.NewNoise(seed),
		SizeX:      sizeX,
		SizeZ:      sizeZ,
		NoiseScale: DefaultNoiseScale,
		BaseHeight: DefaultBaseHeight,
		Amplitude:  DefaultAmplitude,
		SandLevel:  DefaultBaseHeight + DefaultAmplitude/3,
		Floor:      floor,
		Top:        top,
	}
}

// Height возвращает высоту верхней ячейки столбца (x, z)
func (g *Generator) Height(x, z int) int {
	n := g.noise.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale)
	return g.BaseHeight + int(math.Round(n*float64(g.Amplitude)))
}

// Generate заполняет сетку рельефом. Для одного сида результат всегда одинаков.
func (g *Generator) Generate(grid *Grid) {
	for z := 0; z < g.SizeZ; z++ {
		for x := 0; x < g.SizeX; x++ {
			h := g.Height(x, z)
			grid.Fill(vec.Vec3{X: x, Y: 0, Z: z}, vec.Vec3{X: x, Y: h, Z: z}, g.Floor)
			if g.Top != block.AirBlockID && h <= g.SandLevel {
				grid.Set(vec.Vec3{X: x, Y: h, Z: z}, g.Top)
			}
		}
	}
}

// Surface возвращает первую свободную ячейку над столбцом (x, z)
func (g *Generator) Surface(x, z int) vec.Vec3 {
	return vec.Vec3{X: x, Y: g.Height(x, z) + 1, Z: z}
}
