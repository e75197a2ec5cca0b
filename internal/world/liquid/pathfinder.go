package liquid

import (
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// PathCandidate - найденный путь к обрыву: первая клетка пути рядом с
// исходной позицией и манхэттенское расстояние до затравки
type PathCandidate struct {
	Pos  vec.Vec3
	Dist int
}

// SearchOffsets возвращает горизонтальные смещения затравок поиска,
// отсортированные по манхэттенскому расстоянию
func SearchOffsets(radius int) []vec.Vec2 {
	return vec.SquarePointsSortedByManhattan(radius, radius)
}

// FindDownwardPaths ищет ближайшие клетки, через которые жидкость из pos может
// стечь на уровень ниже.
//
// Поиск ограничен и эвристичен: BFS от каждой затравки идёт только по клеткам,
// не удаляющимся от pos, поэтому обходы препятствий длиннее прямого пути не
// находятся. Это сознательный компромисс: пространство поиска конечно и мало.
func (e *Engine) FindDownwardPaths(api block.BlockAPI, pos vec.Vec3, our block.Type) []PathCandidate {
	threshold := e.settings.ReplaceableThreshold

	var paths []PathCandidate
	shortest := -1

	for _, off := range e.offsets {
		seed := pos.AddOffset(off)

		below := api.GetBlock(seed.DownCopy())
		at := api.GetBlock(seed)

		level := 0
		if our.SameLiquid(at) {
			level = at.LiquidLevel
		}
		if level >= our.LiquidLevel || below.Replaceable < threshold || at.Replaceable < threshold {
			continue
		}

		found, ok := e.bfsSearchPath(api, seed, pos)
		if !ok {
			continue
		}

		candidate := PathCandidate{Pos: found, Dist: off.Manhattan()}
		if candidate.Dist == 1 && !our.IsSource() {
			e.metrics.ObservePathSearch(1)
			return []PathCandidate{candidate}
		}

		paths = append(paths, candidate)
		if shortest < 0 || candidate.Dist < shortest {
			shortest = candidate.Dist
		}
	}

	// Оставляем только кратчайшие, сохраняя порядок обнаружения
	best := paths[:0]
	for _, p := range paths {
		if p.Dist == shortest {
			best = append(best, p)
		}
	}

	e.metrics.ObservePathSearch(len(best))
	return best
}

// bfsSearchPath идёт от seed к target по горизонтали, не увеличивая расстояние
// до target, через жидкость или открытые клетки. Возвращает клетку, из которой
// следующий шаг попадает в target.
func (e *Engine) bfsSearchPath(api block.BlockAPI, seed, target vec.Vec3) (vec.Vec3, bool) {
	queue := []vec.Vec3{seed}
	visited := map[vec.Vec3]struct{}{seed: {}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curDist := cur.ManhattanDistance(target)

		for _, face := range vec.Horizontals {
			npos := vec.Vec3{X: cur.X + face.X, Y: target.Y, Z: cur.Z + face.Z}
			if npos.ManhattanDistance(target) > curDist {
				continue
			}
			if npos == target {
				return cur, true
			}

			b := api.GetBlock(npos)
			if !b.IsLiquid() && b.Replaceable < e.settings.ReplaceableThreshold {
				continue
			}
			if _, seen := visited[npos]; seen {
				continue
			}
			visited[npos] = struct{}{}
			queue = append(queue, npos)
		}
	}

	return vec.Vec3{}, false
}
