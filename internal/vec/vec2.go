package vec

import "sort"

// Vec2 представляет горизонтальное смещение (X, Z) в плоскости мира
type Vec2 struct {
	X, Y int
}

// Manhattan возвращает манхэттенскую длину смещения
func (v Vec2) Manhattan() int {
	return abs(v.X) + abs(v.Y)
}

// SquarePointsSortedByManhattan возвращает все смещения квадрата со стороной
// 2*halfLength+1 (без центра), у которых манхэттенская длина не превышает
// maxDist, отсортированные по возрастанию длины. Внутри одного кольца порядок
// стабилен: сначала по X, затем по Y.
func SquarePointsSortedByManhattan(halfLength, maxDist int) []Vec2 {
	if halfLength <= 0 {
		return nil
	}

	points := make([]Vec2, 0, (2*halfLength+1)*(2*halfLength+1))
	for x := -halfLength; x <= halfLength; x++ {
		for y := -halfLength; y <= halfLength; y++ {
			p := Vec2{X: x, Y: y}
			d := p.Manhattan()
			if d == 0 || d > maxDist {
				continue
			}
			points = append(points, p)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Manhattan() < points[j].Manhattan()
	})
	return points
}
