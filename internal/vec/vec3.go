package vec

// Vec3 представляет позицию вокселя с целочисленными координатами.
// Ось Y направлена вверх, X и Z - горизонтальные оси.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Направления граней блока
var (
	North = Vec3{X: 0, Y: 0, Z: -1}
	East  = Vec3{X: 1, Y: 0, Z: 0}
	South = Vec3{X: 0, Y: 0, Z: 1}
	West  = Vec3{X: -1, Y: 0, Z: 0}
	Up    = Vec3{X: 0, Y: 1, Z: 0}
	Down  = Vec3{X: 0, Y: -1, Z: 0}
)

// Horizontals - четыре горизонтальные грани в фиксированном порядке обхода
var Horizontals = [4]Vec3{North, East, South, West}

// AllFaces - все шесть граней блока
var AllFaces = [6]Vec3{North, East, South, West, Up, Down}

// ToVec2 возвращает горизонтальную проекцию (X, Z)
func (v Vec3) ToVec2() Vec2 {
	return Vec2{
		X: v.X,
		Y: v.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// AddOffset сдвигает позицию на горизонтальное смещение
func (v Vec3) AddOffset(off Vec2) Vec3 {
	return Vec3{X: v.X + off.X, Y: v.Y, Z: v.Z + off.Y}
}

// UpCopy возвращает позицию над текущей
func (v Vec3) UpCopy() Vec3 {
	return v.Add(Up)
}

// DownCopy возвращает позицию под текущей
func (v Vec3) DownCopy() Vec3 {
	return v.Add(Down)
}

// ManhattanDistance возвращает манхэттенское расстояние до другой позиции
func (v Vec3) ManhattanDistance(other Vec3) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y) + abs(v.Z-other.Z)
}

// ToFloat преобразует позицию в вектор с плавающей точкой
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
