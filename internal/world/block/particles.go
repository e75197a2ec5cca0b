package block

import (
	"github.com/annel0/liquidsim/internal/vec"
)

// ParticleModel - форма частицы
type ParticleModel uint8

const (
	ParticleQuad ParticleModel = iota
	ParticleCube
)

// Transform - функция изменения параметра частицы во времени
type Transform uint8

const (
	TransformIdentical Transform = iota
	TransformLinearIncrease
	TransformLinearReduce
)

// Evolution описывает изменение параметра частицы за время жизни
type Evolution struct {
	Transform Transform
	Factor    float64
}

// ParticleSpec - неизменяемое описание вспышки частиц. Передаётся по значению,
// каждый вызов строит собственный экземпляр.
type ParticleSpec struct {
	MinQuantity   float64
	MaxQuantity   float64
	Color         uint32 // ARGB
	MinPos        vec.Vec3Float
	AddPos        vec.Vec3Float
	MinVelocity   vec.Vec3Float
	MaxVelocity   vec.Vec3Float
	LifeLength    float64
	GravityEffect float64
	MinSize       float64
	MaxSize       float64
	SizeEvolve    Evolution
	Model         ParticleModel
}

// ToRgba упаковывает компоненты цвета в одно значение (a в старшем байте)
func ToRgba(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
