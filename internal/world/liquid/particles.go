package liquid

import (
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// SteamParticles строит облако пара над ячейкой столкновения.
// Каждый вызов возвращает новое значение, общих шаблонов нет.
func SteamParticles(pos vec.Vec3) block.ParticleSpec {
	return block.ParticleSpec{
		MinQuantity:   50,
		MaxQuantity:   100,
		Color:         block.ToRgba(100, 225, 225, 225),
		MinPos:        pos.ToFloat().Add(vec.Vec3Float{X: 0.5, Y: 1.1, Z: 0.5}),
		AddPos:        vec.Vec3Float{X: 0.5, Y: 1.0, Z: 0.5},
		MinVelocity:   vec.Vec3Float{X: -0.25, Y: 0.1, Z: -0.25},
		MaxVelocity:   vec.Vec3Float{X: 0.25, Y: 0.1, Z: 0.25},
		LifeLength:    2.0,
		GravityEffect: -0.015,
		MinSize:       0.1,
		MaxSize:       0.1,
		SizeEvolve:    block.Evolution{Transform: block.TransformLinearIncrease, Factor: 1.0},
		Model:         block.ParticleQuad,
	}
}
