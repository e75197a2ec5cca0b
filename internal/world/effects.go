package world

import (
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
)

// EffectSink принимает косметические эффекты. Реализации не должны блокировать.
type EffectSink interface {
	PlaySound(pos vec.Vec3, sound string)
	SpawnParticles(spec block.ParticleSpec)
}

// NopEffects отбрасывает все эффекты
type NopEffects struct{}

func (NopEffects) PlaySound(vec.Vec3, string)        {}
func (NopEffects) SpawnParticles(block.ParticleSpec) {}

// SoundEvent - воспроизведённый звук
type SoundEvent struct {
	Pos   vec.Vec3
	Sound string
}

// RecordingEffects запоминает эффекты (используется в тестах и отладке)
type RecordingEffects struct {
	Sounds    []SoundEvent
	Particles []block.ParticleSpec
}

func (r *RecordingEffects) PlaySound(pos vec.Vec3, sound string) {
	r.Sounds = append(r.Sounds, SoundEvent{Pos: pos, Sound: sound})
}

func (r *RecordingEffects) SpawnParticles(spec block.ParticleSpec) {
	r.Particles = append(r.Particles, spec)
}
