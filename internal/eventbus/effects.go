package eventbus

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/liquidsim/internal/logging"
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world"
	"github.com/annel0/liquidsim/internal/world/block"
)

// Типы событий эффектов
const (
	EventTypeSound     = "LiquidSound"
	EventTypeParticles = "LiquidParticles"
	EventTypeBlock     = "LiquidBlockChanged"
)

// effectPriority - эффекты косметические, при переполнении их можно терять
const effectPriority = 1

// SoundPayload - полезная нагрузка EventTypeSound
type SoundPayload struct {
	Pos   vec.Vec3 `json:"pos"`
	Sound string   `json:"sound"`
}

// ParticlesPayload - полезная нагрузка EventTypeParticles
type ParticlesPayload struct {
	Spec block.ParticleSpec `json:"spec"`
}

// BlockPayload - полезная нагрузка EventTypeBlock
type BlockPayload struct {
	Change world.BlockChange `json:"change"`
}

// TickSource возвращает текущий тик для CorrelationID
type TickSource interface {
	CurrentTick() uint64
}

// EffectPublisher публикует звуки, частицы и изменения сетки в шину событий.
// Реализует world.EffectSink и world.ChangeSink; публикация не блокирует тик.
type EffectPublisher struct {
	bus    EventBus
	source string
	ticks  TickSource
	log    *logging.Logger
}

var (
	_ world.EffectSink = (*EffectPublisher)(nil)
	_ world.ChangeSink = (*EffectPublisher)(nil)
)

// NewEffectPublisher создаёт издателя эффектов с именем источника source
func NewEffectPublisher(bus EventBus, source string) *EffectPublisher {
	return &EffectPublisher{
		bus:    bus,
		source: source,
		log:    logging.GetEventBusLogger(),
	}
}

// SetTickSource задаёт источник номера тика для связывания событий
func (p *EffectPublisher) SetTickSource(ts TickSource) {
	p.ticks = ts
}

func (p *EffectPublisher) PlaySound(pos vec.Vec3, sound string) {
	p.publish(EventTypeSound, SoundPayload{Pos: pos, Sound: sound})
}

func (p *EffectPublisher) SpawnParticles(spec block.ParticleSpec) {
	p.publish(EventTypeParticles, ParticlesPayload{Spec: spec})
}

func (p *EffectPublisher) BlockChanged(change world.BlockChange) {
	p.publish(EventTypeBlock, BlockPayload{Change: change})
}

func (p *EffectPublisher) publish(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Warn("Не удалось сериализовать %s: %v", eventType, err)
		return
	}

	ev := &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    p.source,
		EventType: eventType,
		Version:   1,
		Priority:  effectPriority,
		Payload:   data,
	}
	if p.ticks != nil {
		ev.CorrelationID = strconv.FormatUint(p.ticks.CurrentTick(), 10)
	}

	if err := p.bus.Publish(context.Background(), ev); err != nil {
		p.log.Debug("Событие %s не опубликовано: %v", eventType, err)
	}
}
