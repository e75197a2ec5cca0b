package world

import (
	"testing"

	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(block.BlockAPI, vec.Vec3) error { return nil }

func advanceUntil(s *Scheduler, tick uint64) []scheduledUpdate {
	var fired []scheduledUpdate
	for s.CurrentTick() < tick {
		fired = append(fired, s.Advance()...)
	}
	return fired
}

func TestScheduler_UniquePerPosition(t *testing.T) {
	s := NewScheduler()
	pos := vec.Vec3{X: 1}

	s.Schedule(pos, 5, noop)
	s.Schedule(pos, 5, noop)
	s.Schedule(pos, 5, noop)

	assert.Equal(t, 1, s.Pending(), "Повторное планирование не должно добавлять вызовы")
}

func TestScheduler_RescheduleRefreshesDueTick(t *testing.T) {
	s := NewScheduler()
	pos := vec.Vec3{X: 1}

	s.Schedule(pos, 5, noop)
	advanceUntil(s, 3)
	s.Schedule(pos, 5, noop)

	due, ok := s.IsScheduled(pos)
	require.True(t, ok)
	assert.Equal(t, uint64(8), due, "Срок должен отсчитываться от последнего планирования")

	assert.Empty(t, advanceUntil(s, 7))
	assert.Len(t, advanceUntil(s, 8), 1)
}

func TestScheduler_OrderByDueThenSequence(t *testing.T) {
	s := NewScheduler()
	a, b, c := vec.Vec3{X: 1}, vec.Vec3{X: 2}, vec.Vec3{X: 3}

	s.Schedule(a, 3, noop)
	s.Schedule(b, 2, noop)
	s.Schedule(c, 3, noop)

	fired := advanceUntil(s, 3)
	require.Len(t, fired, 3)
	assert.Equal(t, b, fired[0].pos)
	assert.Equal(t, a, fired[1].pos)
	assert.Equal(t, c, fired[2].pos)
}

func TestScheduler_NonPositiveDelayMeansNextTick(t *testing.T) {
	s := NewScheduler()
	s.Schedule(vec.Vec3{}, 0, noop)

	fired := s.Advance()
	assert.Len(t, fired, 1)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_SkipIdle(t *testing.T) {
	s := NewScheduler()
	assert.Equal(t, uint64(0), s.SkipIdle(), "Пустой планировщик ничего не пропускает")

	s.Schedule(vec.Vec3{}, 150, noop)
	assert.Equal(t, uint64(149), s.SkipIdle())
	assert.Len(t, s.Advance(), 1)
	assert.Equal(t, uint64(150), s.CurrentTick())
}
