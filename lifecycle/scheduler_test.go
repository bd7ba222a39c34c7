package lifecycle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerEjecutaPeriodicamente(t *testing.T) {
	s := NewScheduler()
	defer s.StopAll()

	var ticks atomic.Int64
	s.Start("contador", 5*time.Millisecond, func() { ticks.Add(1) })

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 },
		time.Second, time.Millisecond)
}

func TestSchedulerStopDetieneSoloEsaTarea(t *testing.T) {
	s := NewScheduler()
	defer s.StopAll()

	var a, b atomic.Int64
	s.Start("a", 5*time.Millisecond, func() { a.Add(1) })
	s.Start("b", 5*time.Millisecond, func() { b.Add(1) })

	assert.Eventually(t, func() bool { return a.Load() > 0 && b.Load() > 0 },
		time.Second, time.Millisecond)

	s.Stop("a")
	congelado := a.Load()
	anteriorB := b.Load()

	assert.Eventually(t, func() bool { return b.Load() > anteriorB },
		time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, congelado, a.Load())

	assert.ElementsMatch(t, []string{"b"}, s.Running())
}

func TestSchedulerStartReemplazaTareaHomonima(t *testing.T) {
	s := NewScheduler()
	defer s.StopAll()

	var vieja, nueva atomic.Int64
	s.Start("t", time.Hour, func() { vieja.Add(1) })
	s.Start("t", 5*time.Millisecond, func() { nueva.Add(1) })

	assert.Eventually(t, func() bool { return nueva.Load() > 0 },
		time.Second, time.Millisecond)
	assert.Equal(t, int64(0), vieja.Load())
	assert.Len(t, s.Running(), 1)
}

func TestSchedulerStopAll(t *testing.T) {
	s := NewScheduler()

	var ticks atomic.Int64
	s.Start("x", 5*time.Millisecond, func() { ticks.Add(1) })
	s.Start("y", 5*time.Millisecond, func() { ticks.Add(1) })

	s.StopAll()
	congelado := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, congelado, ticks.Load())
	assert.Empty(t, s.Running())
}
