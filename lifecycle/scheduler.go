package lifecycle

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler corre tareas periodicas con nombre. Cada tarea tiene su
// propio ticker y se puede detener individualmente; el manager detiene
// todas al perder la conexion.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]chan struct{}
	wg    sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]chan struct{})}
}

// Start registra y arranca una tarea. Si ya existe una con el mismo
// nombre, primero la detiene.
func (s *Scheduler) Start(name string, every time.Duration, fn func()) {
	s.Stop(name)

	stop := make(chan struct{})
	s.mu.Lock()
	s.tasks[name] = stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	logrus.Debugf("[SCHEDULER] tarea %q cada %s", name, every)
}

// Stop detiene la tarea indicada si existe.
func (s *Scheduler) Stop(name string) {
	s.mu.Lock()
	stop, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	s.mu.Unlock()
	if ok {
		close(stop)
	}
}

// StopAll detiene todas las tareas y espera a que terminen.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for name, stop := range s.tasks {
		close(stop)
		delete(s.tasks, name)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Running lista los nombres de las tareas activas.
func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		out = append(out, name)
	}
	return out
}
