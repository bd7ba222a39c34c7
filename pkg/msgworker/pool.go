// Package msgworker procesa mensajes entrantes con un pool de workers.
// Cada chat se asigna siempre al mismo worker, asi los mensajes de un
// mismo grupo se atienden en orden de llegada.
package msgworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job es una unidad de procesamiento de un mensaje entrante.
type Job struct {
	ChatJID string
	Handler func(ctx context.Context) error
}

// Stats contiene metricas en tiempo real del pool.
type Stats struct {
	NumWorkers      int   `json:"num_workers"`
	QueueSize       int   `json:"queue_size"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalDropped    int64 `json:"total_dropped"`
	TotalErrors     int64 `json:"total_errors"`
}

// Pool reparte jobs entre N workers por hash consistente del chat.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    atomic.Bool

	totalDispatched atomic.Int64
	totalProcessed  atomic.Int64
	totalDropped    atomic.Int64
	totalErrors     atomic.Int64
}

type worker struct {
	id       int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	pool     *Pool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
	}
}

// Start arranca todos los workers del pool.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan Job, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	logrus.Infof("[WORKER-POOL] %d workers iniciados (cola %d)", p.numWorkers, p.queueSize)
}

// TryDispatch encola sin bloquear. Devuelve false si la cola del
// worker asignado esta llena o el pool ya fue detenido.
func (p *Pool) TryDispatch(job Job) bool {
	if p.stopped.Load() {
		p.totalDropped.Add(1)
		return false
	}
	w := p.workers[p.shardForChat(job.ChatJID)]
	select {
	case w.jobQueue <- job:
		p.totalDispatched.Add(1)
		return true
	default:
		p.totalDropped.Add(1)
		logrus.Warnf("[WORKER-POOL] cola llena, mensaje de %s descartado", job.ChatJID)
		return false
	}
}

// Stop detiene los workers y drena las colas pendientes.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		for _, w := range p.workers {
			if w != nil {
				close(w.jobQueue)
			}
		}
		p.wg.Wait()
		for _, w := range p.workers {
			if w != nil {
				w.cancel()
			}
		}
		logrus.Info("[WORKER-POOL] detenido")
	})
}

// Snapshot devuelve las metricas actuales.
func (p *Pool) Snapshot() Stats {
	return Stats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		TotalDispatched: p.totalDispatched.Load(),
		TotalProcessed:  p.totalProcessed.Load(),
		TotalDropped:    p.totalDropped.Load(),
		TotalErrors:     p.totalErrors.Load(),
	}
}

// shardForChat garantiza que un chat siempre cae en el mismo worker.
func (p *Pool) shardForChat(chatJID string) int {
	h := fnv.New32a()
	h.Write([]byte(chatJID))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range w.jobQueue {
		if job.Handler == nil {
			continue
		}
		if err := job.Handler(w.ctx); err != nil {
			w.pool.totalErrors.Add(1)
			logrus.Errorf("[WORKER-POOL] worker %d fallo procesando %s: %v", w.id, job.ChatJID, err)
		}
		w.pool.totalProcessed.Add(1)
	}
}
