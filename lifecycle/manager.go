// Package lifecycle supervisa la conexion WhatsApp del bot: heartbeat,
// deteccion de sesiones colgadas, reconexion con reintentos y
// reinicio completo como ultimo recurso.
package lifecycle

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playmallpark/winston/config"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/playmallpark/winston/pkg/oplog"
	"github.com/sirupsen/logrus"
)

// State es el estado de conexion observable del bot.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingAuth
	StateConnected
	StateReconnecting
	StateRestarting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingAuth:
		return "awaiting_authentication"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateRestarting:
		return "restarting"
	default:
		return "unknown"
	}
}

// Transport abstrae la sesion WhatsApp para poder probar el supervisor
// sin red.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	// KeepAlive manda una interaccion minima para que el servidor no
	// hiberne la sesion.
	KeepAlive(ctx context.Context) error
	// Reset destruye la sesion y la reconstruye desde cero.
	Reset(ctx context.Context) error
}

// Manager es el objeto de estado inyectado: todo el ciclo de vida vive
// aqui, no en variables de paquete.
type Manager struct {
	transport Transport
	sched     *Scheduler
	monitor   *botmonitor.Monitor
	activity  *oplog.Logger

	HeartbeatInterval    time.Duration
	StatsInterval        time.Duration
	StalenessInterval    time.Duration
	StalenessThreshold   time.Duration
	KeepAliveInterval    time.Duration
	ReconnectDelay       time.Duration
	RetryDelay           time.Duration
	RestartDelay         time.Duration
	MaxReconnectAttempts int

	state atomic.Int32

	mu                sync.Mutex
	reconnectAttempts int
	reconnecting      bool

	timersMu sync.Mutex
	timers   []*time.Timer

	ctx context.Context

	// fatal se reemplaza en tests; en produccion es os.Exit.
	fatal func(code int)
}

func NewManager(t Transport, mon *botmonitor.Monitor, activity *oplog.Logger) *Manager {
	return &Manager{
		transport:            t,
		sched:                NewScheduler(),
		monitor:              mon,
		activity:             activity,
		HeartbeatInterval:    config.HeartbeatInterval,
		StatsInterval:        config.StatsInterval,
		StalenessInterval:    config.StalenessInterval,
		StalenessThreshold:   config.StalenessThreshold,
		KeepAliveInterval:    config.KeepAliveInterval,
		ReconnectDelay:       config.ReconnectDelay,
		RetryDelay:           config.ReconnectRetryDelay,
		RestartDelay:         config.RestartDelay,
		MaxReconnectAttempts: config.MaxReconnectAttempts,
		fatal:                os.Exit,
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

// Run hace la conexion inicial. Los cambios de estado posteriores
// llegan por los callbacks On*.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	m.setState(StateConnecting)
	m.activity.Log("ARRANQUE", "conectando sesion WhatsApp")
	return m.transport.Connect(ctx)
}

// OnAwaitingAuth se dispara cuando hay codigo QR pendiente de escanear.
func (m *Manager) OnAwaitingAuth() {
	m.setState(StateAwaitingAuth)
	logrus.Info("[LIFECYCLE] Esperando autenticacion (escanea el codigo QR)")
	m.activity.Log("AUTENTICACION", "esperando escaneo de QR")
}

// OnConnected se dispara al quedar la sesion lista.
func (m *Manager) OnConnected() {
	wasRecovering := m.State() == StateReconnecting || m.State() == StateRestarting
	m.setState(StateConnected)

	m.mu.Lock()
	m.reconnectAttempts = 0
	m.reconnecting = false
	m.mu.Unlock()

	if wasRecovering {
		m.monitor.Reconnection()
		m.activity.Log("RECONEXION", "sesion restablecida")
	} else {
		m.activity.Log("CONEXION", "sesion establecida")
	}
	m.monitor.Heartbeat()
	m.monitor.Record("lifecycle", "connected", "")
	logrus.Info("[LIFECYCLE] Bot conectado y operativo")

	m.startTasks()
}

// OnDisconnected se dispara al perder la sesion por cualquier causa.
func (m *Manager) OnDisconnected(reason string) {
	m.mu.Lock()
	if m.reconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	m.mu.Unlock()

	m.setState(StateDisconnected)
	m.monitor.Record("lifecycle", "disconnected", reason)
	m.activity.Log("DESCONEXION", reason)
	logrus.Warnf("[LIFECYCLE] Desconectado: %s", reason)

	m.sched.StopAll()
	m.after(m.ReconnectDelay, m.attemptReconnect)
}

// Shutdown detiene tareas y timers para un apagado ordenado.
func (m *Manager) Shutdown() {
	m.sched.StopAll()
	m.timersMu.Lock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
	m.timersMu.Unlock()
	m.transport.Disconnect()
	m.setState(StateDisconnected)
	m.activity.Log("APAGADO", "cierre ordenado")
}

func (m *Manager) after(d time.Duration, fn func()) {
	m.timersMu.Lock()
	defer m.timersMu.Unlock()
	m.timers = append(m.timers, time.AfterFunc(d, fn))
}

// Las tareas corren dentro del scheduler y StopAll espera a que todas
// terminen, asi que ninguna tarea puede llamar OnDisconnected en forma
// directa: lo delegan a una goroutine nueva para no esperarse a si
// mismas.
func (m *Manager) startTasks() {
	m.sched.Start("heartbeat", m.HeartbeatInterval, func() {
		if m.transport.IsConnected() {
			m.monitor.Heartbeat()
			return
		}
		logrus.Warn("[HEARTBEAT] transporte no conectado")
		go m.OnDisconnected("transporte no conectado")
	})

	m.sched.Start("stats", m.StatsInterval, func() {
		snap := m.monitor.Snapshot()
		logrus.Infof("[STATS] procesados=%d respuestas=%d reconexiones=%d errores=%d uptime=%s",
			snap.MessagesProcessed, snap.RepliesSent, snap.Reconnections, snap.Errors, snap.Uptime)
	})

	m.sched.Start("staleness", m.StalenessInterval, func() {
		idle := time.Since(m.monitor.LastHeartbeat())
		if idle > m.StalenessThreshold && m.State() == StateConnected {
			logrus.Warnf("[HEALTH] %s sin heartbeat, forzando reconexion", idle.Round(time.Second))
			go m.OnDisconnected("heartbeat vencido")
		}
	})

	m.sched.Start("keepalive", m.KeepAliveInterval, func() {
		if err := m.transport.KeepAlive(m.ctx); err != nil {
			logrus.Warnf("[KEEPALIVE] fallo el anti-idle: %v", err)
		}
	})
}

func (m *Manager) attemptReconnect() {
	m.mu.Lock()
	m.reconnectAttempts++
	attempt := m.reconnectAttempts
	m.mu.Unlock()

	if attempt > m.MaxReconnectAttempts {
		m.restart()
		return
	}

	m.setState(StateReconnecting)
	logrus.Infof("[RECONNECT] Intento %d/%d...", attempt, m.MaxReconnectAttempts)
	m.activity.Log("RECONEXION", "intento de reconexion")

	if err := m.transport.Connect(m.ctx); err != nil {
		m.monitor.Error()
		logrus.Errorf("[RECONNECT] Fallo el intento %d: %v", attempt, err)
		m.after(m.RetryDelay, m.attemptReconnect)
		return
	}
	// El exito real lo confirma el evento Connected del transporte.
}

func (m *Manager) restart() {
	m.setState(StateRestarting)
	logrus.Warn("[RESTART] Maximo de reconexiones alcanzado, reinicio completo del sistema")
	m.activity.Log("REINICIO", "reinicio completo tras agotar reconexiones")
	m.monitor.Record("lifecycle", "restarting", "")

	m.sched.StopAll()
	m.transport.Disconnect()

	m.after(m.RestartDelay, func() {
		m.mu.Lock()
		m.reconnectAttempts = 0
		m.reconnecting = false
		m.mu.Unlock()

		if err := m.transport.Reset(m.ctx); err != nil {
			logrus.Errorf("[FATAL] El reinicio completo fallo: %v", err)
			m.activity.Log("FATAL", "reinicio fallido, terminando proceso")
			m.fatal(1)
			return
		}
	})
}
