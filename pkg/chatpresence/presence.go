// Package chatpresence registra en que chats el bot esta "escribiendo"
// mientras prepara una respuesta, para el indicador de WhatsApp y el
// feed de monitoreo.
package chatpresence

import (
	"sync"
	"time"
)

// Las entradas viejas se consideran colgadas y se podan al listar.
const staleAfter = 2 * time.Minute

type Tracker struct {
	mu    sync.Mutex
	store map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{store: map[string]time.Time{}}
}

func (t *Tracker) Start(chatJID string) {
	if chatJID == "" {
		return
	}
	t.mu.Lock()
	t.store[chatJID] = time.Now()
	t.mu.Unlock()
}

func (t *Tracker) Stop(chatJID string) {
	t.mu.Lock()
	delete(t.store, chatJID)
	t.mu.Unlock()
}

// Active devuelve los chats donde el bot sigue escribiendo.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	out := make([]string, 0, len(t.store))
	for chat, since := range t.store {
		if now.Sub(since) > staleAfter {
			delete(t.store, chat)
			continue
		}
		out = append(out, chat)
	}
	return out
}
