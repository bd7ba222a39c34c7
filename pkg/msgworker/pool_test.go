package msgworker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryDispatchNoBloquea(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start(context.Background())
	defer pool.Stop()

	bloqueo := make(chan struct{})
	defer close(bloqueo)

	// Primer job ocupa el worker.
	ok := pool.TryDispatch(Job{ChatJID: "grupo@g.us", Handler: func(ctx context.Context) error {
		<-bloqueo
		return nil
	}})
	require.True(t, ok)

	// Segundo llena la cola, tercero debe rechazarse sin bloquear.
	pool.TryDispatch(Job{ChatJID: "grupo@g.us", Handler: func(ctx context.Context) error { return nil }})

	done := make(chan bool, 1)
	go func() {
		done <- pool.TryDispatch(Job{ChatJID: "grupo@g.us", Handler: func(ctx context.Context) error { return nil }})
	}()

	select {
	case res := <-done:
		assert.False(t, res)
	case <-time.After(time.Second):
		t.Fatal("TryDispatch bloqueo con la cola llena")
	}
}

func TestMismoChatSeProcesaEnOrden(t *testing.T) {
	pool := NewPool(8, 100)
	pool.Start(context.Background())

	var mu sync.Mutex
	var orden []int

	for i := 0; i < 20; i++ {
		i := i
		ok := pool.TryDispatch(Job{ChatJID: "parque@g.us", Handler: func(ctx context.Context) error {
			mu.Lock()
			orden = append(orden, i)
			mu.Unlock()
			return nil
		}})
		require.True(t, ok)
	}
	pool.Stop()

	require.Len(t, orden, 20)
	for i, v := range orden {
		assert.Equal(t, i, v, "mensajes del mismo chat fuera de orden")
	}
}

func TestHashConsistentePorChat(t *testing.T) {
	pool := NewPool(16, 10)

	for _, jid := range []string{"a@g.us", "b@g.us", "584140000000@s.whatsapp.net"} {
		primero := pool.shardForChat(jid)
		for i := 0; i < 10; i++ {
			assert.Equal(t, primero, pool.shardForChat(jid))
		}
	}
}

func TestChatsDistintosCorrenEnParalelo(t *testing.T) {
	pool := NewPool(4, 10)
	pool.Start(context.Background())
	defer pool.Stop()

	// Dos chats que caen en workers distintos.
	jidA, jidB := "a@g.us", "b@g.us"
	if pool.shardForChat(jidA) == pool.shardForChat(jidB) {
		jidB = "c@g.us"
	}
	require.NotEqual(t, pool.shardForChat(jidA), pool.shardForChat(jidB))

	arrancoA := make(chan struct{})
	sueltaA := make(chan struct{})
	terminoB := make(chan struct{})

	pool.TryDispatch(Job{ChatJID: jidA, Handler: func(ctx context.Context) error {
		close(arrancoA)
		<-sueltaA
		return nil
	}})
	<-arrancoA

	pool.TryDispatch(Job{ChatJID: jidB, Handler: func(ctx context.Context) error {
		close(terminoB)
		return nil
	}})

	select {
	case <-terminoB:
	case <-time.After(time.Second):
		t.Fatal("un chat bloqueado freno a otro chat")
	}
	close(sueltaA)
}

func TestStopDrenaPendientes(t *testing.T) {
	pool := NewPool(2, 50)
	pool.Start(context.Background())

	var procesados sync.WaitGroup
	total := 30
	procesados.Add(total)
	for i := 0; i < total; i++ {
		ok := pool.TryDispatch(Job{ChatJID: "x@g.us", Handler: func(ctx context.Context) error {
			procesados.Done()
			return nil
		}})
		require.True(t, ok)
	}

	pool.Stop()
	procesados.Wait()

	snap := pool.Snapshot()
	assert.Equal(t, int64(total), snap.TotalProcessed)
	assert.Equal(t, int64(total), snap.TotalDispatched)
}

func TestDispatchTrasStopSeDescarta(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Start(context.Background())
	pool.Stop()

	ok := pool.TryDispatch(Job{ChatJID: "x@g.us", Handler: func(ctx context.Context) error { return nil }})
	assert.False(t, ok)
	assert.Equal(t, int64(1), pool.Snapshot().TotalDropped)
}
