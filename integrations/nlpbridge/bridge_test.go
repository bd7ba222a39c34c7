package nlpbridge

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript deja un script sh que hace de motor NLP falso.
func writeScript(t *testing.T, body string) *Bridge {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake NLP script requiere sh")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "motor_falso.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return New("/bin/sh", path, dir, 2*time.Second, 3*time.Second)
}

func TestInvokeExtraeResultadoDelineado(t *testing.T) {
	b := writeScript(t, `echo '=== RESULTADO JSON ==='
echo '{"respuesta_grupo": "Parque operativo"}'
echo '=== FIN RESULTADO ==='`)

	res := b.Invoke(context.Background(), "como va el parque hoy", "584140000001@c.us", nil)
	assert.Equal(t, "Parque operativo", res.GroupReply)
}

func TestInvokeCodigoDeSalidaNoCero(t *testing.T) {
	b := writeScript(t, "exit 3")

	res := b.Invoke(context.Background(), "reporte de caja", "584140000001@c.us", nil)
	assert.Contains(t, res.GroupReply, "temporalmente en mantenimiento")
	assert.Contains(t, res.GroupReply, "Codigo de error: 3")
}

func TestInvokeTimeoutDelLlamador(t *testing.T) {
	b := writeScript(t, "sleep 30")
	b.CallTimeout = 100 * time.Millisecond
	b.KillTimeout = 200 * time.Millisecond

	inicio := time.Now()
	res := b.Invoke(context.Background(), "consulta lenta", "584140000001@c.us", nil)

	assert.Less(t, time.Since(inicio), 2*time.Second)
	assert.Contains(t, res.GroupReply, "temporalmente lento")
}

func TestInvokeSalidaIlegibleUsaFallbackContextual(t *testing.T) {
	b := writeScript(t, "echo basura")

	res := b.Invoke(context.Background(), "cuanto hay en venta", "584140000001@c.us", nil)
	assert.Contains(t, res.GroupReply, "Consulta de ventas recibida")
	assert.Contains(t, res.GroupReply, "Para asistencia inmediata")
}

func TestInvokeComandoInexistente(t *testing.T) {
	b := New("/bin/ruta/que/no/existe", "x.py", t.TempDir(), time.Second, 2*time.Second)

	res := b.Invoke(context.Background(), "hola", "584140000001@c.us", nil)
	assert.Contains(t, res.GroupReply, "Sistema temporalmente no disponible")
}
