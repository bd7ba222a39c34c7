package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/playmallpark/winston/domains/chat"
	"github.com/playmallpark/winston/domains/message"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGroups struct {
	groups []chat.GroupInfo
	info   chat.GroupInfo
	err    error
}

func (s stubGroups) ListGroups(context.Context) ([]chat.GroupInfo, error) {
	return s.groups, s.err
}

func (s stubGroups) GroupInfo(context.Context, string) (chat.GroupInfo, error) {
	return s.info, s.err
}

type fixedReports struct {
	reply string
}

func (f fixedReports) Dispatch(_ context.Context, text string) (string, bool) {
	if f.reply == "" {
		return "", false
	}
	return f.reply, true
}

type stubStory struct {
	enabled     bool
	published   int
	lastCaption string
	status      string
}

func (s *stubStory) Enabled() bool { return s.enabled }

func (s *stubStory) PublishImage(_ context.Context, _ []byte, caption string) error {
	s.published++
	s.lastCaption = caption
	return nil
}

func (s *stubStory) Status() string { return s.status }

func newTestDispatcher(t *testing.T) (*Dispatcher, *stubNlp, *stubStory) {
	t.Helper()
	nlp := &stubNlp{result: &message.NlpResult{GroupReply: "Parque operativo."}}
	story := &stubStory{enabled: true, status: "📷 Instagram operativo"}
	d := &Dispatcher{
		Roster:    newTestRoster(t),
		Monitor:   botmonitor.New(),
		ConnState: func() string { return "connected" },
		Nlp:       nlp,
		Reports:   fixedReports{},
		Groups: stubGroups{
			groups: []chat.GroupInfo{{JID: "123@g.us", Name: "Operaciones", Participants: 12}},
			info:   chat.GroupInfo{JID: "123@g.us", Name: "Operaciones", Participants: 12, Topic: "Turnos"},
		},
		Instagram:      story,
		GroupsDumpPath: filepath.Join(t.TempDir(), "grupos_whatsapp.json"),
	}
	return d, nlp, story
}

func TestDispatchTestiaUsaLaPreguntaDePrueba(t *testing.T) {
	d, nlp, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/testia"), false)
	require.True(t, handled)
	assert.Equal(t, "Parque operativo.", reply)
	assert.Equal(t, 1, nlp.calls)
	assert.Equal(t, "¿Cuál es el estado del parque hoy?", nlp.lastText)
}

func TestDispatchTestiaGanaSobrePing(t *testing.T) {
	// "/testia" contiene "/test"; el orden de chequeo decide.
	d, nlp, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/testia"), false)
	require.True(t, handled)
	assert.NotContains(t, reply, "ACTIVO")
	assert.Equal(t, 1, nlp.calls)
}

func TestDispatchPing(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/ping"), false)
	require.True(t, handled)
	assert.Contains(t, reply, "Bot PlayMall Park ACTIVO")
	assert.Contains(t, reply, "Estado: Conectado")
}

func TestDispatchEstado(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/estado"), false)
	require.True(t, handled)
	assert.Contains(t, reply, "Bot: OPERATIVO")
	assert.Contains(t, reply, "Mensajes procesados")
}

func TestDispatchHelp(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/ayuda"), false)
	require.True(t, handled)
	assert.Contains(t, reply, "Comandos del Bot PlayMall Park")
	assert.Contains(t, reply, "/inventario")
	assert.Contains(t, reply, "/departamentos")
}

func TestDispatchGruposRequiereAutorizacion(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, handled := d.Dispatch(context.Background(), groupMsg("/grupos"), false)
	assert.False(t, handled)
}

func TestDispatchGruposGuardaElArchivo(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/grupos"), true)
	require.True(t, handled)
	assert.Contains(t, reply, "1 grupos encontrados")

	data, err := os.ReadFile(d.GroupsDumpPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Operaciones")
}

func TestDispatchIdSoloEnGrupos(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	msg := privateMsg("584141234567@s.whatsapp.net", "/id")
	_, handled := d.Dispatch(context.Background(), msg, true)
	assert.False(t, handled)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/id"), true)
	require.True(t, handled)
	assert.Contains(t, reply, "123@g.us")
	assert.Contains(t, reply, "Participantes: 12")
}

func TestDispatchPersonalEsMatchExacto(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("/personal"), true)
	require.True(t, handled)
	assert.Contains(t, reply, "Personal Autorizado (1)")
	assert.Contains(t, reply, "584141234567")

	_, handled = d.Dispatch(context.Background(), groupMsg("/personal lista"), true)
	assert.False(t, handled)
}

func TestDispatchDelegaReportes(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	d.Reports = fixedReports{reply: "💰 Ventas del día"}

	reply, handled := d.Dispatch(context.Background(), groupMsg("/ventas"), false)
	require.True(t, handled)
	assert.Equal(t, "💰 Ventas del día", reply)
}

func TestDispatchPublicarInstagramSinImagenPideAdjunto(t *testing.T) {
	d, _, story := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("publicar instagram promo del sabado"), true)
	require.True(t, handled)
	assert.Contains(t, reply, "Adjunta una imagen")
	assert.Zero(t, story.published)
}

func TestDispatchPublicarInstagramConImagen(t *testing.T) {
	d, _, story := newTestDispatcher(t)

	msg := groupMsg("publicar instagram promo del sabado")
	msg.Kind = message.KindImage
	msg.Media = &message.Media{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"}

	reply, handled := d.Dispatch(context.Background(), msg, true)
	require.True(t, handled)
	assert.Contains(t, reply, "Historia publicada")
	assert.Equal(t, 1, story.published)
	assert.Equal(t, "promo del sabado", story.lastCaption)
}

func TestDispatchEstadoInstagram(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, handled := d.Dispatch(context.Background(), groupMsg("estado instagram"), true)
	require.True(t, handled)
	assert.Equal(t, "📷 Instagram operativo", reply)
}

func TestDispatchTextoNormalNoEsComando(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, handled := d.Dispatch(context.Background(), groupMsg("buenas tardes equipo"), false)
	assert.False(t, handled)
}
