package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/playmallpark/winston/domains/message"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/playmallpark/winston/pkg/oplog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNlp struct {
	result     *message.NlpResult
	calls      int
	lastText   string
	lastNumber string
	lastImage  *message.Media
}

func (s *stubNlp) Invoke(_ context.Context, text, number string, image *message.Media) *message.NlpResult {
	s.calls++
	s.lastText = text
	s.lastNumber = number
	s.lastImage = image
	return s.result
}

type sent struct {
	target string
	text   string
}

type stubReplier struct {
	replies   []sent
	privates  []sent
	failReply bool
}

func (s *stubReplier) Reply(_ context.Context, chatJID, text string) error {
	if s.failReply {
		return fmt.Errorf("socket cerrado")
	}
	s.replies = append(s.replies, sent{chatJID, text})
	return nil
}

func (s *stubReplier) SendPrivate(_ context.Context, number, text string) error {
	s.privates = append(s.privates, sent{number, text})
	return nil
}

type stubReports struct{}

func (stubReports) Dispatch(context.Context, string) (string, bool) { return "", false }

func newTestRoster(t *testing.T) *Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contexto_operativo.json")
	data := `{"gerente": {"nombre": "Ana", "telefono": "584141234567"}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	roster, err := LoadRoster(path)
	require.NoError(t, err)
	return roster
}

func newTestPipeline(t *testing.T) (*Pipeline, *stubNlp, *stubReplier) {
	t.Helper()
	nlp := &stubNlp{result: &message.NlpResult{GroupReply: "Atendido."}}
	replier := &stubReplier{}
	monitor := botmonitor.New()
	roster := newTestRoster(t)
	p := &Pipeline{
		Roster: roster,
		Dispatcher: &Dispatcher{
			Roster:    roster,
			Monitor:   monitor,
			ConnState: func() string { return "connected" },
			Nlp:       nlp,
			Reports:   stubReports{},
		},
		Nlp:      nlp,
		Replier:  replier,
		Monitor:  monitor,
		Activity: oplog.New(filepath.Join(t.TempDir(), "registro.log")),
	}
	return p, nlp, replier
}

func groupMsg(text string) *message.Inbound {
	return &message.Inbound{
		ChatJID: "120363001122334455@g.us",
		Sender:  "584120000000@s.whatsapp.net",
		IsGroup: true,
		Text:    text,
		Kind:    message.KindText,
	}
}

func privateMsg(sender, text string) *message.Inbound {
	return &message.Inbound{
		ChatJID: sender,
		Sender:  sender,
		IsGroup: false,
		Text:    text,
		Kind:    message.KindText,
	}
}

func TestPipelineIgnoraStatusBroadcast(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	msg := groupMsg("reporte de ventas urgente del carrusel")
	msg.ChatJID = "status@broadcast"

	require.NoError(t, p.Process(context.Background(), msg))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelineIgnoraGrupoNoHabilitado(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)
	p.AllowedGroups = []string{"otrogrupo@g.us"}

	require.NoError(t, p.Process(context.Background(), groupMsg("falla en la atraccion principal")))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelineIgnoraPrivadoNoAutorizado(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	msg := privateMsg("584249999999@s.whatsapp.net", "necesito el reporte de ventas de hoy")
	require.NoError(t, p.Process(context.Background(), msg))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelineIgnoraPrivadoCasualDeAutorizado(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	msg := privateMsg("584141234567@s.whatsapp.net", "gracias")
	require.NoError(t, p.Process(context.Background(), msg))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelinePrivadoRelevanteDeAutorizadoLlegaAlNlp(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	msg := privateMsg("584141234567@s.whatsapp.net", "hay una falla en el sistema de tickets")
	require.NoError(t, p.Process(context.Background(), msg))
	assert.Equal(t, 1, nlp.calls)
	require.Len(t, replier.replies, 1)
	assert.Equal(t, "Atendido.", replier.replies[0].text)
}

func TestPipelineIgnoraSticker(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	msg := groupMsg("")
	msg.Kind = message.KindSticker

	require.NoError(t, p.Process(context.Background(), msg))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelineComandoRespondeSinNlp(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	require.NoError(t, p.Process(context.Background(), groupMsg("/ping")))
	assert.Zero(t, nlp.calls)
	require.Len(t, replier.replies, 1)
	assert.Contains(t, replier.replies[0].text, "Bot PlayMall Park ACTIVO")
}

func TestPipelineComandoDesconocidoSeDescartaSinRespuesta(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	require.NoError(t, p.Process(context.Background(), groupMsg("/comandoquenoexiste")))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelineTextoCortoNoElegible(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)

	require.NoError(t, p.Process(context.Background(), groupMsg("ok ya")))
	assert.Zero(t, nlp.calls)
	assert.Empty(t, replier.replies)
}

func TestPipelineGrupoElegibleInvocaNlpYReenviaPrivado(t *testing.T) {
	p, nlp, replier := newTestPipeline(t)
	nlp.result = &message.NlpResult{
		GroupReply: "Ventas registradas.",
		Private:    &message.PrivateMessage{Number: "584141234567", Message: "Revisa caja 2."},
	}

	msg := groupMsg("se detuvo la montana rusa con pasajeros arriba")
	require.NoError(t, p.Process(context.Background(), msg))

	assert.Equal(t, 1, nlp.calls)
	assert.Equal(t, msg.Sender, nlp.lastNumber)
	require.Len(t, replier.replies, 1)
	assert.Equal(t, "Ventas registradas.", replier.replies[0].text)
	require.Len(t, replier.privates, 1)
	assert.Equal(t, "584141234567", replier.privates[0].target)
	assert.Equal(t, "Revisa caja 2.", replier.privates[0].text)
}

func TestPipelineAudioSinTextoUsaPlaceholder(t *testing.T) {
	p, nlp, _ := newTestPipeline(t)

	msg := groupMsg("")
	msg.Kind = message.KindAudio
	msg.Media = &message.Media{Data: []byte{0x4f}, MimeType: "audio/ogg"}

	require.NoError(t, p.Process(context.Background(), msg))
	assert.Equal(t, 1, nlp.calls)
	assert.Equal(t, "[AUDIO ENVIADO] - Analizar mensaje de audio", nlp.lastText)
	assert.Nil(t, nlp.lastImage)
}

func TestPipelineImagenAdjuntaLlegaAlNlp(t *testing.T) {
	p, nlp, _ := newTestPipeline(t)

	msg := groupMsg("asi quedo el puesto de comida despues del dano")
	msg.Kind = message.KindImage
	msg.Media = &message.Media{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"}

	require.NoError(t, p.Process(context.Background(), msg))
	require.NotNil(t, nlp.lastImage)
	assert.Equal(t, "image/jpeg", nlp.lastImage.MimeType)
	assert.Equal(t, msg.Text, nlp.lastText)
}

func TestPipelineDocumentoConTextoAgregaMarcador(t *testing.T) {
	p, nlp, _ := newTestPipeline(t)

	msg := groupMsg("factura del proveedor de repuestos")
	msg.Kind = message.KindDocument
	msg.Media = &message.Media{Data: []byte{0x25}, MimeType: "application/pdf"}

	require.NoError(t, p.Process(context.Background(), msg))
	assert.Equal(t, "factura del proveedor de repuestos\n\n[DOCUMENTO ADJUNTO]", nlp.lastText)
}

func TestPipelineFalloDeEnvioRetornaError(t *testing.T) {
	p, _, replier := newTestPipeline(t)
	replier.failReply = true

	err := p.Process(context.Background(), groupMsg("se fue la luz en la zona de juegos"))
	require.Error(t, err)
	assert.EqualValues(t, 1, p.Monitor.Snapshot().Errors)
}

func TestPipelineContadoresDeMonitoreo(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	require.NoError(t, p.Process(context.Background(), groupMsg("reporta la falla del trencito por favor")))

	snap := p.Monitor.Snapshot()
	assert.EqualValues(t, 1, snap.MessagesProcessed)
	assert.EqualValues(t, 1, snap.NlpRequests)
	assert.EqualValues(t, 1, snap.RepliesSent)
}
