package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/playmallpark/winston/domains/message"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/playmallpark/winston/pkg/oplog"
	"github.com/sirupsen/logrus"
)

// Replier emite las respuestas del bot por el transporte activo.
type Replier interface {
	Reply(ctx context.Context, chatJID, text string) error
	SendPrivate(ctx context.Context, number, text string) error
}

// TypingNotifier controla el indicador "escribiendo..." del chat.
type TypingNotifier interface {
	StartTyping(ctx context.Context, chatJID string) error
	StopTyping(ctx context.Context, chatJID string) error
}

// Pipeline es el recorrido de admision de cada mensaje entrante:
// filtros, comandos y por ultimo el motor NLP.
type Pipeline struct {
	Roster        *Roster
	Dispatcher    *Dispatcher
	Nlp           NlpInvoker
	Replier       Replier
	Monitor       *botmonitor.Monitor
	Activity      *oplog.Logger
	AllowedGroups []string

	// Typing es opcional; sin el no hay indicador de escritura.
	Typing TypingNotifier
}

// Process corre el pipeline completo sobre un mensaje. Los descartes
// no son errores; solo fallan los envios de respuesta.
func (p *Pipeline) Process(ctx context.Context, msg *message.Inbound) error {
	if strings.HasPrefix(msg.ChatJID, "status@") {
		logrus.Debug("[FILTER] Mensaje de status ignorado")
		return nil
	}

	if msg.IsGroup && len(p.AllowedGroups) > 0 && !p.groupAllowed(msg.ChatJID) {
		logrus.Debugf("[FILTER] Grupo no habilitado: %s", msg.ChatJID)
		return nil
	}

	authorized := p.Roster.IsAuthorized(msg.Sender)

	if !msg.IsGroup && !authorized {
		logrus.Infof("[FILTER] Mensaje privado de numero no autorizado: %s", msg.Sender)
		p.Monitor.Record("admision", "descartado", "privado no autorizado")
		return nil
	}

	if !msg.IsGroup && authorized && !IsRelevant(msg.Text) {
		logrus.Info("[FILTER] Mensaje privado casual ignorado")
		p.Monitor.Record("admision", "descartado", "privado casual")
		return nil
	}

	if !msg.HasText() && !msg.HasMedia() && msg.Kind == message.KindText {
		logrus.Debug("[FILTER] Mensaje vacio ignorado")
		return nil
	}

	if msg.Kind == message.KindSticker {
		logrus.Debug("[FILTER] Sticker ignorado")
		return nil
	}

	remitente := msg.PushName
	if remitente == "" {
		remitente = msg.Sender
	}
	p.Activity.Log("MENSAJE_RECIBIDO", fmt.Sprintf("%s: %s", remitente, summarize(msg)))
	p.Monitor.MessageProcessed()

	if reply, handled := p.Dispatcher.Dispatch(ctx, msg, authorized); handled {
		p.Activity.Log("COMANDO", strings.TrimSpace(msg.Text))
		return p.sendReply(ctx, msg.ChatJID, reply)
	}

	text := strings.TrimSpace(msg.Text)
	textEligible := text != "" && !strings.HasPrefix(text, "/") && len(text) > 5
	eligible := textEligible || msg.HasMedia() || msg.Kind == message.KindAudio
	if !eligible {
		logrus.Infof("[GPT] Mensaje no elegible para procesamiento: %q", text)
		p.Monitor.Record("admision", "descartado", "no elegible para NLP")
		return nil
	}

	// Redundante con el filtro de privados de arriba; se conserva como
	// guarda frente a cambios en el orden de admision.
	if !msg.IsGroup && !authorized {
		logrus.Warnf("[GPT] Elegible pero no autorizado, ignorado: %s", msg.Sender)
		return nil
	}

	logrus.Info("[GPT] Mensaje elegible para procesamiento inteligente")
	p.Monitor.NlpRequest()

	if p.Typing != nil {
		if err := p.Typing.StartTyping(ctx, msg.ChatJID); err != nil {
			logrus.Debugf("[PRESENCE] no se pudo marcar escribiendo: %v", err)
		}
		defer func() {
			if err := p.Typing.StopTyping(ctx, msg.ChatJID); err != nil {
				logrus.Debugf("[PRESENCE] no se pudo limpiar el indicador: %v", err)
			}
		}()
	}

	var image *message.Media
	if msg.Kind == message.KindImage && msg.HasMedia() {
		image = msg.Media
	}

	result := p.Nlp.Invoke(ctx, nlpText(msg), msg.Sender, image)
	if result == nil {
		p.Monitor.Error()
		return nil
	}

	if result.GroupReply != "" {
		if err := p.sendReply(ctx, msg.ChatJID, result.GroupReply); err != nil {
			return err
		}
	}

	if pm := result.Private; pm != nil && pm.Number != "" && pm.Message != "" {
		// El envio privado es secundario: si falla no rompe la
		// respuesta del grupo.
		if err := p.Replier.SendPrivate(ctx, pm.Number, pm.Message); err != nil {
			logrus.Errorf("[PRIVADO] fallo el envio a %s: %v", pm.Number, err)
			p.Monitor.Error()
		} else {
			p.Monitor.ReplySent()
			p.Activity.Log("MENSAJE_PRIVADO", "enviado a "+pm.Number)
		}
	}

	return nil
}

func (p *Pipeline) sendReply(ctx context.Context, chatJID, text string) error {
	if err := p.Replier.Reply(ctx, chatJID, text); err != nil {
		logrus.Errorf("[REPLY] fallo el envio a %s: %v", chatJID, err)
		p.Monitor.Error()
		return err
	}
	p.Monitor.ReplySent()
	return nil
}

func (p *Pipeline) groupAllowed(chatJID string) bool {
	for _, g := range p.AllowedGroups {
		if g == chatJID {
			return true
		}
	}
	return false
}

// nlpText arma el texto que recibe el motor: placeholder cuando solo
// hay adjunto, marcador de adjunto cuando hay texto y adjunto.
func nlpText(msg *message.Inbound) string {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		switch msg.Kind {
		case message.KindAudio:
			return "[AUDIO ENVIADO] - Analizar mensaje de audio"
		case message.KindDocument:
			return "[DOCUMENTO ENVIADO] - Analizar documento adjunto"
		case message.KindImage:
			return "[IMAGEN ENVIADA] - Analizar contenido de imagen"
		case message.KindVideo:
			return "[VIDEO ENVIADO] - Analizar contenido de video"
		}
		return text
	}

	switch msg.Kind {
	case message.KindAudio:
		return text + "\n\n[AUDIO ADJUNTO]"
	case message.KindDocument:
		return text + "\n\n[DOCUMENTO ADJUNTO]"
	case message.KindVideo:
		return text + "\n\n[VIDEO ADJUNTO]"
	}
	return text
}

func summarize(msg *message.Inbound) string {
	if msg.HasText() {
		text := strings.TrimSpace(msg.Text)
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		return text
	}
	return "[" + string(msg.Kind) + "]"
}
