package whatsapp

import (
	"context"

	"github.com/playmallpark/winston/domains/message"
	"github.com/playmallpark/winston/lifecycle"
	"github.com/playmallpark/winston/pkg/msgworker"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
)

// ProcessFunc corre el pipeline de admision sobre un mensaje ya
// normalizado.
type ProcessFunc func(ctx context.Context, msg *message.Inbound) error

// WireEvents conecta los eventos whatsmeow con el supervisor de ciclo
// de vida y el pool de workers de mensajes.
func (s *Session) WireEvents(mgr *lifecycle.Manager, pool *msgworker.Pool, process ProcessFunc) {
	s.AddEventHandler(func(rawEvt any) {
		switch evt := rawEvt.(type) {
		case *events.Message:
			msg := s.buildInbound(context.Background(), evt)
			ok := pool.TryDispatch(msgworker.Job{
				ChatJID: msg.ChatJID,
				Handler: func(ctx context.Context) error {
					return process(ctx, msg)
				},
			})
			if !ok {
				logrus.Warnf("[EVENTS] mensaje de %s descartado por saturacion", msg.ChatJID)
			}

		case *events.Connected:
			mgr.OnConnected()

		case *events.QR:
			mgr.OnAwaitingAuth()

		case *events.PairSuccess:
			logrus.Infof("[EVENTS] Dispositivo vinculado: %s", evt.ID.String())

		case *events.Disconnected:
			mgr.OnDisconnected("conexion perdida")

		case *events.StreamReplaced:
			mgr.OnDisconnected("stream reemplazado por otra sesion")

		case *events.LoggedOut:
			mgr.OnDisconnected("sesion cerrada desde el telefono")

		case *events.KeepAliveTimeout:
			logrus.Warnf("[EVENTS] keepalive timeout (errores: %d)", evt.ErrorCount)
		}
	})
}

// buildInbound normaliza el evento al mensaje del dominio, bajando el
// adjunto cuando lo hay.
func (s *Session) buildInbound(ctx context.Context, evt *events.Message) *message.Inbound {
	msg := &message.Inbound{
		ID:       evt.Info.ID,
		ChatJID:  evt.Info.Chat.String(),
		Sender:   evt.Info.Sender.String(),
		PushName: evt.Info.PushName,
		IsGroup:  evt.Info.IsGroup,
		Kind:     message.KindText,
	}

	switch {
	case evt.Message.GetImageMessage() != nil:
		img := evt.Message.GetImageMessage()
		msg.Kind = message.KindImage
		msg.Text = img.GetCaption()
		msg.Media = s.download(ctx, img, img.GetMimetype())

	case evt.Message.GetAudioMessage() != nil:
		audio := evt.Message.GetAudioMessage()
		msg.Kind = message.KindAudio
		msg.Media = s.download(ctx, audio, audio.GetMimetype())

	case evt.Message.GetVideoMessage() != nil:
		video := evt.Message.GetVideoMessage()
		msg.Kind = message.KindVideo
		msg.Text = video.GetCaption()
		msg.Media = s.download(ctx, video, video.GetMimetype())

	case evt.Message.GetDocumentMessage() != nil:
		doc := evt.Message.GetDocumentMessage()
		msg.Kind = message.KindDocument
		msg.Text = doc.GetCaption()
		media := s.download(ctx, doc, doc.GetMimetype())
		if media != nil {
			media.FileName = doc.GetFileName()
		}
		msg.Media = media

	case evt.Message.GetStickerMessage() != nil:
		msg.Kind = message.KindSticker

	case evt.Message.GetExtendedTextMessage() != nil:
		msg.Text = evt.Message.GetExtendedTextMessage().GetText()

	default:
		msg.Text = evt.Message.GetConversation()
	}

	return msg
}

func (s *Session) download(ctx context.Context, item whatsmeow.DownloadableMessage, mimeType string) *message.Media {
	cli := s.Client()
	if cli == nil {
		return nil
	}
	data, err := cli.Download(ctx, item)
	if err != nil {
		logrus.Errorf("[EVENTS] fallo la descarga del adjunto: %v", err)
		return nil
	}
	return &message.Media{Data: data, MimeType: mimeType}
}
