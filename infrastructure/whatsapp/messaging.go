package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/playmallpark/winston/config"
	"github.com/playmallpark/winston/domains/chat"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// Reply envia texto al chat indicado.
func (s *Session) Reply(ctx context.Context, chatJID, text string) error {
	cli := s.Client()
	if cli == nil {
		return fmt.Errorf("sesion no inicializada")
	}
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("jid invalido %q: %w", chatJID, err)
	}

	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
		},
	}
	_, err = cli.SendMessage(ctx, jid, msg)
	return err
}

// SendPrivate envia un mensaje directo a un numero del personal.
func (s *Session) SendPrivate(ctx context.Context, number, text string) error {
	clean := strings.NewReplacer("+", "", " ", "", "@c.us", "").Replace(number)
	if clean == "" {
		return fmt.Errorf("numero vacio")
	}
	return s.Reply(ctx, clean+config.WhatsappTypeUser, text)
}

// StartTyping muestra el indicador "escribiendo..." en el chat.
func (s *Session) StartTyping(ctx context.Context, chatJID string) error {
	cli := s.Client()
	if cli == nil {
		return fmt.Errorf("sesion no inicializada")
	}
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("jid invalido %q: %w", chatJID, err)
	}
	s.typing.Start(chatJID)
	return cli.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

// StopTyping apaga el indicador.
func (s *Session) StopTyping(ctx context.Context, chatJID string) error {
	s.typing.Stop(chatJID)
	cli := s.Client()
	if cli == nil {
		return nil
	}
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return err
	}
	return cli.SendChatPresence(ctx, jid, types.ChatPresencePaused, types.ChatPresenceMediaText)
}

// TypingChats lista los chats donde el bot sigue escribiendo.
func (s *Session) TypingChats() []string {
	return s.typing.Active()
}

// ListGroups devuelve los grupos a los que pertenece la sesion.
func (s *Session) ListGroups(ctx context.Context) ([]chat.GroupInfo, error) {
	cli := s.Client()
	if cli == nil {
		return nil, fmt.Errorf("sesion no inicializada")
	}
	groups, err := cli.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]chat.GroupInfo, 0, len(groups))
	for _, g := range groups {
		out = append(out, chat.GroupInfo{
			JID:          g.JID.String(),
			Name:         g.GroupName.Name,
			Participants: len(g.Participants),
			Topic:        g.Topic,
		})
	}
	return out, nil
}

// GroupInfo devuelve los datos de un grupo concreto.
func (s *Session) GroupInfo(ctx context.Context, chatJID string) (chat.GroupInfo, error) {
	cli := s.Client()
	if cli == nil {
		return chat.GroupInfo{}, fmt.Errorf("sesion no inicializada")
	}
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return chat.GroupInfo{}, fmt.Errorf("jid invalido %q: %w", chatJID, err)
	}
	info, err := cli.GetGroupInfo(ctx, jid)
	if err != nil {
		return chat.GroupInfo{}, err
	}
	return chat.GroupInfo{
		JID:          info.JID.String(),
		Name:         info.GroupName.Name,
		Participants: len(info.Participants),
		Topic:        info.Topic,
	}, nil
}
