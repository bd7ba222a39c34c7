package message

import "strings"

// Kind clasifica el contenido principal de un mensaje entrante.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
	KindSticker  Kind = "sticker"
)

// Media holds a downloaded attachment.
type Media struct {
	Data     []byte
	MimeType string
	FileName string
}

// Inbound is the normalized inbound message the pipeline operates on.
type Inbound struct {
	ID       string
	ChatJID  string
	Sender   string
	PushName string
	IsGroup  bool
	Text     string
	Kind     Kind
	Media    *Media
}

// HasText reports whether the message carries non-blank text.
func (m *Inbound) HasText() bool {
	return strings.TrimSpace(m.Text) != ""
}

// HasMedia reports whether an attachment was downloaded.
func (m *Inbound) HasMedia() bool {
	return m.Media != nil && len(m.Media.Data) > 0
}

// PrivateMessage is a direct message the NLP engine wants relayed
// to a specific staff number.
type PrivateMessage struct {
	Number  string `json:"numero"`
	Message string `json:"mensaje"`
}

// NlpResult is the parsed outcome of one NLP engine invocation.
type NlpResult struct {
	GroupReply string          `json:"respuesta_grupo"`
	Private    *PrivateMessage `json:"mensaje_privado"`
}
