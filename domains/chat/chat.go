package chat

// GroupInfo es el resumen de un grupo WhatsApp que consumen los
// comandos /grupos y /id.
type GroupInfo struct {
	JID          string `json:"id"`
	Name         string `json:"nombre"`
	Participants int    `json:"participantes"`
	Topic        string `json:"descripcion"`
}
