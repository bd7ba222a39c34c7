package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playmallpark/winston/domains/chat"
	"github.com/playmallpark/winston/domains/message"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/sirupsen/logrus"
)

const testProbeQuestion = "¿Cuál es el estado del parque hoy?"

const helpText = `📖 *Comandos del Bot PlayMall Park*

🟢 *Sistema general*
• /ping — Verifica si el bot está activo
• /estado — Estado detallado del sistema
• /grupos — Listar grupos (personal autorizado)
• /id — Mostrar ID del grupo actual
• /personal — Personal autorizado

📦 *Inventario*
• /inventario — Productos con stock
• /inventario top — Top productos con más existencia
• /inventario faltantes — Existencia ≤ 3
• /inventario agotado — Existencia = 0
• /inventario negativo — Existencia < 0 (errores)
• /inventario todo — Todo el inventario (sin filtro)

💰 *Ventas*
• /ventas — Ventas del día
• /ventas top — Productos más vendidos
• /ventas detalle — Lista completa por producto
• /ventas 0 — Productos vendidos en 0
• /ventas ayer — Ventas del día anterior
• /ventas semana — Ventas de la semana
• /ventas mes — Ventas del mes

🛒 *Compras*
• /compras — Total de compras del día
• /compras detalle — Productos comprados
• /compras proveedor — Monto por proveedor

🏪 *Proveedores*
• /proveedores — Compras por proveedor
• /proveedores info — Lista de proveedores registrados (RIF + nombre)

🏷️ *Departamentos*
• /departamentos — Lista de departamentos registrados

Para consultas específicas, simplemente escribe tu mensaje y el sistema te responderá automáticamente.`

// NlpInvoker corre el motor NLP externo.
type NlpInvoker interface {
	Invoke(ctx context.Context, text, number string, image *message.Media) *message.NlpResult
}

// ReportService atiende los comandos de reporte del backend de negocio.
type ReportService interface {
	Dispatch(ctx context.Context, text string) (string, bool)
}

// GroupDirectory consulta los grupos de la sesion activa.
type GroupDirectory interface {
	ListGroups(ctx context.Context) ([]chat.GroupInfo, error)
	GroupInfo(ctx context.Context, chatJID string) (chat.GroupInfo, error)
}

// StoryService publica historias promocionales.
type StoryService interface {
	Enabled() bool
	PublishImage(ctx context.Context, data []byte, caption string) error
	Status() string
}

// Dispatcher resuelve los comandos del bot. Devuelve handled=false
// cuando el texto no es un comando conocido.
type Dispatcher struct {
	Roster         *Roster
	Monitor        *botmonitor.Monitor
	ConnState      func() string
	Nlp            NlpInvoker
	Reports        ReportService
	Groups         GroupDirectory
	Instagram      StoryService
	GroupsDumpPath string
}

// Dispatch procesa un posible comando del mensaje.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *message.Inbound, authorized bool) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(msg.Text))
	if lower == "" {
		return "", false
	}

	// Antes que /test: comparten prefijo.
	if lower == "/testia" {
		logrus.Info("[TEST] Ejecutando test IA manual")
		res := d.Nlp.Invoke(ctx, testProbeQuestion, msg.Sender, nil)
		if res == nil || res.GroupReply == "" {
			return "⚠️ Sin respuesta IA", true
		}
		return res.GroupReply, true
	}

	if strings.Contains(lower, "/ping") || strings.Contains(lower, "/test") {
		return d.pingReply(), true
	}

	if strings.Contains(lower, "/estado") {
		return d.statusReply(), true
	}

	if strings.Contains(lower, "/help") || strings.Contains(lower, "/ayuda") {
		return helpText, true
	}

	if strings.Contains(lower, "/grupos") && authorized {
		return d.groupsReply(ctx), true
	}

	if strings.Contains(lower, "/id") && msg.IsGroup && authorized {
		return d.groupIDReply(ctx, msg.ChatJID), true
	}

	if lower == "/personal" && authorized {
		return d.rosterReply(), true
	}

	if reply, ok := d.Reports.Dispatch(ctx, lower); ok {
		return reply, true
	}

	if strings.Contains(lower, "publicar instagram") && authorized {
		return d.publishStory(ctx, msg), true
	}

	if strings.Contains(lower, "estado instagram") && authorized {
		return d.Instagram.Status(), true
	}

	return "", false
}

func (d *Dispatcher) pingReply() string {
	snap := d.Monitor.Snapshot()
	estado := "Desconectado"
	if d.ConnState() == "connected" {
		estado = "Conectado"
	}
	return fmt.Sprintf("Bot PlayMall Park ACTIVO\n\n%s\nMensajes procesados: %d\nEstado: %s\nReconexiones: %d\n\nSistema operativo funcionando correctamente",
		time.Now().Format("02/01/2006 15:04:05"), snap.MessagesProcessed, estado, snap.Reconnections)
}

func (d *Dispatcher) statusReply() string {
	snap := d.Monitor.Snapshot()
	estadoBot := "DESCONECTADO"
	if d.ConnState() == "connected" {
		estadoBot = "OPERATIVO"
	}
	return fmt.Sprintf("Estado del Sistema PlayMall Park\n\nBot: %s\nFuncionando desde: %s\nMensajes procesados: %d\nReconexiones: %d\nErrores: %d\nUltimo heartbeat: %s\n\nPlayMall Park - Supervision Inteligente",
		estadoBot, snap.StartedAt.Format("02/01/2006 15:04"), snap.MessagesProcessed,
		snap.Reconnections, snap.Errors, snap.LastHeartbeat.Format("15:04:05"))
}

func (d *Dispatcher) groupsReply(ctx context.Context) string {
	grupos, err := d.Groups.ListGroups(ctx)
	if err != nil {
		logrus.Errorf("[COMMAND] Error obteniendo grupos: %v", err)
		return fmt.Sprintf("❌ *Error obteniendo grupos*\n\n🔧 Causa: %v\n\n🔄 Intenta nuevamente en unos segundos", err)
	}
	if len(grupos) == 0 {
		return "⚠️ No se encontraron grupos disponibles."
	}

	if data, err := json.MarshalIndent(grupos, "", "  "); err == nil {
		if err := os.WriteFile(d.GroupsDumpPath, data, 0644); err != nil {
			logrus.Warnf("[GRUPOS] no se pudo guardar %s: %v", d.GroupsDumpPath, err)
		} else {
			logrus.Infof("[GRUPOS] Informacion guardada en: %s", d.GroupsDumpPath)
		}
	}

	return fmt.Sprintf("📋 *Lista de Grupos WhatsApp*\n\n✅ %d grupos encontrados\n\n📄 Detalle completo (nombres e IDs) guardado en:\n%s",
		len(grupos), d.GroupsDumpPath)
}

func (d *Dispatcher) groupIDReply(ctx context.Context, chatJID string) string {
	info, err := d.Groups.GroupInfo(ctx, chatJID)
	if err != nil {
		logrus.Errorf("[COMMAND] Error obteniendo info del grupo: %v", err)
		return "❌ No se pudo obtener la informacion del grupo."
	}
	nombre := info.Name
	if nombre == "" {
		nombre = "Sin nombre"
	}
	topic := info.Topic
	if topic == "" {
		topic = "Sin descripcion"
	}
	return fmt.Sprintf("Informacion del Grupo Actual\n\nNombre: %s\nID: %s\nParticipantes: %d\nDescripcion: %s\n\nUsa este ID para configurar el sistema operativo del parque",
		nombre, info.JID, info.Participants, topic)
}

func (d *Dispatcher) rosterReply() string {
	numeros := d.Roster.Numbers()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Personal Autorizado (%d)\n", len(numeros))
	for i, num := range numeros {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, num)
	}
	return sb.String()
}

func (d *Dispatcher) publishStory(ctx context.Context, msg *message.Inbound) string {
	if !d.Instagram.Enabled() {
		return "📷 Instagram no esta configurado en este servidor."
	}
	if msg.Kind != message.KindImage || !msg.HasMedia() {
		return "📷 Adjunta una imagen con el texto *publicar instagram* para subir la historia."
	}

	caption := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(msg.Text), "publicar instagram", ""))
	if err := d.Instagram.PublishImage(ctx, msg.Media.Data, caption); err != nil {
		logrus.Errorf("[INSTAGRAM] fallo la publicacion: %v", err)
		return "❌ No se pudo publicar la historia. Revisa /estado instagram."
	}
	return "✅ Historia publicada en Instagram."
}
