package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/playmallpark/winston/pkg/botmonitor"
	pkgError "github.com/playmallpark/winston/pkg/error"
)

type MonitoringHandler struct {
	monitor     *botmonitor.Monitor
	typingChats func() []string
}

// InitRestMonitoring registra los endpoints de estadisticas, el feed
// de eventos recientes y los chats con indicador de escritura activo.
func InitRestMonitoring(app fiber.Router, monitor *botmonitor.Monitor, typingChats func() []string) {
	h := &MonitoringHandler{monitor: monitor, typingChats: typingChats}

	g := app.Group("/monitoring")
	g.Get("/stats", h.GetStats)
	g.Get("/events", h.GetRecentEvents)
	g.Get("/events/:trace", h.GetEventByTrace)
	g.Get("/typing", h.GetTypingStatus)
}

func (h *MonitoringHandler) GetTypingStatus(c *fiber.Ctx) error {
	if h.typingChats == nil {
		return c.JSON([]string{})
	}
	return c.JSON(h.typingChats())
}

func (h *MonitoringHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.monitor.Snapshot())
}

func (h *MonitoringHandler) GetRecentEvents(c *fiber.Ctx) error {
	return c.JSON(h.monitor.RecentEvents())
}

func (h *MonitoringHandler) GetEventByTrace(c *fiber.Ctx) error {
	trace := c.Params("trace")
	evt, ok := h.monitor.EventByTrace(trace)
	if !ok {
		panic(pkgError.NotFoundError(fmt.Sprintf("evento con trace %s no encontrado", trace)))
	}
	return c.JSON(evt)
}
