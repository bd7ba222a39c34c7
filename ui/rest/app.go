// Package rest expone la API de monitoreo del bot: salud de la sesion,
// estadisticas y eventos recientes. Las respuestas del bot viajan por
// WhatsApp; esta API es solo para operadores.
package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/playmallpark/winston/config"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/playmallpark/winston/ui/rest/middleware"
	"github.com/sirupsen/logrus"
)

// Deps agrupa lo que la API necesita del resto del bot.
type Deps struct {
	ServerID    string
	State       func() string
	LoggedIn    func() bool
	Monitor     *botmonitor.Monitor
	TypingChats func() []string
}

// NewApp arma la aplicacion fiber con sus middlewares y rutas.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Network:               "tcp",
		AppName:               "Winston PlayMall Park",
		DisableStartupMessage: true,
		ServerHeader:          "Hidden",
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	if config.AppDebug {
		app.Use(logger.New())
	}

	// QR pendiente y medios de historias se sirven desde statics.
	app.Static("/statics", "./statics")

	api := app.Group("/api")

	if len(config.AppBasicAuthCredential) > 0 {
		account := make(map[string]string)
		for _, cred := range config.AppBasicAuthCredential {
			parts := strings.SplitN(cred, ":", 2)
			if len(parts) != 2 {
				logrus.Fatalln("Credencial basic auth invalida, formato esperado <user>:<secret>")
			}
			account[parts[0]] = parts[1]
		}
		api.Use(basicauth.New(basicauth.Config{Users: account}))
	}

	InitRestHealth(api, deps)
	InitRestMonitoring(api, deps.Monitor, deps.TypingChats)

	api.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	return app
}
