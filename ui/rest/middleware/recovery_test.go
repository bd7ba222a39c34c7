package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	pkgError "github.com/playmallpark/winston/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPanicApp(panicValue any) *fiber.App {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic(panicValue)
	})
	return app
}

func TestRecoveryTraducePanicTipado(t *testing.T) {
	app := newPanicApp(pkgError.NotFoundError("recurso perdido"))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "NOT_FOUND_ERROR", payload.Code)
	assert.Equal(t, "recurso perdido", payload.Message)
}

func TestRecoveryPanicGenericoEs500(t *testing.T) {
	app := newPanicApp("algo salio mal")

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", payload.Code)
	assert.Equal(t, "algo salio mal", payload.Message)
}
