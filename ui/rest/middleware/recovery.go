package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	pkgError "github.com/playmallpark/winston/pkg/error"
	"github.com/playmallpark/winston/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Recovery atrapa panics de los handlers y los traduce al sobre JSON
// estandar. Los panics tipados (pkg/error.GenericError) conservan su
// status y codigo; cualquier otro valor se reporta como error 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			res := utils.ResponseData{
				Status:  fiber.StatusInternalServerError,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", recovered),
			}
			if typed, ok := recovered.(pkgError.GenericError); ok {
				res.Status = typed.StatusCode()
				res.Code = typed.ErrCode()
				res.Message = typed.Error()
			}

			logrus.Errorf("[REST] panic en %s %s: %v", ctx.Method(), ctx.Path(), recovered)
			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
