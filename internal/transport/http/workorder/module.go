package workorder

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	service "github.com/Additional-Code/orderdesk/internal/service/workorder"
)

// Module wires HTTP work order handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service) *Handler {
		return NewHandler(svc)
	}),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
