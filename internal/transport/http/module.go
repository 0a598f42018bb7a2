package http

import (
	"go.uber.org/fx"

	workordertransport "github.com/Additional-Code/orderdesk/internal/transport/http/workorder"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	workordertransport.Module,
)
