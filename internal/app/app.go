package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/orderdesk/internal/cache"
	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/logger"
	"github.com/Additional-Code/orderdesk/internal/messaging"
	"github.com/Additional-Code/orderdesk/internal/migration"
	"github.com/Additional-Code/orderdesk/internal/observability"
	repositoryworkorder "github.com/Additional-Code/orderdesk/internal/repository/workorder"
	"github.com/Additional-Code/orderdesk/internal/seeder"
	grpcserver "github.com/Additional-Code/orderdesk/internal/server/grpc"
	httpserver "github.com/Additional-Code/orderdesk/internal/server/http"
	serviceworkorder "github.com/Additional-Code/orderdesk/internal/service/workorder"
	transporthttp "github.com/Additional-Code/orderdesk/internal/transport/http"
	"github.com/Additional-Code/orderdesk/internal/worker"
	workerworkorder "github.com/Additional-Code/orderdesk/internal/worker/workorder"
)

// Store provides configuration, logging and the work order store. It backs
// one-shot tooling commands that do not need cache or messaging.
var Store = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	repositoryworkorder.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Store,
	cache.Module,
	messaging.Module,
	serviceworkorder.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerworkorder.Module,
)

// Tooling wires migrations and seeding.
var Tooling = fx.Options(
	Store,
	migration.Module,
	seeder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
