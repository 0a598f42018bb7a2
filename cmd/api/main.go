package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/orderdesk/internal/app"
)

// main runs the HTTP and gRPC servers without the CLI wrapper, for container entrypoints.
func main() {
	fx.New(app.Module).Run()
}
