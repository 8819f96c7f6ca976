package main

import (
	"github.com/smallbiznis/advocase/internal/clock"
	"github.com/smallbiznis/advocase/internal/config"
	"github.com/smallbiznis/advocase/internal/migration"
	"github.com/smallbiznis/advocase/internal/observability"
	"github.com/smallbiznis/advocase/internal/server"
	"github.com/smallbiznis/advocase/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}
