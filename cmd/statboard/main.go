package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/internal/clock"
	"github.com/statboard/statboard/internal/logger"
	"github.com/statboard/statboard/internal/migration"
	"github.com/statboard/statboard/internal/observability"
	"github.com/statboard/statboard/internal/server"
	"github.com/statboard/statboard/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		logger.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
