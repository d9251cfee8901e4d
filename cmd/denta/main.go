package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/clock"
	"github.com/dentaops/denta/internal/config"
	"github.com/dentaops/denta/internal/migration"
	"github.com/dentaops/denta/internal/observability"
	"github.com/dentaops/denta/internal/server"
	"github.com/dentaops/denta/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
