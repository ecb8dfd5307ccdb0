package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/operisapp/billing/internal/audit"
	"github.com/operisapp/billing/internal/catalog"
	"github.com/operisapp/billing/internal/clock"
	"github.com/operisapp/billing/internal/config"
	"github.com/operisapp/billing/internal/installment"
	"github.com/operisapp/billing/internal/logger"
	"github.com/operisapp/billing/internal/migration"
	"github.com/operisapp/billing/internal/notifier"
	"github.com/operisapp/billing/internal/observability"
	"github.com/operisapp/billing/internal/plan"
	"github.com/operisapp/billing/internal/project"
	"github.com/operisapp/billing/internal/scheduler"
	"github.com/operisapp/billing/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		observability.Module,
		migration.Module,

		// Functional domains
		audit.Module,
		plan.Module,
		catalog.Module,
		installment.Module,
		project.Module,
		notifier.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}
	return node
}
