package project

import (
	"github.com/operisapp/billing/internal/project/repository"
	"github.com/operisapp/billing/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
