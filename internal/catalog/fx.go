package catalog

import (
	"github.com/operisapp/billing/internal/catalog/repository"
	"github.com/operisapp/billing/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
