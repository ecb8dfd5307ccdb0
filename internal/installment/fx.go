package installment

import (
	"github.com/operisapp/billing/internal/installment/repository"
	"github.com/operisapp/billing/internal/installment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("installment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
