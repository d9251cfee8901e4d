package paymentplan

import (
	"github.com/dentaops/denta/internal/paymentplan/repository"
	"github.com/dentaops/denta/internal/paymentplan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentplan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
