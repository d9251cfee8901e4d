package payment

import (
	"github.com/dentaops/denta/internal/payment/repository"
	"github.com/dentaops/denta/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
