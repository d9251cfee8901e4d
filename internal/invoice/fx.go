package invoice

import (
	"github.com/dentaops/denta/internal/invoice/repository"
	"github.com/dentaops/denta/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
