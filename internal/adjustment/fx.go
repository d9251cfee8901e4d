package adjustment

import (
	"github.com/dentaops/denta/internal/adjustment/repository"
	"github.com/dentaops/denta/internal/adjustment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjustment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
