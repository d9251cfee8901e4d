package treatment

import (
	"github.com/dentaops/denta/internal/treatment/repository"
	"github.com/dentaops/denta/internal/treatment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("treatment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
