package audit

import (
	"github.com/dentaops/denta/internal/audit/repository"
	"github.com/dentaops/denta/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
