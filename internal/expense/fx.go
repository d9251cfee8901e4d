package expense

import (
	"github.com/dentaops/denta/internal/expense/repository"
	"github.com/dentaops/denta/internal/expense/service"
	"go.uber.org/fx"
)

var Module = fx.Module("expense.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
