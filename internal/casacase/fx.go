package casacase

import (
	"github.com/smallbiznis/advocase/internal/casacase/repository"
	"github.com/smallbiznis/advocase/internal/casacase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("casacase.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewAllowAllGuard),
	fx.Provide(service.NewService),
)
