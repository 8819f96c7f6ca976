package report

import (
	"github.com/smallbiznis/advocase/internal/report/repository"
	"github.com/smallbiznis/advocase/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
