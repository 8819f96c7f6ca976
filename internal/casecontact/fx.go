package casecontact

import (
	"github.com/smallbiznis/advocase/internal/casecontact/repository"
	"github.com/smallbiznis/advocase/internal/casecontact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("casecontact.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
