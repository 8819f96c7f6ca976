package contacttype

import (
	"github.com/smallbiznis/advocase/internal/contacttype/repository"
	"github.com/smallbiznis/advocase/internal/contacttype/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contacttype.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
