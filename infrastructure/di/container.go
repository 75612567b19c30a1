package di

import (
	"hirenest/application/commands/bus"
	querybus "hirenest/application/queries/bus"
	"hirenest/application/services"
	"hirenest/infrastructure/config"
	"hirenest/infrastructure/email"
	"hirenest/pkg/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Router         *chi.Mux
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	Auth           *services.AuthService
	Posts          *services.PostService
	Resumes        *services.ResumeService
	EmailQueue     *email.Dispatcher
	Collector      *observability.Collector
	TracerProvider *observability.TracerProvider
}
