//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"hirenest/application/commands/bus"
	"hirenest/application/ports"
	querybus "hirenest/application/queries/bus"
	"hirenest/application/services"
	"hirenest/infrastructure/config"
	"hirenest/infrastructure/email"
	"hirenest/interfaces/http/rest"
	"hirenest/interfaces/http/rest/handlers"
	"hirenest/interfaces/http/rest/middleware"

	"github.com/google/wire"
)

// InfrastructureSet provides logging, AWS clients, storage and messaging
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideTracing,
	ProvideTracer,
	ProvideCollector,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideDomainConfig,
	ProvideDynamoDBClient,
	ProvideTable,
	ProvideRepositories,
	ProvideBlobStore,
	ProvideMailer,
	ProvideEmailDispatcher,
	wire.Bind(new(ports.EmailQueue), new(*email.Dispatcher)),
	ProvideRedisClient,
	ProvideCache,
	ProvideEventBridgeClient,
	ProvideEventBus,
	ProvideTextTransformer,
	ProvideDocumentExtractor,
	ProvideDocumentRenderer,
	ProvideJWTGenerator,
	ProvideJWTValidator,
	ProvideAuthLimiter,
)

// ApplicationSet provides services and the command and query buses
var ApplicationSet = wire.NewSet(
	ProvideAuthService,
	ProvideUserService,
	ProvideNotificationService,
	ProvidePostService,
	ProvideResumeService,
	ProvideCommandBus,
	ProvideQueryBus,
)

// HTTPSet provides handlers and the router
var HTTPSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideAuthHandler,
	handlers.NewUserHandler,
	handlers.NewPostHandler,
	handlers.NewConnectionHandler,
	handlers.NewNotificationHandler,
	handlers.NewResumeHandler,
	ProvideReadiness,
	ProvideRouterOptions,
	rest.NewRouter,
	ProvideHTTPHandler,
)

// SuperSet is the main provider set containing all providers. The handler
// interfaces are bound here, where their concrete providers are in scope.
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	HTTPSet,
	wire.Bind(new(handlers.AccountService), new(*services.AuthService)),
	wire.Bind(new(handlers.ProfileService), new(*services.UserService)),
	wire.Bind(new(handlers.FeedService), new(*services.PostService)),
	wire.Bind(new(handlers.NotificationLister), new(*services.NotificationService)),
	wire.Bind(new(handlers.ResumeTailor), new(*services.ResumeService)),
	wire.Bind(new(handlers.CommandSender), new(*bus.CommandBus)),
	wire.Bind(new(handlers.QueryAsker), new(*querybus.QueryBus)),
	wire.Bind(new(middleware.Authenticator), new(*services.AuthService)),
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
