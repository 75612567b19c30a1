package di

import (
	"context"
	"fmt"
	"time"

	"hirenest/application/commands/bus"
	commandhandlers "hirenest/application/commands/handlers"
	"hirenest/application/ports"
	querybus "hirenest/application/queries/bus"
	queryhandlers "hirenest/application/queries/handlers"
	"hirenest/application/services"
	domainconfig "hirenest/domain/config"
	"hirenest/infrastructure/ai"
	"hirenest/infrastructure/cache"
	"hirenest/infrastructure/config"
	"hirenest/infrastructure/document"
	"hirenest/infrastructure/email"
	"hirenest/infrastructure/messaging/eventbridge"
	"hirenest/infrastructure/messaging/local"
	"hirenest/infrastructure/persistence/dynamodb"
	"hirenest/infrastructure/persistence/memory"
	"hirenest/infrastructure/storage"
	"hirenest/interfaces/http/rest"
	"hirenest/interfaces/http/rest/handlers"
	"hirenest/pkg/auth"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const serviceName = "hirenest"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("service", serviceName), zap.String("environment", cfg.Environment))
	if cfg.IsLambda {
		logger = logger.With(zap.String("function", cfg.LambdaFunctionName))
	}

	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideAWSConfig creates AWS configuration. With X-Ray enabled every
// client built from it records subsegments.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableXRay {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideTracing installs the OTLP exporter when tracing is enabled. The
// returned provider is nil otherwise.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing || cfg.OTLPEndpoint == "" {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTracer creates the tracer used by services and buses
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer(serviceName)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the CloudWatch command metrics. Without
// ENABLE_METRICS the metrics are a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("HireNest/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideDomainConfig returns the business rules
func ProvideDomainConfig() *domainconfig.DomainConfig {
	return domainconfig.DefaultDomainConfig()
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideTable describes the application table
func ProvideTable(cfg *config.Config) dynamodb.Table {
	return dynamodb.Table{Name: cfg.DynamoDBTable, GSI1Index: cfg.IndexName}
}

// Repositories groups the persistence ports of one storage backend
type Repositories struct {
	Users         ports.UserRepository
	Connections   ports.ConnectionRepository
	Posts         ports.PostRepository
	Notifications ports.NotificationRepository
}

// ProvideRepositories selects the storage backend
func ProvideRepositories(client *awsdynamodb.Client, table dynamodb.Table, cfg *config.Config, logger *zap.Logger) (*Repositories, error) {
	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &Repositories{
			Users:         store.Users(),
			Connections:   store.Connections(),
			Posts:         store.Posts(),
			Notifications: store.Notifications(),
		}, nil
	case "dynamodb":
		return &Repositories{
			Users:         dynamodb.NewUserRepository(client, table, logger),
			Connections:   dynamodb.NewConnectionRepository(client, table, logger),
			Posts:         dynamodb.NewPostRepository(client, table, logger),
			Notifications: dynamodb.NewNotificationRepository(client, table, logger),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideBlobStore selects the blob backend
func ProvideBlobStore(ctx context.Context, awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) (ports.BlobStore, func(), error) {
	switch cfg.BlobBackend {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close GCS client", zap.Error(err))
			}
		}
		return storage.NewGCSStore(client, cfg.BlobBucket, cfg.BlobPublicURL, logger), cleanup, nil
	case "s3":
		client := awss3.NewFromConfig(awsCfg)
		return storage.NewS3Store(client, cfg.BlobBucket, cfg.BlobPublicURL, logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// ProvideMailer sends through SES when email is enabled and only logs
// otherwise.
func ProvideMailer(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.Mailer {
	if !cfg.EmailEnabled {
		return email.NewLogMailer(logger)
	}
	return email.NewSESMailer(awssesv2.NewFromConfig(awsCfg), cfg.SenderEmail, cfg.SenderName)
}

// ProvideEmailDispatcher starts the background email workers. Cleanup
// drains the queue.
func ProvideEmailDispatcher(mailer ports.Mailer, cfg *config.Config, collector *observability.Collector, logger *zap.Logger) (*email.Dispatcher, func()) {
	dispatcher := email.NewDispatcher(mailer, email.DispatcherConfig{
		Workers:     cfg.EmailWorkers,
		QueueSize:   cfg.EmailQueueSize,
		SendTimeout: cfg.EmailSendTimeout,
	}, logger, collector)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(ctx); err != nil {
			logger.Warn("Email queue not drained", zap.Error(err))
		}
	}
	return dispatcher, cleanup
}

// ProvideRedisClient connects to Redis when an address is configured and
// returns nil otherwise.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideCache returns the profile cache, counting hits and misses
func ProvideCache(client *redis.Client, collector *observability.Collector, logger *zap.Logger) (ports.Cache, func()) {
	if client != nil {
		inner := cache.NewRedisCache(client, serviceName+":", logger)
		return cache.NewInstrumented(inner, collector.CacheHits, collector.CacheMisses), func() {}
	}

	inner := cache.NewMemoryCache()
	cleanup := func() { _ = inner.Close() }
	return cache.NewInstrumented(inner, collector.CacheHits, collector.CacheMisses), cleanup
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideEventBus publishes to EventBridge when events are enabled and to
// the in-process bus otherwise.
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.EnableEvents {
		return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)
	}
	return local.NewEventBus(logger)
}

// ProvideTextTransformer uses OpenAI when a key is configured. Outside
// production a missing key falls back to an echo transformer.
func ProvideTextTransformer(cfg *config.Config, logger *zap.Logger) (ports.TextTransformer, error) {
	if cfg.OpenAIAPIKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		logger.Warn("OPENAI_API_KEY not set; resume tailoring echoes its input")
		return ai.EchoTransformer{}, nil
	}

	client, err := ai.NewOpenAIClient(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.AITimeout,
	})
	if err != nil {
		return nil, err
	}
	return ai.NewOpenAITransformer(client, cfg.OpenAIModel, cfg.AITimeout, logger), nil
}

// ProvideDocumentExtractor returns the PDF text extractor
func ProvideDocumentExtractor() ports.DocumentExtractor {
	return document.NewPDFExtractor()
}

// ProvideDocumentRenderer returns the PDF renderer
func ProvideDocumentRenderer() ports.DocumentRenderer {
	return document.NewPDFRenderer()
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		SecretKey:  cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   []string{serviceName + "-web"},
		ExpiryTime: cfg.JWTExpiry,
	}
}

// ProvideJWTGenerator creates the session token issuer
func ProvideJWTGenerator(cfg *config.Config) (*auth.JWTGenerator, error) {
	return auth.NewJWTGenerator(jwtConfig(cfg))
}

// ProvideJWTValidator creates the session token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(jwtConfig(cfg))
}

// ProvideAuthLimiter limits signup and login attempts per client IP. The
// DynamoDB limiter shares counts across instances.
func ProvideAuthLimiter(client *awsdynamodb.Client, cfg *config.Config) auth.RateLimiter {
	if cfg.DistributedRateLimit && cfg.StorageBackend == "dynamodb" {
		return auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, cfg.AuthRateLimit, cfg.AuthRateWindow, "AUTH")
	}
	return auth.NewSlidingWindowLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
}

// ProvideAuthService creates the account service
func ProvideAuthService(
	repos *Repositories,
	generator *auth.JWTGenerator,
	validator *auth.JWTValidator,
	emails ports.EmailQueue,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *services.AuthService {
	return services.NewAuthService(repos.Users, generator, validator, emails, eventBus, domainCfg, cfg.ClientURL, logger)
}

// ProvideUserService creates the profile service
func ProvideUserService(
	repos *Repositories,
	blobs ports.BlobStore,
	profileCache ports.Cache,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.UserService {
	return services.NewUserService(repos.Users, blobs, profileCache, cfg.CacheTTL, eventBus, domainCfg, tracer, logger)
}

// ProvideNotificationService creates the notification sink
func ProvideNotificationService(repos *Repositories, logger *zap.Logger) *services.NotificationService {
	return services.NewNotificationService(repos.Notifications, repos.Users, repos.Posts, logger)
}

// ProvidePostService creates the feed and post service
func ProvidePostService(
	repos *Repositories,
	notifications *services.NotificationService,
	blobs ports.BlobStore,
	emails ports.EmailQueue,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.PostService {
	return services.NewPostService(repos.Posts, repos.Users, notifications, blobs, emails, eventBus,
		domainCfg, cfg.ClientURL, collector, tracer, logger)
}

// ProvideResumeService creates the resume tailoring pipeline
func ProvideResumeService(
	blobs ports.BlobStore,
	extractor ports.DocumentExtractor,
	transformer ports.TextTransformer,
	renderer ports.DocumentRenderer,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.ResumeService {
	return services.NewResumeService(blobs, extractor, transformer, renderer, eventBus, domainCfg, collector, tracer, logger)
}

// ProvideCommandBus creates a command bus with the connection lifecycle
// handlers registered.
func ProvideCommandBus(
	repos *Repositories,
	eventBus ports.EventBus,
	emails ports.EmailQueue,
	profileCache ports.Cache,
	cfg *config.Config,
	collector *observability.Collector,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.TracingMiddleware(tracer),
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)

	err := commandhandlers.RegisterConnectionHandlers(commandBus,
		commandhandlers.NewSendConnectionRequestHandler(repos.Users, repos.Connections, eventBus, collector, logger),
		commandhandlers.NewAcceptConnectionRequestHandler(repos.Users, repos.Connections, eventBus, emails, profileCache, cfg.ClientURL, collector, logger),
		commandhandlers.NewRejectConnectionRequestHandler(repos.Connections, eventBus, logger),
		commandhandlers.NewRemoveConnectionHandler(repos.Users, repos.Connections, eventBus, profileCache, logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with the connection queries registered
func ProvideQueryBus(repos *Repositories, tracer *observability.Tracer, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.TracingMiddleware(tracer),
		querybus.LoggingMiddleware(logger),
	)

	err := queryhandlers.RegisterConnectionHandlers(queryBus,
		queryhandlers.NewListIncomingRequestsHandler(repos.Users, repos.Connections, logger),
		queryhandlers.NewListConnectionsHandler(repos.Users),
		queryhandlers.NewGetConnectionStatusHandler(repos.Users, repos.Connections),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideErrorHandler creates the shared HTTP error handler. Stack traces
// are only exposed outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, !cfg.IsProduction())
}

// ProvideAuthHandler creates the auth handler
func ProvideAuthHandler(svc *services.AuthService, errs *pkgerrors.ErrorHandler, cfg *config.Config, logger *zap.Logger) *handlers.AuthHandler {
	return handlers.NewAuthHandler(svc, errs, cfg.IsProduction(), logger)
}

// ProvideReadiness collects the dependency checks served on /ready
func ProvideReadiness(cfg *config.Config, client *awsdynamodb.Client, table dynamodb.Table, redisClient *redis.Client) rest.ReadinessChecks {
	checks := rest.ReadinessChecks{}
	if cfg.StorageBackend == "dynamodb" {
		checks["dynamodb"] = func(ctx context.Context) error {
			return dynamodb.Ping(ctx, client, table)
		}
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// ProvideRouterOptions maps configuration onto the router
func ProvideRouterOptions(cfg *config.Config, limiter auth.RateLimiter, readiness rest.ReadinessChecks) rest.Options {
	return rest.Options{
		ClientURL:   cfg.ClientURL,
		EnableCORS:  cfg.EnableCORS,
		AuthLimiter: limiter,
		AuthLimit:   cfg.AuthRateLimit,
		AuthWindow:  cfg.AuthRateWindow,
		Readiness:   readiness,
	}
}

// ProvideHTTPHandler builds the chi router
func ProvideHTTPHandler(router *rest.Router) *chi.Mux {
	return router.Setup()
}
