package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"curriculum-rag-be/internal/config"
	"curriculum-rag-be/internal/controller"
	"curriculum-rag-be/internal/pkg/logger"
	"curriculum-rag-be/internal/pkg/mailer"
	"curriculum-rag-be/internal/repository/implementation"
	"curriculum-rag-be/internal/service"
	"curriculum-rag-be/pkg/embedding"
	"curriculum-rag-be/pkg/events"
	"curriculum-rag-be/pkg/extract"
	"curriculum-rag-be/pkg/llm/factory"
	"curriculum-rag-be/pkg/lock"
	"curriculum-rag-be/pkg/objectstore"

	pktNats "curriculum-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Services
	Store            service.ICurriculumStore
	IngestionService service.IIngestionService
	QueryService     service.IQueryService

	// Controllers
	IngestController controller.IIngestController
	QueryController  controller.IQueryController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

type options struct {
	quietConsole bool
}

type Option func(*options)

// WithQuietConsole keeps application logs out of stdout.
func WithQuietConsole() Option {
	return func(o *options) { o.quietConsole = true }
}

// NewContainer wires every dependency once from cfg. Optional
// infrastructure (Redis, NATS, SMTP) is skipped with a warning when it is
// not configured or unreachable.
func NewContainer(db *gorm.DB, cfg *config.Config, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	c := &Container{}

	// 1. Core Facades
	var sysLogger *logger.ZapLogger
	if o.quietConsole {
		sysLogger = logger.NewIsolatedLogger(cfg.App.LogFilePath)
	} else {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	}
	ingestLogger := logger.NewIsolatedLogger(cfg.App.IngestLogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync(); _ = ingestLogger.Sync() })

	objects, err := newObjectStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	// 2. AI Providers
	baseEmbedder, err := embedding.NewProvider(embedding.ProviderOptions{
		Provider:  cfg.Ai.EmbeddingProvider,
		Model:     cfg.Ai.EmbeddingModel,
		BaseURL:   cfg.Ai.EmbeddingBaseURL,
		OpenAIKey: cfg.Ai.OpenAIKey,
		GeminiKey: cfg.Ai.GeminiKey,
		OllamaURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, baseEmbedder.ModelName())

	llmProvider, err := factory.NewLLMProvider(factory.ProviderOptions{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		BaseURL:        cfg.Ai.LLMBaseURL,
		OpenAIKey:      cfg.Ai.OpenAIKey,
		HuggingFaceKey: cfg.Ai.HuggingFaceKey,
		OllamaBaseURL:  cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	ingestEmbedder := embedding.NewLimitedProvider(baseEmbedder, cfg.Ingest.EmbedRatePerSecond, 1)
	var queryEmbedder embedding.EmbeddingProvider = baseEmbedder
	if cfg.Rag.QueryCacheTTL > 0 {
		queryEmbedder = embedding.NewCachedProvider(baseEmbedder, cfg.Rag.QueryCacheTTL)
	}

	// 3. Infrastructure
	locker := newLocker(cfg.App.RedisURL, c)

	var publisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" && cfg.Ingest.ReportEmail != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
	}

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 4. Repositories & Services
	chunkRepo := implementation.NewCurriculumChunkRepository(db)
	runRepo := implementation.NewIngestionRunRepository(db)

	c.Store = service.NewCurriculumStore(objects, chunkRepo, baseEmbedder.ModelName())

	c.IngestionService = service.NewIngestionService(service.IngestionServiceParams{
		Store:     c.Store,
		Extractor: extract.NewExtractor(),
		Embedder:  ingestEmbedder,
		Locker:    locker,
		Logger:    ingestLogger,
		Runs:      runRepo,
		Publisher: publisher,
		Mailer:    emailService,
		Options: service.IngestionOptions{
			ChunkSize:   cfg.Rag.ChunkSize,
			Workers:     cfg.Ingest.Workers,
			LockTTL:     cfg.Ingest.LockTTL,
			ReportEmail: cfg.Ingest.ReportEmail,
			Precheck:    cfg.ValidateIngest,
		},
	})

	c.QueryService = service.NewQueryService(c.Store, queryEmbedder, llmProvider, sysLogger, service.QueryOptions{
		SimilarityThreshold: cfg.Rag.SimilarityThreshold,
		MatchCount:          cfg.Rag.MatchCount,
		MinQuestionLength:   cfg.Rag.MinQuestionLength,
		MaxQuestionLength:   cfg.Rag.MaxQuestionLength,
		EmbedTimeout:        cfg.Rag.EmbedTimeout,
		StreamTimeout:       cfg.Rag.StreamTimeout,
		Temperature:         cfg.Ai.Temperature,
		MaxTokens:           cfg.Ai.MaxTokens,
	})

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Ingest.AsyncTopic, c.IngestionService, ingestLogger)
	trigger := service.NewIngestTrigger(pubSub, cfg.Ingest.AsyncTopic)

	// 5. Controllers
	c.IngestController = controller.NewIngestController(c.IngestionService, trigger, cfg.Ingest.SharedSecret)
	c.QueryController = controller.NewQueryController(c.QueryService, cfg.Auth.JWTSecret)
	c.HealthController = controller.NewHealthController(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newObjectStore(cfg config.StorageConfig) (objectstore.Store, error) {
	switch cfg.Provider {
	case "supabase":
		return objectstore.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Bucket, cfg.DownloadTimeout), nil
	case "afs":
		return objectstore.NewAfsStore(cfg.AfsLocation), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// newLocker prefers Redis so replicas share document locks, and falls back
// to an in-process lock.
func newLocker(redisURL string, c *Container) lock.Locker {
	if redisURL == "" {
		return lock.NewMemoryLocker()
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: redisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Using in-process document locks", err)
		_ = rdb.Close()
		return lock.NewMemoryLocker()
	}

	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return lock.NewRedisLocker(rdb, "curriculum:lock:")
}
