package bootstrap

import (
	"context"
	"time"

	"hr-assistant-be/internal/config"
	"hr-assistant-be/internal/controller"
	"hr-assistant-be/internal/handler"
	"hr-assistant-be/internal/model"
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/internal/repository/contract"
	"hr-assistant-be/internal/repository/implementation"
	"hr-assistant-be/internal/repository/memory"
	"hr-assistant-be/internal/service"
	"hr-assistant-be/internal/websocket"
	"hr-assistant-be/pkg/ai/activity"
	"hr-assistant-be/pkg/ai/bulk"
	"hr-assistant-be/pkg/ai/cancel"
	"hr-assistant-be/pkg/ai/confirm"
	"hr-assistant-be/pkg/ai/executor"
	"hr-assistant-be/pkg/ai/router"
	"hr-assistant-be/pkg/ai/tools"
	"hr-assistant-be/pkg/database"
	"hr-assistant-be/pkg/events"
	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/llm/factory"
	pktNats "hr-assistant-be/pkg/nats"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const moduleName = "BOOTSTRAP"

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	UploadController controller.IUploadController
	ActivityHandler  *handler.ActivityHandler

	// Background services, started by main
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub
	Sessions        *memory.SessionStore

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the application. Postgres, NATS and Redis are optional:
// each one is skipped with a warning when unset or unreachable.
func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(logger.Options{
		FilePath:   cfg.App.LogFilePath,
		Production: cfg.IsProduction(),
		Level:      cfg.App.LogLevel,
		Console:    cfg.App.LogConsole,
	})
	c := &Container{Logger: sysLogger}

	// 1. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	sinks := []events.Publisher{events.NewChannelPublisher(pubSub, activity.Topic)}
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(moduleName, "NATS publisher unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			sinks = append(sinks, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(moduleName, "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}
	activityEvents := activity.NewPublisher(sysLogger, sinks...)

	// 2. Activity audit
	var activityRepo contract.ActivityEventRepository = memory.NewActivityStore(cfg.Session.IdleTTL, 200)
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
		if err == nil {
			err = database.Migrate(db, &model.ActivityEvent{})
		}
		if err != nil {
			sysLogger.Warn(moduleName, "Activity table unavailable, keeping activity in memory", map[string]interface{}{"error": err.Error()})
		} else {
			activityRepo = implementation.NewActivityEventRepository(db)
		}
	}

	// 3. WebSocket hub, fanned out through Redis when configured
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		rdb = newRedisClient(cfg.App.RedisURL, sysLogger)
		if rdb != nil {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, activity.Topic, natsSub, activityRepo, c.WebSocketHub, sysLogger)

	// 4. Orchestration core
	limits := store.Limits{
		History:    cfg.Session.HistoryCap,
		Patterns:   cfg.Session.PatternCap,
		FailedRows: cfg.Session.FailedRowCap,
		Uploads:    cfg.Session.UploadCap,
	}
	c.Sessions = memory.NewSessionStore(limits, cfg.Session.IdleTTL, sysLogger)
	cancels := cancel.NewController()
	records := recordclient.New(cfg.RecordService.BaseURL, cfg.RecordService.Timeout, cfg.RecordService.TokenScheme)

	processor := bulk.NewProcessor(records, cancels, activityEvents, bulk.Config{
		RatePerSecond: cfg.Bulk.RatePerSecond,
		Burst:         cfg.Bulk.Burst,
	}, sysLogger)
	machine := confirm.NewMachine(c.Sessions, records, processor, activityEvents, confirm.Config{
		BulkThreshold: cfg.Session.BulkThreshold,
		PreviewSize:   cfg.Bulk.PreviewSize,
	}, sysLogger)
	exec := executor.NewExecutor(records, machine, c.Sessions, executor.Config{}, sysLogger)
	toolRegistry := tools.NewRegistry(records, machine, sysLogger)

	toolModels := cfg.AI.ToolCallingModels
	if len(toolModels) == 0 {
		toolModels = llm.DefaultToolCallingModels()
	}
	caps := llm.NewCapabilities(toolModels)
	providers := factory.NewRegistry(factory.Credentials{
		OpenRouterKey:   cfg.AI.OpenRouterKey,
		OpenRouterURL:   cfg.AI.OpenRouterURL,
		AzureKey:        cfg.AI.AzureKey,
		AzureEndpoint:   cfg.AI.AzureEndpoint,
		AzureAPIVersion: cfg.AI.AzureAPIVersion,
		AnthropicKey:    cfg.AI.AnthropicKey,
		AnthropicURL:    cfg.AI.AnthropicURL,
		HuggingFaceKey:  cfg.AI.HuggingFaceKey,
		HuggingFaceURL:  cfg.AI.HuggingFaceURL,
		OllamaURL:       cfg.AI.OllamaURL,
	})
	adapter := llm.NewAdapter(providers, cancels, llm.AdapterConfig{
		DefaultModel:      cfg.AI.DefaultModel,
		FallbackModel:     cfg.AI.FallbackModel,
		Timeout:           cfg.AI.Timeout,
		MaxToolIterations: cfg.AI.MaxToolIterations,
		Temperature:       cfg.AI.Temperature,
		Messages:          llm.DefaultMessages(),
	}, sysLogger)

	// 5. Services
	chatService := service.NewChatService(
		c.Sessions,
		router.NewRouter(sysLogger),
		machine,
		exec,
		adapter,
		toolRegistry,
		caps,
		cancels,
		activityRepo,
		service.ChatConfig{
			DefaultModel:  cfg.AI.DefaultModel,
			FallbackModel: cfg.AI.FallbackModel,
			ExtraModels:   cfg.AI.ExtraModels,
			HistoryWindow: cfg.AI.HistoryWindow,
		},
		sysLogger,
	)
	uploadService := service.NewUploadService(c.Sessions, service.UploadConfig{
		MaxRows:     cfg.Upload.MaxRows,
		PreviewSize: cfg.Bulk.PreviewSize,
	}, sysLogger)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService)
	c.UploadController = controller.NewUploadController(uploadService, cfg.Upload.MaxBytes)
	c.ActivityHandler = handler.NewActivityHandler(chatService, c.WebSocketHub, sysLogger)

	return c
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn(moduleName, "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(moduleName, "Redis unreachable, websocket fan-out stays local", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases broker and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
