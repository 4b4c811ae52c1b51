package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listam-parser-service/internal/adapters/filestorage"
	"listam-parser-service/internal/adapters/httpclient"
	"listam-parser-service/internal/adapters/listamfetcher"
	logger_adapter "listam-parser-service/internal/adapters/logger"
	postgres_adapter "listam-parser-service/internal/adapters/postgres"
	rabbitmq_adapter "listam-parser-service/internal/adapters/rabbitmq"
	"listam-parser-service/internal/adapters/removalprober"
	"listam-parser-service/internal/adapters/rest"
	"listam-parser-service/internal/configs"
	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"
	"listam-parser-service/internal/core/port/usecases"
	"listam-parser-service/internal/core/usecase"
	fluentlogger "listam-parser-service/pkg/fluent_logger"
	"listam-parser-service/pkg/postgres"
	"listam-parser-service/pkg/rabbitmq/rabbitmq_common"
	"listam-parser-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Режимы запуска бинарника
const (
	ModeScraper = "scraper"
	ModeChecker = "checker"
)

var ErrUnknownMode = errors.New("unknown mode")

// ParseMode выбирает режим по первому позиционному аргументу
func ParseMode(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: mode is required", ErrUnknownMode)
	}
	switch args[0] {
	case ModeScraper, ModeChecker:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, args[0])
	}
}

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	mode          string
	dbPool        *pgxpool.Pool
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	baseLogger    port.LoggerPort
	logger        port.LoggerPort
	statusServer  *rest.Server

	scrapeUC usecases.ScrapePagesPort
	checkUC  usecases.CheckRemovedPort
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp(mode string) (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
		"mode":         mode,
	})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	application := &App{
		config:       appConfig,
		mode:         mode,
		fluentClient: fluentClient,
		baseLogger:   baseLogger,
		logger:       appLogger,
	}
	if err := application.wire(); err != nil {
		application.close()
		return nil, err
	}
	return application, nil
}

// wire создает адаптеры и use case выбранного режима
func (a *App) wire() error {
	cfg := a.config
	ctx := contextkeys.ContextWithLogger(context.Background(), a.baseLogger)

	// --- 2. POSTGRES ---
	dbPool, err := postgres.NewClient(ctx, postgres.Config{
		DatabaseURL: cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
	})
	if err != nil {
		a.logger.Error("Failed to connect to PostgreSQL", err, nil)
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	a.dbPool = dbPool
	a.logger.Info("Successfully connected to PostgreSQL pool!", nil)

	if cfg.Database.AutoMigrate {
		if err := postgres_adapter.EnsureSchema(ctx, dbPool); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
	}

	houseStorage, err := postgres_adapter.NewPostgresHouseStorageAdapter(dbPool)
	if err != nil {
		return err
	}

	// --- 3. RABBITMQ (необязательно) ---
	var reporter port.ReportPublisherPort = rabbitmq_adapter.NoopReportPublisher{}
	if cfg.RabbitMQ.Enabled {
		connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(a.baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
		connManager, err := rabbitmq_common.GetManager(rabbitmq_common.Config{URL: cfg.RabbitMQ.URL}, connManagerBridge)
		if err != nil {
			a.logger.Error("Failed to create connection manager", err, nil)
			return fmt.Errorf("failed to create connection manager: %w", err)
		}
		a.connManager = connManager

		eventProducer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			ExchangeName:             cfg.RabbitMQ.Exchange,
			ExchangeType:             "direct",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(a.baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
		}, connManager)
		if err != nil {
			a.logger.Error("Failed to create event producer", err, nil)
			return fmt.Errorf("failed to create event producer: %w", err)
		}
		a.eventProducer = eventProducer

		reportAdapter, err := rabbitmq_adapter.NewReportPublisherAdapter(eventProducer)
		if err != nil {
			return err
		}
		reporter = reportAdapter
		a.logger.Info("RabbitMQ report publisher initialized.", port.Fields{"exchange": cfg.RabbitMQ.Exchange})
	}

	// --- 4. HTTP-КЛИЕНТ для проверки и картинок ---
	httpClient, err := httpclient.NewClient(httpclient.Config{
		Timeout:       cfg.HTTPClient.Timeout,
		MaxRetries:    cfg.HTTPClient.MaxRetries,
		RetryBase:     cfg.HTTPClient.RetryBase,
		RatePerSecond: cfg.HTTPClient.RatePerSecond,
		MaxRedirects:  httpclient.DefaultMaxRedirects,
		UserAgent:     listamfetcher.DefaultUserAgent,
	})
	if err != nil {
		return fmt.Errorf("failed to create http client: %w", err)
	}

	// --- 5. USE CASES ---
	var houseStats port.HouseStatsPort = houseStorage
	switch a.mode {
	case ModeScraper:
		fetcher, err := listamfetcher.NewListamFetcherAdapter(listamfetcher.Config{
			BaseURL:     cfg.Listam.BaseURL,
			ContactURL:  cfg.Listam.ContactURL,
			Delay:       cfg.Listam.Delay,
			Parallelism: cfg.Listam.Workers,
			Timeout:     cfg.HTTPClient.Timeout,
		})
		if err != nil {
			a.logger.Error("Failed to create list.am fetcher", err, nil)
			return fmt.Errorf("failed to initialize list.am fetcher: %w", err)
		}

		var images usecases.DownloadImagesPort
		if cfg.Images.Enabled {
			imageStorage, err := filestorage.NewLocalImageStorageAdapter(cfg.Images.Dir)
			if err != nil {
				return err
			}
			downloadUC, err := usecase.NewDownloadImagesUseCase(httpClient, imageStorage)
			if err != nil {
				return err
			}
			images = downloadUC
		}

		scrapeUC, err := usecase.NewScrapePagesUseCase(fetcher, houseStorage, images, reporter, usecase.ScrapePagesConfig{
			StartPage: cfg.Listam.StartPage,
			EndPage:   cfg.Listam.EndPage,
			Workers:   cfg.Listam.Workers,
		})
		if err != nil {
			return err
		}
		a.scrapeUC = scrapeUC

	case ModeChecker:
		prober, err := removalprober.NewHTTPRemovalProber(httpClient)
		if err != nil {
			return err
		}
		checkUC, err := usecase.NewCheckRemovedUseCase(houseStorage, prober, reporter, usecase.CheckRemovedConfig{
			BatchSize: cfg.Checker.BatchSize,
			Delay:     cfg.Checker.Delay,
		})
		if err != nil {
			return err
		}
		a.checkUC = checkUC

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, a.mode)
	}
	a.logger.Info("Use case initialized.", nil)

	// --- 6. СТАТУС-СЕРВЕР (необязательно) ---
	if cfg.StatusServer.Port != "" {
		handlers := rest.NewStatusHandlers(a.mode, a.scrapeUC, a.checkUC, houseStats)
		a.statusServer = rest.NewServer(cfg.StatusServer.Port, handlers, a.baseLogger.WithFields(port.Fields{"component": "status_server"}))
	}

	return nil
}

// Run выполняет один проход выбранного режима. SIGINT/SIGTERM отменяют проход.
func (a *App) Run() error {
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	appCtx = contextkeys.ContextWithLogger(appCtx, a.baseLogger)

	if a.statusServer != nil {
		go func() {
			if err := a.statusServer.Start(); err != nil {
				a.logger.Error("Status server stopped", err, nil)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.statusServer.Stop(shutdownCtx); err != nil {
				a.logger.Error("Error stopping status server", err, nil)
			}
		}()
	}

	a.logger.Info("Application is starting...", nil)

	var err error
	switch {
	case a.scrapeUC != nil:
		_, err = a.scrapeUC.Execute(appCtx)
	case a.checkUC != nil:
		_, err = a.checkUC.Execute(appCtx)
	}

	if errors.Is(err, context.Canceled) {
		a.logger.Warn("Run interrupted by signal", nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s run failed: %w", a.mode, err)
	}
	return nil
}

// close освобождает ресурсы в порядке, обратном созданию
func (a *App) close() {
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}

	a.logger.Info("Application shut down gracefully.", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			log.Printf("App: Error closing fluent client: %v\n", err)
		}
	}
}

func parseLogLevel(levelStr string) slog.Level {
	level, ok := logger_adapter.ParseLevel(levelStr)
	if !ok {
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
	}
	return level
}

// Usage печатает справку по запуску
func Usage() {
	fmt.Fprintf(os.Stderr, "usage: listam-parser-service <%s|%s>\n", ModeScraper, ModeChecker)
	fmt.Fprintln(os.Stderr, "  scraper  crawl index pages START_PAGE..END_PAGE and upsert listings")
	fmt.Fprintln(os.Stderr, "  checker  probe stored listings and mark removed ones as deleted")
}
