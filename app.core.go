package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func()
	queueConsumers []func(context.Context) error
}

// appStorage holds the storage built for the configured driver
// along with the resources to release once the app stops.
type appStorage struct {
	books    BookStorage
	redis    *redis.Client
	cleanups []func()
}

// setupStorage connects to the configured books storage backend.
func setupStorage(config *Config, logger *zap.Logger, ids UIDHandler) (*appStorage, error) {
	st := &appStorage{}
	switch config.Storage.Driver {
	case StorageMongo:
		client, err := GetMongoClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo server: %s", err)
		}
		st.books = NewMongoBookStorage(logger, GetMongoCollection(config, client))
		st.cleanups = append(st.cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("failed to disconnect from mongo server", zap.Error(err))
			}
		})
	case StorageRedis:
		client, err := GetRedisClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		st.redis = client
		st.books = NewRedisBookStorage(logger, client, ids, config.Redis.HashKey)
	case StorageBolt:
		client, err := GetBoltDBClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
		}
		bs := NewBoltBookStorage(logger, &config.BoltDB, client, ids)
		st.books = bs
		st.cleanups = append(st.cleanups, func() {
			if err := bs.Close(); err != nil {
				logger.Error("failed to close boltdb storage", zap.Error(err))
			}
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}
	return st, nil
}

// NewApp provides an instance of App.
func NewApp(config *Config) (AppProvider, error) {
	var app *App
	clock := NewClock(config.IsProduction)

	// ensure the logs folder exists and Setup the logging module.
	err := os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	logWriter := NewRSyncWriter(config, clock)
	closer := func() {
		if cerr := logWriter.Close(); cerr != nil {
			fmt.Println("error during closing of log file: ", cerr)
		}
	}
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))
	flush := func() {
		if ferr := flusher(); ferr != nil {
			fmt.Println("error during flushing of logs: ", ferr)
		}
	}

	ids := NewIDsHandler()
	storage, err := setupStorage(config, logger, ids)
	if err != nil {
		closer()
		return app, err
	}
	cleanups := storage.cleanups
	var consumers []func(context.Context) error

	// Optional mirroring of the mutations into a boltdb replica.
	var queue Queuer
	if config.Replication.Enable {
		if storage.redis == nil {
			storage.redis, err = GetRedisClient(config)
			if err != nil {
				closer()
				return app, fmt.Errorf("failed to connect to redis server: %s", err)
			}
		}
		boltDBClient, err := GetBoltDBClient(config)
		if err != nil {
			closer()
			return app, fmt.Errorf("failed to connect to boltDB server: %s", err)
		}
		replica := NewBoltBookStorage(logger, &config.BoltDB, boltDBClient, ids)
		queue = NewRedisQueue(storage.redis, config.Redis.HashKey)
		boltDBConsumer := NewBoltDBConsumer(logger, queue, replica)
		consumers = append(consumers, func(ctx context.Context) error {
			return boltDBConsumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
		})
		cleanups = append(cleanups, func() {
			if err := replica.Close(); err != nil {
				logger.Error("failed to close boltdb replica", zap.Error(err))
			}
		})
	}

	if storage.redis != nil {
		redisClient := storage.redis
		cleanups = append(cleanups, func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", zap.Error(err))
			}
		})
	}

	metrics := NewMetrics()
	bookService := NewBookService(logger, config, storage.books, queue, metrics)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		ids,
		NewAuthenticator(&config.Auth, clock),
		metrics,
		bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		router,
		config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")

	// Build the api server definition.
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	// logs are flushed and closed after every other resource.
	cleanups = append(cleanups, flush, closer)

	return &App{
		logger:         logger,
		config:         config,
		server:         srv,
		cleanups:       cleanups,
		queueConsumers: consumers,
	}, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.storage", app.config.Storage.Driver),
			zap.String("app.basepath", app.config.Server.BasePath),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("api server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
