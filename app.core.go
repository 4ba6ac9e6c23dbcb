package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
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
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewClock(config.IsProduction)

	// ensure the logs folder exists and setup the logging module.
	if err = os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{
		logger:   logger,
		config:   config,
		cleanups: []func() error{flusher, logWriter.Close},
	}

	storage, err := app.setupStorage()
	if err != nil {
		app.Clean()
		return nil, err
	}

	queue, err := app.setupBackup()
	if err != nil {
		app.Clean()
		return nil, err
	}

	bookService := NewBookService(logger, storage, queue)
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
		NewIDsHandler(),
		bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	var handler http.Handler = router
	if config.Server.RequestTimeout > 0 {
		handler = http.TimeoutHandler(
			router,
			config.Server.RequestTimeout,
			`{"message":"Timeout. Processing taking too long."}`,
		)
	}

	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        handler,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}
	return app, nil
}

// setupStorage connects to the configured document store.
func (app *App) setupStorage() (BookStorage, error) {
	config := app.config
	switch config.Storage.Driver {
	case StorageDriverRedis:
		client, err := GetRedisClient(config)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append(app.cleanups, client.Close)
		return NewRedisBookStorage(app.logger, client), nil

	case StorageDriverBolt:
		client, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb database: %s", err)
		}
		app.cleanups = append(app.cleanups, client.Close)
		return NewBoltBookStorage(app.logger, &config.BoltDB, client), nil

	default:
		ctx := context.Background()
		client, err := GetMongoDBClient(ctx, app.logger, &config.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb server: %s", err)
		}
		app.cleanups = append(app.cleanups, func() error { return client.Disconnect(context.Background()) })
		collection, err := SetupBooksCollection(ctx, client.Database(config.MongoDB.Database), config.MongoDB.Collection)
		if err != nil {
			return nil, err
		}
		app.logger.Info("mongodb storage ready",
			zap.String("mongodb.database", config.MongoDB.Database),
			zap.String("mongodb.collection", config.MongoDB.Collection),
		)
		return NewMongoBookStorage(app.logger, collection), nil
	}
}

// setupBackup provides the queue the service publishes changes to and
// registers the consumer replicating them into boltdb. It returns a nil
// queue when the backup is disabled.
func (app *App) setupBackup() (Queuer, error) {
	config := app.config
	if !config.Backup.Enable {
		return nil, nil
	}

	client, err := GetRedisClient(config)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("backup: failed to connect to redis server: %s", err)
	}
	app.cleanups = append(app.cleanups, client.Close)

	boltClient, err := GetBoltDBClient(&config.BoltDB)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to open boltdb database: %s", err)
	}
	app.cleanups = append(app.cleanups, boltClient.Close)

	queue := NewRedisQueue(client)
	consumer := NewBackupConsumer(app.logger, queue, NewBoltBookStorage(app.logger, &config.BoltDB, boltClient))
	app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
		return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	})
	return queue, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	for _, consume := range app.queueConsumers {
		consume := consume
		g.Go(func() error { return consume(gCtx) })
	}
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

// Clean calls all registered cleanups functions in reverse order.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		if err := app.cleanups[i](); err != nil {
			fmt.Fprintln(os.Stderr, "cleanup:", err)
		}
	}
}

// Serve starts the api web server. Its returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.storage", app.config.Storage.Driver),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It proceeds with a brutal shutdown if the graceful one did not complete.
// It returns nil so the errorgroup only reports the `Serve` result.
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
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}
