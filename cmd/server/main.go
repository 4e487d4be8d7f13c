package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/notifications"
	"github.com/OpenSkyDrones/opensky/internal/storage"
)

const (
	commandUseName               = "server"
	commandShortDescription      = "Run the Open Sky Drones site"
	commandLongDescription       = "Serve the marketing site, the contact API and the admin panel"
	workerUseName                = "worker"
	workerShortDescription       = "Deliver queued contact notifications"
	loggerCreationErrorMessage   = "logger"
	logEventListening            = "listening"
	logEventShutdown             = "shutdown"
	logEventWorkerStopped        = "worker_stopped"
	logFieldAddress              = "addr"
	logFieldMode                 = "mode"
	readHeaderTimeoutSeconds     = 5
	shutdownTimeout              = 10 * time.Second
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
)

// LoggerFactory builds the process logger.
type LoggerFactory func() (*zap.Logger, error)

// ServerApplication constructs and executes the server and worker commands.
type ServerApplication struct {
	serverLoader   *viper.Viper
	workerLoader   *viper.Viper
	databaseOpener DatabaseOpener
	loggerFactory  LoggerFactory
	serve          func(ctx context.Context, server *http.Server) error
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		serverLoader:   viper.New(),
		workerLoader:   viper.New(),
		databaseOpener: storage.OpenDatabase,
		loggerFactory:  func() (*zap.Logger, error) { return zap.NewProduction() },
		serve:          serveUntilCancelled,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command tree.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runServer,
	}
	if configurationErr := registerStringFlags(application.serverLoader, rootCommand.Flags(), serverStringFlags); configurationErr != nil {
		return nil, configurationErr
	}

	workerCommand := &cobra.Command{
		Use:   workerUseName,
		Short: workerShortDescription,
		RunE:  application.runWorker,
	}
	if configurationErr := registerStringFlags(application.workerLoader, workerCommand.Flags(), workerStringFlags); configurationErr != nil {
		return nil, configurationErr
	}
	rootCommand.AddCommand(workerCommand)

	return rootCommand, nil
}

func rejectArguments(arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}
	return nil
}

func (application *ServerApplication) runServer(command *cobra.Command, arguments []string) error {
	if argumentsErr := rejectArguments(arguments); argumentsErr != nil {
		return argumentsErr
	}
	serverConfig, configErr := loadServerConfig(application.serverLoader)
	if configErr != nil {
		return configErr
	}

	logger, loggerErr := application.loggerFactory()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	components, buildErr := buildServerComponents(ctx, serverConfig, logger, application.databaseOpener)
	if buildErr != nil {
		return buildErr
	}
	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			logger.Warn(logEventShutdown, zap.Error(closeErr))
		}
	}()

	components.refresher.Start(ctx)
	defer components.refresher.Stop()

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           components.router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}
	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress), zap.String(logFieldMode, string(serverConfig.Mode)))
	return application.serve(ctx, httpServer)
}

func serveUntilCancelled(ctx context.Context, server *http.Server) error {
	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- server.ListenAndServe()
	}()

	select {
	case serveErr := <-serveErrors:
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	case <-ctx.Done():
	}

	shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownContext); shutdownErr != nil {
		return shutdownErr
	}
	if serveErr := <-serveErrors; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

func (application *ServerApplication) runWorker(command *cobra.Command, arguments []string) error {
	if argumentsErr := rejectArguments(arguments); argumentsErr != nil {
		return argumentsErr
	}
	workerConfig, configErr := loadWorkerConfig(application.workerLoader)
	if configErr != nil {
		return configErr
	}

	logger, loggerErr := application.loggerFactory()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	processor, processorErr := notifications.NewProcessor(logger, notifications.WebhookConfig{URL: workerConfig.WebhookURL})
	if processorErr != nil {
		return processorErr
	}

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     workerConfig.RedisAddress,
		Password: workerConfig.RedisPassword,
	}, asynq.Config{
		Concurrency: workerConfig.Concurrency,
		Queues:      map[string]int{notifications.QueueName: 1},
		Logger:      logger.Sugar(),
	})

	ctx, stop := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if runErr := server.Run(processor.Handler()); runErr != nil {
		logger.Error(logEventWorkerStopped, zap.Error(runErr))
		return runErr
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.ExecuteContext(context.Background()); executeErr != nil {
		os.Exit(1)
	}
}
