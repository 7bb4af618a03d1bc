// Package main wires the 3D generation service together: configuration,
// startup validation, persistence, the provider chain, and the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"studio_backend/blobstore"
	"studio_backend/core"
	"studio_backend/core/validation"
	"studio_backend/db"
	"studio_backend/logging"
	"studio_backend/metrics"
	"studio_backend/objectgen"
	"studio_backend/shutdown"
	"studio_backend/webapi"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Service commands (install/uninstall/start/stop) short-circuit normal
	// startup on platforms that support them.
	if HandleServiceCommand(os.Args[1:]) {
		return
	}
	if handled, err := RunAsService(); handled {
		if err != nil {
			fmt.Printf("Service run failed: %v\n", err)
			os.Exit(core.ExitCodeError)
		}
		return
	}

	os.Exit(run())
}

// run contains the real startup sequence so deferred cleanup executes before
// the process exits.
func run() int {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config, err := core.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return core.ExitCodeError
	}

	logger, err := logging.NewLogger(config.DevMode, config.LogFilePath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Startup validation before heavy operations
	result := validation.NewValidationSuite(config).WithShowProgress(true).Validate()
	if !result.Success {
		logger.Error("Configuration validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Duration("duration", result.Duration),
		)
		for _, step := range result.Steps {
			if step.Status == validation.StepFailed {
				logger.Error("Validation step failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error),
				)
			}
		}
		return core.ExitCodeError
	}
	logger.Info("Configuration validation passed",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Duration("duration", result.Duration),
	)

	logger.Info("Configuration loaded",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.DatabasePath),
		zap.Bool("meshy", config.HasMeshy()),
		zap.Bool("object3d", config.HasObject3D()),
		zap.Bool("replicate", config.HasReplicate()),
		zap.Bool("openai_fallback", config.HasOpenAI()),
		zap.Bool("blob_storage", config.HasStorage()),
		zap.Duration("ai_timeout", config.AITimeout),
		zap.Bool("dev_mode", config.DevMode),
	)

	manager := shutdown.NewManager(logger)
	manager.Register("logger", 40, func(ctx context.Context) error {
		return logger.Sync()
	})

	// Persistence
	database, err := db.NewDatabase(config.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		return core.ExitCodeError
	}
	if err := database.Migrate(); err != nil {
		logger.Error("Failed to run database migrations", zap.Error(err))
		_ = database.Close()
		return core.ExitCodeError
	}
	manager.Register("database", 30, func(ctx context.Context) error {
		return database.Close()
	})

	repo := db.NewRepository(database, nil)
	writer := db.NewAsyncWriter(repo.HandleAsyncWrite)
	repo.AttachAsyncWriter(writer)
	writer.Start()
	manager.Register("async-writer", 20, func(ctx context.Context) error {
		if !writer.StopWithTimeout(db.DefaultDrainTimeout) {
			return fmt.Errorf("async writer drain timed out with %d pending writes", writer.Pending())
		}
		return nil
	})

	// Blob storage is optional; without it inline references are downgraded
	// and fallback images are returned as data URIs.
	var store blobstore.Store
	httpStore, err := blobstore.NewHTTPStoreFromConfig(config)
	if err != nil {
		logger.Error("Failed to configure blob storage", zap.Error(err))
		_ = manager.Shutdown()
		return core.ExitCodeError
	}
	if httpStore != nil {
		store = httpStore
	}

	// Provider chain in attempt order
	collector := metrics.NewCollector()
	fallback := objectgen.NewFallback2DProvider(config, store)
	object3d := objectgen.NewObject3DProvider(config)
	objectProviders := objectgen.InstrumentAll([]objectgen.Provider{
		objectgen.NewMeshyProvider(config),
		object3d,
		objectgen.NewReplicateProvider(config),
		fallback,
	}, collector)
	imageProviders := objectgen.InstrumentAll([]objectgen.Provider{fallback}, collector)
	videoProviders := objectgen.InstrumentAll([]objectgen.Provider{object3d}, collector)

	resolver := objectgen.NewReferenceResolver(store, logger)
	objectGenerator := objectgen.NewGenerator(
		resolver,
		objectgen.NewAttemptSequencer(objectProviders, logger),
		logger.Named("object"),
	)
	imageGenerator := objectgen.NewGenerator(
		resolver,
		objectgen.NewAttemptSequencer(imageProviders, logger),
		logger.Named("image"),
	)

	// The video endpoint routes through the generic job-based provider.
	// When that provider is unconfigured the endpoint answers 503.
	var videoGenerator *objectgen.Generator
	if config.HasObject3D() {
		videoGenerator = objectgen.NewGenerator(
			resolver,
			objectgen.NewAttemptSequencer(videoProviders, logger),
			logger.Named("video"),
		)
	}

	api := webapi.NewAPI(webapi.APIConfig{
		ObjectGenerator: objectGenerator,
		ImageGenerator:  imageGenerator,
		VideoGenerator:  videoGenerator,
		Repository:      repo,
		Collector:       collector,
		HealthCheck:     database.Ping,
		MaxBodyBytes:    config.MaxFileSize,
		Logger:          logger,
	})

	serverConfig := webapi.DefaultServerConfig()
	serverConfig.Host = config.Host
	serverConfig.Port = config.Port
	server := webapi.NewServer(serverConfig, api, logger)
	manager.Register("http-server", 10, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	manager.Start()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.String("addr", server.Addr()))
		serverErr <- server.Start()
	}()

	exitCode := core.ExitCodeSuccess
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			exitCode = core.ExitCodeError
		}
	case <-manager.Context().Done():
	}

	if err := manager.Shutdown(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		exitCode = core.ExitCodeError
	}

	// Give the final log lines a moment to flush in file-backed setups.
	time.Sleep(50 * time.Millisecond)
	return exitCode
}
