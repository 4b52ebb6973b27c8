package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/mindgrove-ai/studykit/internal/api/handlers"
	"github.com/mindgrove-ai/studykit/internal/chunker"
	"github.com/mindgrove-ai/studykit/internal/config"
	"github.com/mindgrove-ai/studykit/internal/database"
	"github.com/mindgrove-ai/studykit/internal/engine"
	"github.com/mindgrove-ai/studykit/internal/jobs"
	"github.com/mindgrove-ai/studykit/internal/llm"
	"github.com/mindgrove-ai/studykit/internal/repository"
	"github.com/mindgrove-ai/studykit/internal/server"
	"github.com/mindgrove-ai/studykit/internal/service"
	"github.com/mindgrove-ai/studykit/internal/storage"
	"github.com/mindgrove-ai/studykit/internal/store"
	"github.com/mindgrove-ai/studykit/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the studykit API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	var docs store.DocumentStore
	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		// Run migrations unless --no-migrate flag is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		docs = repository.NewDocumentRepository(pool)
	} else {
		log.Println("no DATABASE_URL configured, using in-memory document store")
		docs = store.NewMemory()
	}

	var artifacts storage.Store
	if cfg.HasS3() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 store: %w", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		artifacts = s3Store
	} else {
		log.Printf("no S3 configured, keeping index snapshots under %s", cfg.DataDir)
		artifacts = storage.NewFSStore(cfg.DataDir)
	}

	eng := engine.New(docs, artifacts,
		engine.WithChunker(chunker.New(cfg.ChunkMinChars, cfg.ChunkMaxChars)),
	)
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("failed to start retrieval engine: %w", err)
	}

	// Retry failed snapshot saves in the background so a storage outage
	// during a rebuild does not lose the persisted index.
	persistWorker := jobs.NewWorker(jobs.NewSnapshotWorker(eng), 30*time.Second)
	go persistWorker.Start(ctx)

	chat := llm.NewClient(llm.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})
	if chat.Available() {
		log.Printf("language model client ready (model %s)", cfg.LLMModel)
	} else {
		log.Println("no GROQ_API_KEY configured, /ask and /generate will be unavailable")
	}

	answerSvc := service.NewAnswerService(eng, chat)
	studySvc := service.NewStudyService(eng, chat)

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(eng),
		SearchHandler:   handlers.NewSearchHandler(eng, cfg.TopK, cfg.MinSimilarity),
		StudyHandler:    handlers.NewStudyHandler(answerSvc, studySvc),
		StatusHandler:   handlers.NewStatusHandler(eng, chat.Available()),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	persistWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
