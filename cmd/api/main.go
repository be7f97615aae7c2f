package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/verocta/spendscore/internal/api/handlers"
	"github.com/verocta/spendscore/internal/api/middleware"
	"github.com/verocta/spendscore/internal/config"
	"github.com/verocta/spendscore/internal/infra/postgres"
	"github.com/verocta/spendscore/internal/jobs"
	"github.com/verocta/spendscore/internal/jobs/inmemory"
	"github.com/verocta/spendscore/internal/logger"
	"github.com/verocta/spendscore/internal/pipeline"
	"github.com/verocta/spendscore/internal/score"
	"github.com/verocta/spendscore/internal/vendor"
)

func main() {
	// A missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	log := logger.New("spendscore-api")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Vendor profiles: built-ins, plus an optional YAML extension file.
	registry := vendor.Builtin()
	if cfg.ProfilesPath != "" {
		registry, err = vendor.LoadFile(cfg.ProfilesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ProfilesPath).Msg("Failed to load vendor profiles")
		}
		log.Info().Str("path", cfg.ProfilesPath).Int("profiles", len(registry.Profiles())).Msg("Loaded vendor profiles")
	}

	engine, err := score.NewEngine(score.DefaultConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scoring configuration")
	}

	pipe := pipeline.New(registry, pipeline.DefaultValidationConfig(), engine, log)

	// Report persistence is optional; without a database the service still
	// scores uploads and tracks jobs in memory.
	var store postgres.ReportStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Postgres")
		}
		defer pg.Close()

		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		store = pg
		log.Info().Msg("Report persistence enabled")
	} else {
		log.Warn().Msg("No DATABASE_URL configured - reports will not be persisted")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, cfg.JobWorkers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Job handler: run the uploaded bytes through the pipeline and attach
	// the outcome to the job record.
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		scoreJob, ok := job.(*jobs.ScoreFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", scoreJob.JobID).
			Str("filename", scoreJob.Filename).
			Msg("Processing scoring job")

		out, err := pipe.Ingest(ctx, scoreJob.Data, pipeline.Options{
			Filename:         scoreJob.Filename,
			ExpectedCurrency: scoreJob.ExpectedCurrency,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", scoreJob.JobID).
				Str("filename", scoreJob.Filename).
				Msg("Scoring job failed")
			return err
		}

		scoreJob.Result = out.Score
		scoreJob.Rejections = out.Rejections

		if store != nil {
			report := postgres.NewReport(scoreJob.Filename, out.Vendor, out.Score, out.Rejections)
			if err := store.SaveReport(ctx, report); err != nil {
				log.Error().Err(err).Str("job_id", scoreJob.JobID).Msg("Failed to persist report")
			} else {
				scoreJob.ReportID = report.ID
			}
		}

		log.Info().
			Str("job_id", scoreJob.JobID).
			Int("spend_score", out.Score.Score).
			Str("tier", string(out.Score.Tier)).
			Msg("Scoring job completed")

		return nil
	}

	go func() {
		log.Info().Int("workers", cfg.JobWorkers).Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(pipe, store, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	reportsHandler := handlers.NewReportsHandler(store, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/upload/async", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.UploadAsync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.ListReports(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportID := strings.TrimPrefix(r.URL.Path, "/api/reports/")
			if reportID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Report ID is required")
				return
			}
			reportsHandler.GetReport(w, r, reportID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
