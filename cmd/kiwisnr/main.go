package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RMahshie/kiwisnr/internal/aggregator"
	"github.com/RMahshie/kiwisnr/internal/api"
	"github.com/RMahshie/kiwisnr/internal/api/handlers"
	"github.com/RMahshie/kiwisnr/internal/collector"
	"github.com/RMahshie/kiwisnr/internal/config"
	"github.com/RMahshie/kiwisnr/internal/dashboard"
	"github.com/RMahshie/kiwisnr/internal/endpoint"
	"github.com/RMahshie/kiwisnr/internal/metrics"
	"github.com/RMahshie/kiwisnr/internal/publish"
	"github.com/RMahshie/kiwisnr/internal/repository"
	"github.com/RMahshie/kiwisnr/internal/repository/logfile"
	"github.com/RMahshie/kiwisnr/internal/repository/postgres"
	"github.com/RMahshie/kiwisnr/internal/storage"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "kiwisnr",
		Short:         "Poll a KiwiSDR for per-band SNR and chart it live",
		Long:          "kiwisnr polls {url}/snr on a fixed interval, appends every reply to a durable log and serves a live per-band SNR dashboard.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("url", "", "KiwiSDR base URL, e.g. http://kiwi.local:8073")
	flags.Bool("no-prompt", false, "do not ask for the URL on stdin")
	flags.String("port", "", "HTTP listen port")
	flags.String("log-file", "", "path of the durable SNR log")

	_ = v.BindPFlag("KIWI_URL", flags.Lookup("url"))
	_ = v.BindPFlag("NO_PROMPT", flags.Lookup("no-prompt"))
	_ = v.BindPFlag("PORT", flags.Lookup("port"))
	_ = v.BindPFlag("LOG_FILE_PATH", flags.Lookup("log-file"))

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
	}

	baseURL, err := endpoint.Resolve(endpoint.Options{
		File:     cfg.Files.LastURLFile,
		Override: cfg.Receiver.URL,
		Prompt:   !cfg.Receiver.NoPrompt,
		In:       os.Stdin,
		Out:      os.Stdout,
	})
	if errors.Is(err, endpoint.ErrNoEndpoint) {
		log.Error().Msg("No URL; exiting.")
		return err
	}
	if err != nil {
		return err
	}

	names := models.DefaultBandNames()
	if cfg.Files.BandNamesFile != "" {
		if names, err = models.LoadBandNames(cfg.Files.BandNamesFile); err != nil {
			log.Error().Err(err).Str("path", cfg.Files.BandNamesFile).Msg("Failed to load band names")
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Core pipeline
	snapshotLog := logfile.New(cfg.Files.LogFile)
	latest := &collector.Latest{}
	m := metrics.New()
	fetcher := collector.NewHTTPFetcher(baseURL, cfg.Receiver.RequestTimeout)

	opts := []collector.Option{collector.WithObserver(m), collector.WithSink(m)}

	// Optional sinks
	var polls repository.PollRepository
	if cfg.Database.URL != "" {
		db, err := openDatabase(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		polls = postgres.NewPostgresPollRepository(db)
		opts = append(opts, collector.WithSink(collector.RepositorySink{Repo: polls}))
	}

	if cfg.MQTT.Broker != "" {
		publisher, err := publish.NewMQTTPublisher(publish.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			log.Error().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT disabled")
		} else {
			defer publisher.Close()
			opts = append(opts, collector.WithSink(publisher))
		}
	}

	var archiver storage.Archiver
	if cfg.AWS.S3Bucket != "" {
		archiver, err = storage.NewS3Archiver(ctx, storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize S3 archiver")
			return err
		}
	}

	coll := collector.New(fetcher, snapshotLog, latest, cfg.Receiver.PollInterval, opts...)
	agg := aggregator.New(latest, snapshotLog, cfg.Display.Location)
	dash := dashboard.New(agg, cfg.Display.SmoothWindow, cfg.Display.RefreshInterval,
		dashboard.WithGauges(m), dashboard.WithBandNames(names))

	go coll.Run(ctx)
	go dash.Run(ctx)

	router := newRouter(cfg)
	humaConfig := huma.DefaultConfig("KiwiSDR SNR Monitor API", handlers.Version)
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	api.RegisterRoutes(router, humaAPI, api.Dependencies{
		Endpoint: fetcher.Endpoint(),
		Monitor:  handlers.NewMonitorHandler(dash, coll, polls, archiver, snapshotLog.Path()),
		Charts:   dash,
		Live:     dash.Hub(),
		Metrics:  m.Handler(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("endpoint", fetcher.Endpoint()).
			Dur("poll_interval", cfg.Receiver.PollInterval).
			Msg("Starting KiwiSDR SNR monitor")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed to start")
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Server exited")
	return nil
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("Poll history enabled")
	return db, nil
}

func newRouter(cfg *config.Config) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	router.Use(middleware.Compress(5, "application/json", "image/svg+xml", "text/html", "text/plain"))

	return router
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
