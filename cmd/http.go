package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/oseayemenre/bookshelf/docs"
	"github.com/oseayemenre/bookshelf/internal/api"
	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/oseayemenre/bookshelf/internal/mailer"
	"github.com/oseayemenre/bookshelf/internal/queue"
	"github.com/oseayemenre/bookshelf/internal/store"
)

const coverFolder = "bookshelf/covers"

type Server struct {
	config      *config.Config
	logger      logger.Logger
	objectStore store.ObjectStore
	store       store.Store
	mailer      mailer.Mailer
}

func NewServer(cfg *config.Config, logger logger.Logger, objectStore store.ObjectStore, store store.Store, mailer mailer.Mailer) *Server {
	return &Server{
		config:      cfg,
		logger:      logger,
		objectStore: objectStore,
		store:       store,
		mailer:      mailer,
	}
}

func (s *Server) Mount() (*chi.Mux, *api.Api) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	a := api.New(r, s.logger, s.objectStore, s.store, s.mailer, s.config)
	a.RegisterRoutes()

	return r, a
}

// loadConfig reads configuration and applies any command line overrides.
func loadConfig(cmd *cobra.Command, envFile string, env string, port int) (*config.Config, error) {
	cfg, err := config.Load(envFile)

	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}

	if cmd.Flags().Changed("env") {
		cfg.Env = env

		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func openStore(cfg *config.Config) (*store.PostgresStore, error) {
	return store.NewPostgresStore(cfg.DBConn, store.Options{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetime:  cfg.DBConnMaxLifetime,
		StatementTimeout: cfg.DBStatementTimeout,
	})
}

// newObjectStore returns nil when no object store is configured.
func newObjectStore(ctx context.Context, cfg *config.Config) (store.ObjectStore, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))

		if err != nil {
			return nil, fmt.Errorf("error loading aws config: %v", err)
		}

		return store.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Region), nil

	case config.ObjectStoreCloudinary:
		cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret)

		if err != nil {
			return nil, fmt.Errorf("error configuring cloudinary: %v", err)
		}

		return store.NewCloudinaryStore(cld, coverFolder), nil
	}

	return nil, nil
}

// newMailer prefers the mail queue, then direct SMTP, then logging the
// message. The returned func releases any connection it opened.
func newMailer(cfg *config.Config, logger logger.Logger) (mailer.Mailer, func(), error) {
	switch {
	case cfg.RabbitMQConn != "":
		publisher, err := queue.NewPublisher(cfg.RabbitMQConn)

		if err != nil {
			return nil, nil, err
		}

		logger.Info("mailer", "transport", "rabbitmq", "queue", queue.QueueMail)
		return publisher, func() { publisher.Close() }, nil

	case cfg.SMTPHost != "":
		m, err := mailer.NewSMTPMailer(cfg)

		if err != nil {
			return nil, nil, err
		}

		logger.Info("mailer", "transport", "smtp", "host", cfg.SMTPHost)
		return m, func() {}, nil
	}

	logger.Warn("mailer", "transport", "log", "status", "SMTP_HOST and RABBIT_MQ_CONN are unset, emails are only logged")
	return mailer.NewLogMailer(logger), func() {}, nil
}

func HTTPCommand(ctx context.Context, envFile *string) *cobra.Command {
	var port int
	var env string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "run bookshelf http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

			cfg, err := loadConfig(cmd, *envFile, env, port)

			if err != nil {
				return err
			}

			logger, err := logger.New(cfg.Env, os.Stderr)

			if err != nil {
				return err
			}

			db, err := openStore(cfg)

			if err != nil {
				return err
			}

			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			objectStore, err := newObjectStore(ctx, cfg)

			if err != nil {
				return err
			}

			m, closeMailer, err := newMailer(cfg, logger)

			if err != nil {
				return err
			}

			defer closeMailer()

			handler, a := NewServer(cfg, logger, objectStore, db, m).Mount()
			defer a.Close()

			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       2 * time.Minute,
			}
			errCh := make(chan error, 1)

			logger.Info("server startup", "status", fmt.Sprintf("server starting on port: %d", cfg.Port), "env", cfg.Env, "object_store", cfg.ObjectStore)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err

			case <-sig:
				logger.Info("server shutdown", "status", "kill signal recieved")
				ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
				defer cancel()

				if err := httpServer.Shutdown(ctx); err != nil {
					return fmt.Errorf("error shutting down server: %v", err)
				}

				logger.Info("server shutdown", "status", "shutdown complete...")
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3001, "port to listen on, overrides PORT")
	cmd.Flags().StringVarP(&env, "env", "e", "dev", "current working environment, overrides APP_ENV")

	return cmd
}
