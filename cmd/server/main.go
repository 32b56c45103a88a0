// Command server runs the ForkFeed API: recipe management with semantic
// search, the social feed and calorie tracking.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/forkfeed/forkfeed/internal/api"
	"github.com/forkfeed/forkfeed/internal/config"
	"github.com/forkfeed/forkfeed/pkg/auth"
	"github.com/forkfeed/forkfeed/pkg/cache"
	"github.com/forkfeed/forkfeed/pkg/clients/fatsecret"
	"github.com/forkfeed/forkfeed/pkg/clients/sendgrid"
	"github.com/forkfeed/forkfeed/pkg/embedding"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
	"github.com/forkfeed/forkfeed/pkg/repository/embeddings"
	"github.com/forkfeed/forkfeed/pkg/search"
	"github.com/forkfeed/forkfeed/pkg/services"
	"github.com/forkfeed/forkfeed/pkg/storage"
)

func main() {
	var (
		skipMigration = flag.Bool("skip-migration", false, "do not run database migrations on startup")
		migrateOnly   = flag.Bool("migrate-only", false, "run database migrations and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Database connection failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		_ = db.Close()
	}()

	if !*skipMigration {
		if err := runMigrations(db, cfg.Database.MigrationsPath); err != nil {
			logger.Fatal("Migration failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		logger.Info("Migrations applied", nil)
	}
	if *migrateOnly {
		return
	}

	if err := run(cfg, db, logger); err != nil {
		logger.Fatal("Server failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func run(cfg *config.Config, db *sqlx.DB, logger observability.Logger) error {
	provider, err := newProvider(cfg.Embeddings, logger)
	if err != nil {
		return err
	}

	store, err := embeddings.NewBadgerStore(cfg.Embeddings.StorePath, logger.WithPrefix("embeddings"))
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	redisCache, err := cache.NewRedisCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		_ = redisCache.Close()
	}()

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	recipes := repository.NewRecipeRepository(db)
	feeds := repository.NewFeedRepository(db)
	likes := repository.NewLikeRepository(db)
	comments := repository.NewCommentRepository(db)
	saved := repository.NewSavedRecipeRepository(db)
	easiness := repository.NewEasinessRateRepository(db)
	calories := repository.NewCalorieRepository(db)
	interestForms := repository.NewInterestFormRepository(db)

	var nutrition services.NutritionClient
	if cfg.FatSecret.ClientID != "" {
		client, err := fatsecret.NewClient(cfg.FatSecret, logger.WithPrefix("fatsecret"))
		if err != nil {
			return err
		}
		nutrition = client
	} else {
		logger.Warn("FatSecret credentials missing, nutrition enrichment disabled", nil)
	}

	var mailer sendgrid.Mailer
	if cfg.SendGrid.APIKey != "" {
		client, err := sendgrid.NewClient(cfg.SendGrid, logger.WithPrefix("sendgrid"))
		if err != nil {
			return err
		}
		mailer = client
	} else {
		logger.Warn("SendGrid credentials missing, verification mail disabled", nil)
		mailer = noopMailer{logger: logger}
	}

	var images storage.ImageStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.Storage, logger.WithPrefix("storage"))
		if err != nil {
			return err
		}
		images = s3Store
	} else {
		logger.Warn("Object storage not configured, image uploads disabled", nil)
	}

	indexer := search.NewRecipeIndexer(provider, store, logger.WithPrefix("indexer"))
	engine := search.NewEngine(provider, store, recipes, logger.WithPrefix("search"))

	deps := api.Dependencies{
		Tokens:   tokens,
		Auth:     services.NewAuthService(users, tokens, redisCache, mailer, logger.WithPrefix("auth")),
		Recipes:  services.NewRecipeService(recipes, saved, feeds, likes, comments, easiness, nutrition, images, indexer, logger.WithPrefix("recipes")),
		Feeds:    services.NewFeedService(feeds, likes, comments, recipes, redisCache, images, logger.WithPrefix("feeds")),
		Saved:    services.NewSavedRecipeService(saved, recipes, logger.WithPrefix("saved")),
		Calories: services.NewCalorieService(calories, recipes, logger.WithPrefix("calories")),
		Forms:    services.NewInterestFormService(interestForms, users, images, logger.WithPrefix("forms")),
		Engine:   engine,
		Logger:   logger.WithPrefix("http"),
	}

	server := api.NewServer(api.ServerConfig{
		ListenAddress:  cfg.API.ListenAddress,
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
		Production:     cfg.IsProduction(),
	}, deps)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{
			"address": cfg.API.ListenAddress,
		})
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("Shutting down", map[string]interface{}{
			"signal": sig.String(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func newLogger(cfg *config.Config) observability.Logger {
	logger := observability.NewStandardLogger("forkfeed")
	if std, ok := logger.(*observability.StandardLogger); ok {
		std.WithLevel(observability.LogLevel(strings.ToUpper(cfg.Logging.Level)))
	}
	return logger
}

func connectDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func runMigrations(db *sqlx.DB, path string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func newProvider(cfg config.EmbeddingConfig, logger observability.Logger) (embedding.Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return embedding.NewOpenAIProvider(cfg.OpenAI, logger.WithPrefix("openai"))
	case "static":
		// Deterministic provider for local development without API keys
		p := embedding.NewStaticProvider()
		p.Fallback = []float64{0, 0, 0}
		return p, nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}

// noopMailer lets development environments run without mail credentials.
// The code is still generated and stored, it just is not delivered.
type noopMailer struct {
	logger observability.Logger
}

func (m noopMailer) SendVerificationCode(_ context.Context, toEmail string, code int) error {
	m.logger.Info("Verification code (mail disabled)", map[string]interface{}{
		"to":   toEmail,
		"code": code,
	})
	return nil
}
