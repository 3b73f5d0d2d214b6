package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/d-valsamis/student-portal/api"
	"github.com/d-valsamis/student-portal/config"
	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/router"
	"github.com/d-valsamis/student-portal/services/cron"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/cache"
	"github.com/d-valsamis/student-portal/utils/middleware"
	"github.com/gofiber/fiber/v2/log"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM(env)
	if err != nil {
		log.Error("Check whether the Postgres is running or not")
		log.Error("DATABASE_URL or DB_HOST/DB_PORT must point at a reachable server")
		return err
	}

	if err := store.Init(); err != nil {
		log.Error("Failed to initialize database tables")
		return err
	}

	ctx := context.Background()
	seeder := database.NewSeeder(store.GetDB())
	if err := seeder.SeedAdmin(ctx, env.ADMIN_USERNAME, env.ADMIN_PASSWORD_HASH); err != nil {
		return err
	}
	if env.SEED_SAMPLE_DATA {
		if err := seeder.SeedSampleData(ctx); err != nil {
			log.Warnf("Failed to seed sample data: %v", err)
		}
	}

	files, err := NewFileService(env)
	if err != nil {
		return err
	}

	// Login lockout needs Redis; without it the protection is a no-op
	var bruteForce *middleware.BruteForceProtection
	var redisCache *cache.RedisCache
	if env.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warnf("Redis unavailable, login lockout disabled: %v", err)
		} else {
			bruteForce = middleware.NewBruteForceProtection(redisCache)
		}
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.GetDB(), files)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warnf("Failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}

	// Defer closing DB, Redis and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   env.RATE_LIMIT_WINDOW,
		RequestTimeout:    env.REQUEST_TIMEOUT,
	})

	router.SetupRoutes(app, router.Dependencies{
		Store: store,
		JWTManager: auth.NewJWTManager(auth.JWTConfig{
			Secret: env.JWT_SECRET,
			Expiry: env.JWT_EXPIRY,
			Issuer: env.JWT_ISSUER,
		}),
		Files:      files,
		BruteForce: bruteForce,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server...")
		if err := server.Shutdown(30 * time.Second); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}()

	return server.Run()
}

// NewFileService builds the upload store selected by STORAGE_BACKEND.
func NewFileService(env *config.EnvironmentVariable) (*filestore.Service, error) {
	var backend filestore.Store

	switch env.STORAGE_BACKEND {
	case "spaces", "s3":
		spaces, err := filestore.NewSpacesStore(filestore.SpacesConfig{
			AccessKey: env.DO_SPACES_KEY,
			SecretKey: env.DO_SPACES_SECRET,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
		})
		if err != nil {
			return nil, err
		}
		backend = spaces
		log.Infof("Storing uploads in bucket %s", env.DO_SPACES_BUCKET)
	case "local", "":
		local, err := filestore.NewLocalStore(env.UPLOAD_DIR, filestore.Kinds...)
		if err != nil {
			return nil, err
		}
		backend = local
		log.Infof("Storing uploads under %s", env.UPLOAD_DIR)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", env.STORAGE_BACKEND)
	}

	return filestore.NewService(backend), nil
}
