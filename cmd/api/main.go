package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mediqueue/clinic-api/internal/config"
	"github.com/mediqueue/clinic-api/internal/handler"
	adminHandler "github.com/mediqueue/clinic-api/internal/handler/admin"
	appointmentHandler "github.com/mediqueue/clinic-api/internal/handler/appointment"
	authHandler "github.com/mediqueue/clinic-api/internal/handler/auth"
	doctorHandler "github.com/mediqueue/clinic-api/internal/handler/doctor"
	patientHandler "github.com/mediqueue/clinic-api/internal/handler/patient"
	queueHandler "github.com/mediqueue/clinic-api/internal/handler/queue"
	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/repository/postgres"
	redisrepo "github.com/mediqueue/clinic-api/internal/repository/redis"
	"github.com/mediqueue/clinic-api/internal/router"
	appointmentService "github.com/mediqueue/clinic-api/internal/service/appointment"
	authService "github.com/mediqueue/clinic-api/internal/service/auth"
	"github.com/mediqueue/clinic-api/internal/service/authz"
	doctorService "github.com/mediqueue/clinic-api/internal/service/doctor"
	"github.com/mediqueue/clinic-api/internal/service/notification"
	patientService "github.com/mediqueue/clinic-api/internal/service/patient"
	queueService "github.com/mediqueue/clinic-api/internal/service/queue"
	"github.com/mediqueue/clinic-api/pkg/auth"
	"github.com/mediqueue/clinic-api/pkg/logger"
	"github.com/mediqueue/clinic-api/pkg/security"
	"github.com/mediqueue/clinic-api/pkg/storage"
)

func main() {
	logger.Setup(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	tokenRepo, err := redisrepo.NewTokenRepository(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	storageCfg, err := storage.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load storage configuration")
	}
	store, err := storage.NewLocalStore(storageCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	queueRepo := postgres.NewQueueRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshExpiryHours)*time.Hour,
	)
	hasher := security.NewBcryptHasher(0)
	authzSvc := authz.NewService(doctorRepo, patientRepo)
	notifier := notification.NewMailService(cfg.SMTP)

	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, hasher, cfg.JWT)
	doctorSvc := doctorService.NewService(doctorRepo)
	patientSvc := patientService.NewService(patientRepo)
	queueSvc := queueService.NewService(queueRepo, doctorRepo, patientRepo, authzSvc)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, patientRepo, authzSvc, notifier)

	// Middleware and handlers
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(doctorSvc, store)
	patientH := patientHandler.NewHandler(patientSvc, store)
	queueH := queueHandler.NewHandler(queueSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)
	adminH := adminHandler.NewHandler(doctorSvc, userRepo)

	r := router.NewRouter(authMW, h, authH, doctorH, patientH, queueH, appointmentH, adminH, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:  cfg.Server.RateLimitBurst,
		CORSConfig: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
