package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-room-reservation/internal/config"
	"github.com/iliyamo/hotel-room-reservation/internal/database"
	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/router"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

// stores groups the backend-specific persistence used by the handlers.
type stores struct {
	rooms        service.RoomDirectory
	reservations service.ReservationStore
	users        handler.UserStore
	tokens       handler.TokenStore
	checks       map[string]handler.Pinger
	close        func()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Info("using in-memory store", zap.Int("rooms", len(cfg.SeedRooms)))
		return stores{
			rooms:        repository.NewMemoryRoomDirectory(cfg.SeedRooms...),
			reservations: repository.NewMemoryReservationStore(),
			users:        repository.NewMemoryUserStore(),
			tokens:       repository.NewMemoryTokenStore(),
			checks:       map[string]handler.Pinger{},
			close:        func() {},
		}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		logger.Info("database schema ensured")
	}
	return stores{
		rooms:        repository.NewRoomRepo(db),
		reservations: repository.NewReservationRepo(db),
		users:        repository.NewUserRepo(db),
		tokens:       repository.NewTokenRepo(db),
		checks:       map[string]handler.Pinger{"mysql": pingDB(db)},
		close:        func() { _ = db.Close() },
	}, nil
}

func pingDB(db *sql.DB) handler.Pinger { return db.PingContext }

func pingRedis(rdb *redis.Client) handler.Pinger {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}

func main() {
	cfg := config.Load()
	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer st.close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
		st.checks["redis"] = pingRedis(rdb)
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		publisher = queue.NewPublisher(cfg.RabbitMQURL)
		audit := queue.NewAuditLog(cfg.BookingLogDir)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, audit, logger.Named("booking-consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", zap.Error(err))
			}
		}()
		logger.Info("reservation events enabled", zap.String("audit_log", audit.Path()))
	}

	clock := service.RealClock{}
	booking := service.NewBookingService(st.rooms, st.reservations, publisher, clock, logger.Named("booking"))
	cancellation := service.NewCancellationService(st.reservations, st.rooms,
		service.NewCancellationPolicy(cfg.CancellationWindow), publisher, logger.Named("cancellation"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger.Named("http")))

	router.RegisterRoutes(e, handler.NewHealthHandler(st.checks))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.users, st.tokens, logger.Named("auth")), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewRoomHandler(st.rooms, logger.Named("rooms")),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger.Named("cache")))
	router.RegisterCustomer(e,
		handler.NewReservationHandler(booking, cancellation, clock, logger.Named("reservations")),
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger.Named("ratelimit")))

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
