package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	httpadp "scholarfund-backend/internal/adapter/http"
	"scholarfund-backend/internal/adapter/middleware"
	"scholarfund-backend/internal/adapter/repository/mysql"
	"scholarfund-backend/internal/adapter/ws"
	"scholarfund-backend/internal/config"
	paydomain "scholarfund-backend/internal/domain/payment"
	"scholarfund-backend/internal/hub"
	"scholarfund-backend/internal/infrastructure/broker"
	"scholarfund-backend/internal/infrastructure/cache"
	"scholarfund-backend/internal/infrastructure/db"
	"scholarfund-backend/internal/infrastructure/logger"
	"scholarfund-backend/internal/infrastructure/metrics"
	"scholarfund-backend/internal/infrastructure/payment"
	"scholarfund-backend/internal/infrastructure/scheduler"
	"scholarfund-backend/internal/infrastructure/token"
	"scholarfund-backend/internal/usecase/application"
	"scholarfund-backend/internal/usecase/dispatch"
	"scholarfund-backend/internal/usecase/donation"
	"scholarfund-backend/internal/usecase/ledger"
	"scholarfund-backend/internal/usecase/scholarship"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("open mysql")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	rdb, err := cache.Open(cache.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err != nil {
		log.Fatal().Err(err).Msg("open redis")
	}
	defer rdb.Close()

	m := metrics.New()
	events := broker.Open(cfg.RabbitMQURL, cfg.EventsExchange, log)
	defer events.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pushHub := hub.New(hub.Options{
		HeartbeatInterval: cfg.HeartbeatInterval(),
		Window:            cfg.HeartbeatWindow(),
		Metrics:           m,
		Log:               log.With().Str("component", "hub").Logger(),
	})
	go pushHub.Run(ctx)

	// repositories + usecases
	scholarships := mysql.NewScholarshipRepository(gdb)
	donations := mysql.NewDonationRepository(gdb)
	applications := mysql.NewApplicationRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	disp := dispatch.New(pushHub, events, m, log)
	led := ledger.New(scholarships, donations, m)

	scholarshipUC := scholarship.NewUsecase(scholarship.Deps{
		Scholarships: scholarships,
		Ledger:       led,
		Dispatcher:   disp,
		Log:          log,
	})
	var gateway paydomain.Gateway
	switch cfg.Gateway() {
	case config.GatewaySimulated:
		if !cfg.IsDevelopment() {
			log.Warn().Str("env", cfg.AppEnv).Msg("simulated payment gateway in use; no money moves")
		}
		gateway = payment.NewSimulated(cfg.PaymentRedirectBase)
	default:
		log.Fatal().Str("gateway", cfg.Gateway()).Msg("no payment gateway configured")
	}

	donationUC := donation.NewUsecase(donation.Deps{
		UoW:          uow,
		Scholarships: scholarships,
		Donations:    donations,
		Ledger:       led,
		Gateway:      gateway,
		Locker:       cache.NewCaptureGuard(rdb, 0),
		Dispatcher:   disp,
		Metrics:      m,
		Log:          log,
	})
	applicationUC := application.NewUsecase(application.Deps{
		UoW:          uow,
		Applications: applications,
		Dispatcher:   disp,
		Metrics:      m,
		Log:          log,
	})

	// sweeps
	sched := scheduler.New(log.With().Str("component", "scheduler").Logger(), m)
	jobs := []scheduler.Job{
		{Name: "cancel_stale_donations", Run: func(ctx context.Context) (int64, error) {
			return donationUC.CancelStale(ctx, cfg.PendingDonationTTL())
		}},
		{Name: "close_expired_scholarships", Run: scholarshipUC.CloseExpired},
	}
	for _, j := range jobs {
		if err := sched.Add(cfg.SweepSchedule, j); err != nil {
			log.Fatal().Err(err).Str("job", j.Name).Msg("schedule job")
		}
	}
	sched.Start()

	// http
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = readHeaderTimeout
	e.Validator = httpadp.NewValidator()
	e.Use(
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		middleware.AccessLog(log),
		m.Middleware(),
	)

	pushHandler := ws.NewHandler(pushHub, token.NewVerifier(cfg.JWTSecret), ws.Options{
		SendBuffer:        cfg.HubSendBuffer,
		MessagesPerSecond: cfg.WSMessagesPerSec,
		PongWait:          cfg.HeartbeatWindow(),
		Log:               log.With().Str("component", "ws").Logger(),
	})

	httpadp.Routes{
		Health: httpadp.NewHandler(pushHub, map[string]httpadp.Check{
			"mysql": db.Check(gdb),
			"redis": cache.Check(rdb),
		}),
		Scholarships: httpadp.NewScholarshipHandler(scholarshipUC, log),
		Donations:    httpadp.NewDonationHandler(donationUC, log),
		Applications: httpadp.NewApplicationHandler(applicationUC, log),
		Push:         pushHandler.Serve,
		Metrics:      echo.WrapHandler(m.Handler()),
		Idempotency:  middleware.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log),
	}.Register(e)

	go func() {
		addr := ":" + cfg.AppPort
		log.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	sched.Stop(shutdownCtx)
}
