package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/brightnest/booking-payments/internal/mailer"
	"github.com/brightnest/booking-payments/internal/payment"
	"github.com/brightnest/booking-payments/internal/repository"
	appvalidator "github.com/brightnest/booking-payments/internal/validator"
	"github.com/brightnest/booking-payments/internal/vcs"
	"github.com/brightnest/booking-payments/migrations"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "booking-payments-api"

var (
	version = vcs.Version()
)

type Application struct {
	config    Config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate
	mailer    mailer.Mailer
	metrics   *paymentMetrics
	limiter   *callerLimiter
	wg        sync.WaitGroup

	paymentRepo       domain.PaymentRepository
	bookingRepo       domain.BookingRepository
	paymentMethodRepo domain.PaymentMethodRepository
	customerRepo      domain.CustomerRepository
	profileRepo       domain.ProfileRepository
	webhookEventRepo  domain.WebhookEventRepository

	paymentProvider domain.PaymentProvider
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient redis.UniversalClient,
	validator *validator.Validate,
	mailer mailer.Mailer,
	paymentRepo domain.PaymentRepository,
	bookingRepo domain.BookingRepository,
	paymentMethodRepo domain.PaymentMethodRepository,
	customerRepo domain.CustomerRepository,
	profileRepo domain.ProfileRepository,
	webhookEventRepo domain.WebhookEventRepository,
	paymentProvider domain.PaymentProvider) *Application {

	return &Application{
		config:            cfg,
		logger:            logger,
		db:                db,
		redis:             redisClient,
		validator:         validator,
		mailer:            mailer,
		metrics:           newPaymentMetrics(),
		limiter:           newCallerLimiter(cfg.RateLimit),
		paymentRepo:       paymentRepo,
		bookingRepo:       bookingRepo,
		paymentMethodRepo: paymentMethodRepo,
		customerRepo:      customerRepo,
		profileRepo:       profileRepo,
		webhookEventRepo:  webhookEventRepo,
		paymentProvider:   paymentProvider,
	}
}

func Run() error {
	// A missing .env file is fine, the environment and flags still apply.
	_ = godotenv.Load()

	cfg, displayVersion := parseFlags()

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	stripe.Key = cfg.Stripe.SecretKey

	stdoutHandler := slog.NewTextHandler(os.Stdout, nil)

	app := &Application{
		config: cfg,
		logger: slog.New(stdoutHandler),
	}

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		app.logger = slog.New(NewMultiHandler(stdoutHandler, otelslog.NewHandler(serviceName)))
	}

	_, err = api.LoadDocument(context.Background())
	if err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	if cfg.DB.Migrate {
		err = migrations.Up(cfg.DB.DSN)
		if err != nil {
			return err
		}

		app.logger.Info("database migrations applied")
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	app = NewApp(
		cfg,
		app.logger,
		db,
		redisClient,
		appvalidator.NewValidator(),
		mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		repository.NewPostgresPaymentRepository(db),
		repository.NewPostgresBookingRepository(db),
		repository.NewPostgresPaymentMethodRepository(db),
		repository.NewPostgresCustomerRepository(db),
		repository.NewPostgresProfileRepository(db),
		repository.NewPostgresWebhookEventRepository(db),
		payment.NewStripePaymentProvider(
			cfg.Stripe.Currency,
			cfg.Stripe.WebhookSecret,
			cfg.Stripe.SuccessUrl,
			cfg.Stripe.FailureUrl,
		),
	)

	return app.run()
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	app.StartWebhookRetryWorker(workerCtx)

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		stopWorker()

		app.logger.Info("completing background tasks", "addr", srv.Addr)

		app.WaitBackground()
		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
