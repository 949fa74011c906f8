package integration_test

import (
	"log/slog"
	"os"

	"github.com/brightnest/booking-payments/internal/app"
	"github.com/brightnest/booking-payments/internal/mailer"
	"github.com/brightnest/booking-payments/internal/payment"
	"github.com/brightnest/booking-payments/internal/repository"
	appvalidator "github.com/brightnest/booking-payments/internal/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App             *app.Application
	DB              *pgxpool.Pool
	Redis           *redis.Client
	Mailer          *mailer.MockMailer
	PaymentProvider *payment.MockPaymentProvider
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	paymentProvider := payment.NewMockPaymentProvider(cfg.Stripe.WebhookSecret)

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mockMailer,
		repository.NewPostgresPaymentRepository(db),
		repository.NewPostgresBookingRepository(db),
		repository.NewPostgresPaymentMethodRepository(db),
		repository.NewPostgresCustomerRepository(db),
		repository.NewPostgresProfileRepository(db),
		repository.NewPostgresWebhookEventRepository(db),
		paymentProvider,
	)

	return &TestApp{
		App:             application,
		DB:              db,
		Redis:           redisClient,
		Mailer:          mockMailer,
		PaymentProvider: paymentProvider,
	}, nil
}
