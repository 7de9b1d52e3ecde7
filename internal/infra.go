package internal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fanpost/kanva/internal/billing"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/identity"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/service"
	"github.com/fanpost/kanva/internal/sportsdata"
	"github.com/fanpost/kanva/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// OpenDB opens and pings the Postgres database.
func OpenDB(ctx context.Context, cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// NewStorage builds the configured object storage provider.
func NewStorage(cfg *Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == storage.ProviderR2 {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
}

// NewPublisher connects to NATS when configured. The returned close
// function is always safe to call.
func NewPublisher(cfg *Config, logger *slog.Logger) (events.Publisher, func(), error) {
	if cfg.NatsURL == "" {
		logger.Info("NATS_URL not set, domain events are discarded")
		return events.Nop{}, func() {}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NatsURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connection failed: %w", err)
	}
	return pub, func() { _ = pub.Close() }, nil
}

// NewRedis connects to Redis when configured, or returns nil.
func NewRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	client, err := sportsdata.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// NewBilling returns the Stripe service, or nil when no key is set.
func NewBilling(cfg *Config) billing.Service {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	return billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
		MonthlyPriceID:    cfg.StripeMonthlyPriceID,
		YearlyPriceID:     cfg.StripeYearlyPriceID,
		CreditPackPriceID: cfg.StripeCreditPackPriceID,
	})
}

// Services bundles the application services shared by the server and
// kanvactl.
type Services struct {
	Tiers         service.TierService
	Credits       service.CreditService
	Slots         service.TeamSlotService
	Profiles      service.ProfileService
	Templates     service.TemplateService
	Subscriptions service.SubscriptionService
	Accounts      service.AccountService
}

// NewServices wires the services over one store. billingSvc may be nil.
func NewServices(
	cfg *Config,
	store repository.Store,
	files storage.Storage,
	billingSvc billing.Service,
	pub events.Publisher,
	logger *slog.Logger,
) *Services {
	tiers := service.NewTierService(store, cfg.Entitlements, pub, logger)
	credits := service.NewCreditService(store, tiers, pub, logger)

	var admin identity.Admin = identity.NoopAdmin{}
	if cfg.IdentityAdminURL != "" {
		admin = identity.NewHTTPAdmin(cfg.IdentityAdminURL, cfg.IdentityServiceKey, nil)
	} else {
		logger.Warn("IDENTITY_ADMIN_URL not set, account deletion keeps provider identities")
	}

	return &Services{
		Tiers:         tiers,
		Credits:       credits,
		Slots:         service.NewTeamSlotService(store, tiers, pub, logger),
		Profiles:      service.NewProfileService(store, logger),
		Templates:     service.NewTemplateService(store, files, service.NewImagingProcessor(), logger),
		Subscriptions: service.NewSubscriptionService(store, tiers, credits, billingSvc, cfg.CreditPackSize, logger),
		Accounts:      service.NewAccountService(store, tiers, credits, admin, pub, logger),
	}
}
