package app

import (
	"context"
	"log/slog"

	"artisan_dispo/internal/config"
	"artisan_dispo/internal/httpserver"
	"artisan_dispo/internal/lib/docstore"
	"artisan_dispo/internal/lib/mailer"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/lib/payment"
	"artisan_dispo/internal/lib/sirene"
	"artisan_dispo/internal/lib/sms"
	"artisan_dispo/internal/repository/artisan_repository"
	"artisan_dispo/internal/repository/demande_repository"
	"artisan_dispo/internal/repository/notification_repository"
	"artisan_dispo/internal/repository/user_repository"
	"artisan_dispo/internal/services/artisan"
	"artisan_dispo/internal/services/demande"
	"artisan_dispo/internal/services/matching"
	"artisan_dispo/internal/services/notification"
	"artisan_dispo/internal/services/user"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App wires every layer together: repositories over the pool, external
// clients, services over both, and the HTTP server on top. The notification
// watcher runs alongside the server.
type App struct {
	HTTPServer *httpserver.Server
	Watcher    *notification.Watcher
	Metrics    *metrics.Metrics
}

func New(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool, cfg *config.Config) (*App, error) {
	userRepository := user_repository.NewUserRepository(pool, log)
	artisanRepository := artisan_repository.NewArtisanRepository(pool, log)
	demandeRepository := demande_repository.NewDemandeRepository(pool, log)
	notificationRepository := notification_repository.NewNotificationRepository(pool, log)

	sireneClient := sirene.NewClient(cfg.Sirene, log)
	smsClient := sms.NewClient(cfg.SMS, log)
	mailSender := mailer.NewSender(cfg.Mailer, log)
	paymentClient := payment.NewClient(cfg.Payment, log)

	docstoreClient, err := docstore.NewClient(ctx, cfg.Docstore, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New(log)

	log.Info("external services initialized",
		slog.Bool("sirene_enabled", sireneClient.IsEnabled()),
		slog.Bool("sms_enabled", smsClient.IsEnabled()),
		slog.Bool("docstore_enabled", docstoreClient.IsEnabled()),
		slog.Bool("payment_enabled", paymentClient.IsEnabled()),
	)

	userService := user.New(log, userRepository, cfg.Secret, cfg.TokenTTL)
	artisanService := artisan.New(log, artisanRepository, sireneClient, docstoreClient, m)
	matchingService := matching.New(log, artisanRepository, m, cfg.Matching)
	notificationService := notification.New(log, notificationRepository, userRepository, mailSender, smsClient, m)
	demandeService := demande.New(log, demandeRepository, artisanRepository, matchingService, notificationService, paymentClient, m)

	watcher := notification.NewWatcher(log, notificationService, cfg.Watcher.Interval, cfg.Watcher.BatchSize)

	server := httpserver.New(
		log,
		cfg.HTTP,
		cfg.Secret,
		userService,
		artisanService,
		demandeService,
		matchingService,
		m,
	)

	return &App{
		HTTPServer: server,
		Watcher:    watcher,
		Metrics:    m,
	}, nil
}
