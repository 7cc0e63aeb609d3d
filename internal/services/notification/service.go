package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/lib/mailer"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/lib/sms"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Enqueue(ctx context.Context, n domain.Notification) (uuid.UUID, error)
	ListPending(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, sendErr error) error
}

// UserReader resolves missing recipients from the account record.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type Service struct {
	log     *slog.Logger
	repo    NotificationRepository
	users   UserReader
	mailer  mailer.Sender
	sms     sms.Client
	metrics *metrics.Metrics
}

func New(log *slog.Logger, repo NotificationRepository, users UserReader, sender mailer.Sender, smsClient sms.Client, m *metrics.Metrics) *Service {
	return &Service{
		log:     log,
		repo:    repo,
		users:   users,
		mailer:  sender,
		sms:     smsClient,
		metrics: m,
	}
}

// EnqueueEmail stores an email for asynchronous delivery by the watcher.
// An empty recipient is resolved from the account's email.
func (s *Service) EnqueueEmail(ctx context.Context, userID uuid.UUID, recipient, subject, body string) (uuid.UUID, error) {
	const op = "notification.Service.EnqueueEmail"

	if recipient == "" {
		account, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}
		recipient = account.Email
	}

	id, err := s.repo.Enqueue(ctx, domain.Notification{
		Channel:   domain.ChannelEmail,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.NotificationStatusPending,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// EnqueueSMS stores an SMS for asynchronous delivery by the watcher.
// An empty phone is resolved from the account.
func (s *Service) EnqueueSMS(ctx context.Context, userID uuid.UUID, phone, body string) (uuid.UUID, error) {
	const op = "notification.Service.EnqueueSMS"

	if phone == "" {
		account, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}
		phone = account.Phone
	}

	id, err := s.repo.Enqueue(ctx, domain.Notification{
		Channel:   domain.ChannelSMS,
		Recipient: phone,
		Body:      body,
		Status:    domain.NotificationStatusPending,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// deliver pushes one notification out through its channel.
func (s *Service) deliver(ctx context.Context, n domain.Notification) error {
	switch n.Channel {
	case domain.ChannelEmail:
		timer := s.metrics.StartTimer(metrics.ServiceMail)
		err := s.mailer.SendMail(ctx, mailer.Message{
			To:      n.Recipient,
			Subject: n.Subject,
			Body:    n.Body,
		})
		timer.Stop(err)
		return err
	case domain.ChannelSMS:
		timer := s.metrics.StartTimer(metrics.ServiceSMS)
		_, err := s.sms.SendSMS(ctx, sms.SendRequest{To: n.Recipient, Body: n.Body})
		timer.Stop(err)
		return err
	default:
		return fmt.Errorf("unknown channel %q", n.Channel)
	}
}

// Watcher polls the pending queue on a fixed interval and delivers each
// notification at most once. A failed delivery is recorded and never
// retried automatically.
type Watcher struct {
	log       *slog.Logger
	service   *Service
	interval  time.Duration
	batchSize int
}

func NewWatcher(log *slog.Logger, service *Service, interval time.Duration, batchSize int) *Watcher {
	return &Watcher{
		log:       log,
		service:   service,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	const op = "notification.Watcher.Run"
	log := w.log.With(slog.String("op", op))

	log.Info("notification watcher started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("notification watcher stopped")
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	const op = "notification.Watcher.processPending"
	log := w.log.With(slog.String("op", op))

	pending, err := w.service.repo.ListPending(ctx, w.batchSize)
	if err != nil {
		log.Error("failed to list pending notifications", sl.Err(err))
		return
	}

	for _, n := range pending {
		if err := w.service.deliver(ctx, n); err != nil {
			log.Warn("delivery failed",
				slog.String("notification_id", n.ID.String()),
				slog.String("channel", string(n.Channel)),
				sl.Err(err),
			)
			if markErr := w.service.repo.MarkFailed(ctx, n.ID, err); markErr != nil {
				log.Error("failed to mark notification failed", sl.Err(markErr))
			}
			continue
		}

		if err := w.service.repo.MarkSent(ctx, n.ID); err != nil {
			log.Error("failed to mark notification sent", sl.Err(err))
		}
	}
}
