package notification_repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, log *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, log: log}
}

// Enqueue stores a notification in pending state for the watcher to pick up.
func (r *NotificationRepository) Enqueue(ctx context.Context, n domain.Notification) (uuid.UUID, error) {
	const op = "NotificationRepository.Enqueue"

	query := `
		INSERT INTO notifications (channel, recipient, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING notification_id
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		n.Channel.String(),
		n.Recipient,
		n.Subject,
		n.Body,
		domain.NotificationStatusPending.String(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// ListPending returns the oldest pending notifications, up to limit. Failed
// records are never re-polled; only the next tick's pending ones are.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	const op = "NotificationRepository.ListPending"

	query := `
		SELECT notification_id, channel, recipient, subject, body, status, last_error, created_at, sent_at
		FROM notifications
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, domain.NotificationStatusPending.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var channelStr, statusStr string
		if err := rows.Scan(
			&n.ID, &channelStr, &n.Recipient, &n.Subject, &n.Body,
			&statusStr, &n.LastError, &n.CreatedAt, &n.SentAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		n.Channel = domain.NotificationChannel(channelStr)
		n.Status = domain.NotificationStatus(statusStr)
		list = append(list, n)
	}

	return list, rows.Err()
}

// MarkSent transitions pending -> sent.
func (r *NotificationRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const op = "NotificationRepository.MarkSent"

	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET status = $1, sent_at = NOW() WHERE notification_id = $2`,
		domain.NotificationStatusSent.String(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotificationNotFound)
	}

	return nil
}

// MarkFailed transitions pending -> failed and records the error.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr error) error {
	const op = "NotificationRepository.MarkFailed"

	msg := ""
	if sendErr != nil {
		msg = sendErr.Error()
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET status = $1, last_error = $2 WHERE notification_id = $3`,
		domain.NotificationStatusFailed.String(), msg, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotificationNotFound)
	}

	return nil
}

// GetByID loads one notification.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	const op = "NotificationRepository.GetByID"

	query := `
		SELECT notification_id, channel, recipient, subject, body, status, last_error, created_at, sent_at
		FROM notifications
		WHERE notification_id = $1
	`

	var n domain.Notification
	var channelStr, statusStr string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&n.ID, &channelStr, &n.Recipient, &n.Subject, &n.Body,
		&statusStr, &n.LastError, &n.CreatedAt, &n.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, fmt.Errorf("%s: %w", op, repository.ErrNotificationNotFound)
		}
		return domain.Notification{}, fmt.Errorf("%s: %w", op, err)
	}

	n.Channel = domain.NotificationChannel(channelStr)
	n.Status = domain.NotificationStatus(statusStr)
	return n, nil
}
