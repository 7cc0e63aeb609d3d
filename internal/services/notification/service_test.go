package notification

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/mailer"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/lib/sms"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockNotificationRepository
type MockNotificationRepository struct {
	EnqueueFunc     func(ctx context.Context, n domain.Notification) (uuid.UUID, error)
	ListPendingFunc func(ctx context.Context, limit int) ([]domain.Notification, error)

	sent   []uuid.UUID
	failed []uuid.UUID
}

func (m *MockNotificationRepository) Enqueue(ctx context.Context, n domain.Notification) (uuid.UUID, error) {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, n)
	}
	return uuid.New(), nil
}

func (m *MockNotificationRepository) ListPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockNotificationRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *MockNotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr error) error {
	m.failed = append(m.failed, id)
	return nil
}

// MockUserReader
type MockUserReader struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.User, error)
}

func (m *MockUserReader) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return domain.User{}, nil
}

// MockMailer
type MockMailer struct {
	SendMailFunc func(ctx context.Context, msg mailer.Message) error
	sent         []string
}

func (m *MockMailer) SendMail(ctx context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg.To)
	if m.SendMailFunc != nil {
		return m.SendMailFunc(ctx, msg)
	}
	return nil
}

func (m *MockMailer) IsEnabled() bool { return true }

// MockSMS
type MockSMS struct {
	SendSMSFunc func(ctx context.Context, req sms.SendRequest) (*sms.SendResult, error)
	sent        []string
}

func (m *MockSMS) SendSMS(ctx context.Context, req sms.SendRequest) (*sms.SendResult, error) {
	m.sent = append(m.sent, req.To)
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, req)
	}
	return &sms.SendResult{Status: "sent"}, nil
}

func (m *MockSMS) IsEnabled() bool { return true }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestService_EnqueueEmail_ResolvesRecipientFromAccount(t *testing.T) {
	userID := uuid.New()

	var enqueued domain.Notification
	repo := &MockNotificationRepository{
		EnqueueFunc: func(ctx context.Context, n domain.Notification) (uuid.UUID, error) {
			enqueued = n
			return uuid.New(), nil
		},
	}
	users := &MockUserReader{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.User, error) {
			assert.Equal(t, userID, id)
			return domain.User{ID: id, Email: "artisan@example.fr"}, nil
		},
	}

	svc := New(testLogger(), repo, users, &MockMailer{}, &MockSMS{}, metrics.New(testLogger()))

	_, err := svc.EnqueueEmail(context.Background(), userID, "", "Nouvelle demande", "corps")

	require.NoError(t, err)
	assert.Equal(t, "artisan@example.fr", enqueued.Recipient)
	assert.Equal(t, domain.ChannelEmail, enqueued.Channel)
	assert.Equal(t, domain.NotificationStatusPending, enqueued.Status)
}

func TestService_EnqueueSMS_ExplicitPhoneSkipsLookup(t *testing.T) {
	repo := &MockNotificationRepository{}
	users := &MockUserReader{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.User, error) {
			t.Fatal("account lookup should not happen with an explicit phone")
			return domain.User{}, nil
		},
	}

	svc := New(testLogger(), repo, users, &MockMailer{}, &MockSMS{}, metrics.New(testLogger()))

	_, err := svc.EnqueueSMS(context.Background(), uuid.New(), "+33611122233", "corps")

	require.NoError(t, err)
}

func TestWatcher_ProcessPending_MarksSentAndFailed(t *testing.T) {
	okID := uuid.New()
	badID := uuid.New()
	smsID := uuid.New()

	repo := &MockNotificationRepository{
		ListPendingFunc: func(ctx context.Context, limit int) ([]domain.Notification, error) {
			return []domain.Notification{
				{ID: okID, Channel: domain.ChannelEmail, Recipient: "ok@example.fr"},
				{ID: badID, Channel: domain.ChannelEmail, Recipient: "bad@example.fr"},
				{ID: smsID, Channel: domain.ChannelSMS, Recipient: "+33611122233"},
			}, nil
		},
	}
	mail := &MockMailer{
		SendMailFunc: func(ctx context.Context, msg mailer.Message) error {
			if msg.To == "bad@example.fr" {
				return errors.New("smtp refused")
			}
			return nil
		},
	}
	sms := &MockSMS{}

	svc := New(testLogger(), repo, &MockUserReader{}, mail, sms, metrics.New(testLogger()))
	w := NewWatcher(testLogger(), svc, time.Second, 50)

	w.processPending(context.Background())

	assert.ElementsMatch(t, []uuid.UUID{okID, smsID}, repo.sent)
	assert.Equal(t, []uuid.UUID{badID}, repo.failed)
	assert.Equal(t, []string{"+33611122233"}, sms.sent)
}

func TestWatcher_RunStopsOnContextCancel(t *testing.T) {
	repo := &MockNotificationRepository{}
	svc := New(testLogger(), repo, &MockUserReader{}, &MockMailer{}, &MockSMS{}, metrics.New(testLogger()))
	w := NewWatcher(testLogger(), svc, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
