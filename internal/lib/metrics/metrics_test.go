package metrics

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func testMetrics() *Metrics {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(log)
}

func TestMetrics_RecordCall(t *testing.T) {
	m := testMetrics()

	m.RecordCall(ServiceSirene, 100*time.Millisecond, nil)

	stats := m.GetStats()
	if stats.Sirene.CallsTotal != 1 {
		t.Errorf("expected 1 SIRENE call, got %d", stats.Sirene.CallsTotal)
	}
	if stats.Sirene.ErrorsTotal != 0 {
		t.Errorf("expected 0 SIRENE errors, got %d", stats.Sirene.ErrorsTotal)
	}

	m.RecordCall(ServiceSirene, 50*time.Millisecond, errors.New("test error"))

	stats = m.GetStats()
	if stats.Sirene.CallsTotal != 2 {
		t.Errorf("expected 2 SIRENE calls, got %d", stats.Sirene.CallsTotal)
	}
	if stats.Sirene.ErrorsTotal != 1 {
		t.Errorf("expected 1 SIRENE error, got %d", stats.Sirene.ErrorsTotal)
	}
	if stats.Sirene.ErrorRate != 0.5 {
		t.Errorf("expected error rate 0.5, got %f", stats.Sirene.ErrorRate)
	}
}

func TestMetrics_RecordCall_AllServices(t *testing.T) {
	m := testMetrics()

	m.RecordCall(ServiceSirene, 100*time.Millisecond, nil)
	m.RecordCall(ServiceSMS, 50*time.Millisecond, nil)
	m.RecordCall(ServiceMail, 200*time.Millisecond, nil)
	m.RecordCall(ServicePayment, 30*time.Millisecond, nil)

	stats := m.GetStats()

	if stats.Sirene.CallsTotal != 1 {
		t.Errorf("expected 1 SIRENE call, got %d", stats.Sirene.CallsTotal)
	}
	if stats.SMS.CallsTotal != 1 {
		t.Errorf("expected 1 SMS call, got %d", stats.SMS.CallsTotal)
	}
	if stats.Mail.CallsTotal != 1 {
		t.Errorf("expected 1 mail call, got %d", stats.Mail.CallsTotal)
	}
	if stats.Payment.CallsTotal != 1 {
		t.Errorf("expected 1 payment call, got %d", stats.Payment.CallsTotal)
	}
}

func TestMetrics_Timer(t *testing.T) {
	m := testMetrics()

	timer := m.StartTimer(ServiceMail)
	time.Sleep(10 * time.Millisecond)
	timer.Stop(nil)

	stats := m.GetStats()
	if stats.Mail.CallsTotal != 1 {
		t.Errorf("expected 1 mail call, got %d", stats.Mail.CallsTotal)
	}
}

func TestMetrics_RecordSearch(t *testing.T) {
	m := testMetrics()

	m.RecordSearch(100*time.Millisecond, 5, nil)
	m.RecordSearch(200*time.Millisecond, 0, nil)
	m.RecordSearch(50*time.Millisecond, 0, errors.New("search failed"))

	stats := m.GetStats()
	if stats.Search.Total != 3 {
		t.Errorf("expected 3 searches, got %d", stats.Search.Total)
	}
	if stats.Search.Errors != 1 {
		t.Errorf("expected 1 search error, got %d", stats.Search.Errors)
	}
	// Failed searches do not count as empty
	if stats.Search.Empty != 1 {
		t.Errorf("expected 1 empty search, got %d", stats.Search.Empty)
	}
	if stats.Search.LastMs != 50 {
		t.Errorf("expected last latency 50ms, got %d", stats.Search.LastMs)
	}
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	m.RecordSearch(time.Millisecond, 1, nil)
	m.RecordCall(ServiceSMS, time.Millisecond, nil)
}
