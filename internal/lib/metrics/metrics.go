package metrics

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks search activity and outbound integration calls (SIRENE,
// SMS, mail, payment). Constructed once at startup and injected; counters
// are atomics so recording never blocks a request.
type Metrics struct {
	log *slog.Logger

	searchesTotal     int64
	searchErrorsTotal int64
	searchLatencyMs   int64
	lastSearchMs      int64
	resultsTotal      int64
	emptySearchTotal  int64

	sireneCalls   int64
	sireneErrors  int64
	smsCalls      int64
	smsErrors     int64
	mailCalls     int64
	mailErrors    int64
	paymentCalls  int64
	paymentErrors int64
}

func New(log *slog.Logger) *Metrics {
	return &Metrics{log: log}
}

// ServiceType names an outbound integration.
type ServiceType string

const (
	ServiceSirene  ServiceType = "sirene"
	ServiceSMS     ServiceType = "sms"
	ServiceMail    ServiceType = "mail"
	ServicePayment ServiceType = "payment"
)

// RecordSearch records one matching run.
func (m *Metrics) RecordSearch(latency time.Duration, results int, err error) {
	if m == nil {
		return
	}

	latencyMs := latency.Milliseconds()

	atomic.AddInt64(&m.searchesTotal, 1)
	atomic.AddInt64(&m.searchLatencyMs, latencyMs)
	atomic.StoreInt64(&m.lastSearchMs, latencyMs)
	atomic.AddInt64(&m.resultsTotal, int64(results))

	if err != nil {
		atomic.AddInt64(&m.searchErrorsTotal, 1)
		return
	}
	if results == 0 {
		atomic.AddInt64(&m.emptySearchTotal, 1)
	}
}

// RecordCall records one outbound integration call.
func (m *Metrics) RecordCall(service ServiceType, latency time.Duration, err error) {
	if m == nil {
		return
	}

	var calls, errs *int64
	switch service {
	case ServiceSirene:
		calls, errs = &m.sireneCalls, &m.sireneErrors
	case ServiceSMS:
		calls, errs = &m.smsCalls, &m.smsErrors
	case ServiceMail:
		calls, errs = &m.mailCalls, &m.mailErrors
	case ServicePayment:
		calls, errs = &m.paymentCalls, &m.paymentErrors
	default:
		return
	}

	atomic.AddInt64(calls, 1)
	if err != nil {
		atomic.AddInt64(errs, 1)
	}

	if m.log != nil {
		attrs := []any{
			slog.String("service", string(service)),
			slog.Int64("latency_ms", latency.Milliseconds()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			m.log.Warn("integration call failed", attrs...)
		} else {
			m.log.Debug("integration call completed", attrs...)
		}
	}
}

// CallTimer measures one outbound call.
type CallTimer struct {
	metrics   *Metrics
	service   ServiceType
	startTime time.Time
}

// StartTimer begins timing an outbound call.
func (m *Metrics) StartTimer(service ServiceType) *CallTimer {
	return &CallTimer{
		metrics:   m,
		service:   service,
		startTime: time.Now(),
	}
}

// Stop finishes the timer and records the call.
func (t *CallTimer) Stop(err error) {
	t.metrics.RecordCall(t.service, time.Since(t.startTime), err)
}

// SearchStats is the matching section of a snapshot.
type SearchStats struct {
	Total        int64   `json:"total"`
	Errors       int64   `json:"errors"`
	Empty        int64   `json:"empty"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	LastMs       int64   `json:"last_ms"`
	AvgResults   float64 `json:"avg_results"`
}

// ServiceStats is one integration's section of a snapshot.
type ServiceStats struct {
	CallsTotal  int64   `json:"calls_total"`
	ErrorsTotal int64   `json:"errors_total"`
	ErrorRate   float64 `json:"error_rate"`
}

// Stats is a point-in-time snapshot, served on the admin endpoint.
type Stats struct {
	Search  SearchStats  `json:"search"`
	Sirene  ServiceStats `json:"sirene"`
	SMS     ServiceStats `json:"sms"`
	Mail    ServiceStats `json:"mail"`
	Payment ServiceStats `json:"payment"`
}

// GetStats returns the current snapshot.
func (m *Metrics) GetStats() Stats {
	searches := atomic.LoadInt64(&m.searchesTotal)

	stats := Stats{
		Search: SearchStats{
			Total:  searches,
			Errors: atomic.LoadInt64(&m.searchErrorsTotal),
			Empty:  atomic.LoadInt64(&m.emptySearchTotal),
			LastMs: atomic.LoadInt64(&m.lastSearchMs),
		},
		Sirene:  m.serviceStats(&m.sireneCalls, &m.sireneErrors),
		SMS:     m.serviceStats(&m.smsCalls, &m.smsErrors),
		Mail:    m.serviceStats(&m.mailCalls, &m.mailErrors),
		Payment: m.serviceStats(&m.paymentCalls, &m.paymentErrors),
	}

	if searches > 0 {
		stats.Search.AvgLatencyMs = float64(atomic.LoadInt64(&m.searchLatencyMs)) / float64(searches)
		stats.Search.AvgResults = float64(atomic.LoadInt64(&m.resultsTotal)) / float64(searches)
	}

	return stats
}

func (m *Metrics) serviceStats(calls, errs *int64) ServiceStats {
	c := atomic.LoadInt64(calls)
	e := atomic.LoadInt64(errs)

	s := ServiceStats{CallsTotal: c, ErrorsTotal: e}
	if c > 0 {
		s.ErrorRate = float64(e) / float64(c)
	}
	return s
}
