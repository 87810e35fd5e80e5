package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors covering the HTTP surface and
// the relay pipeline.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	messagesReceivedTotal prometheus.Counter
	messagesSentTotal     prometheus.Counter
	messagesSkippedTotal  prometheus.Counter
	sendFailuresTotal     *prometheus.CounterVec
	sinkFailuresTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "whatsapp_relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		messagesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "whatsapp_relay",
				Name:      "messages_received_total",
				Help:      "Total number of inbound messages persisted.",
			},
		),
		messagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "whatsapp_relay",
				Name:      "messages_sent_total",
				Help:      "Total number of outbound messages delivered to the provider.",
			},
		),
		messagesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "whatsapp_relay",
				Name:      "messages_skipped_total",
				Help:      "Total number of inbound elements skipped for missing identity fields.",
			},
		),
		sendFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_relay",
				Name:      "send_failures_total",
				Help:      "Total number of outbound sends that failed, by reason.",
			},
			[]string{"reason"},
		),
		sinkFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_relay",
				Name:      "sink_failures_total",
				Help:      "Total number of persistence failures, by pipeline direction.",
			},
			[]string{"direction"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.messagesReceivedTotal,
		m.messagesSentTotal,
		m.messagesSkippedTotal,
		m.sendFailuresTotal,
		m.sinkFailuresTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncMessageReceived() {
	if m == nil {
		return
	}
	m.messagesReceivedTotal.Inc()
}

func (m *Metrics) IncMessageSent() {
	if m == nil {
		return
	}
	m.messagesSentTotal.Inc()
}

func (m *Metrics) IncMessageSkipped() {
	if m == nil {
		return
	}
	m.messagesSkippedTotal.Inc()
}

func (m *Metrics) IncSendFailure(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.sendFailuresTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) IncSinkFailure(direction string) {
	if m == nil {
		return
	}
	directionLabel := strings.TrimSpace(strings.ToLower(direction))
	if directionLabel == "" {
		directionLabel = "unknown"
	}
	m.sinkFailuresTotal.WithLabelValues(directionLabel).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
