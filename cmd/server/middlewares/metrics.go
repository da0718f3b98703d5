package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsPath = "/metrics"

// normalizeRoutePath returns the route template (e.g. "/notes/:id") so path
// labels stay bounded. Unmatched requests fall back to the raw path.
func normalizeRoutePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil {
		return route.Path
	}
	return c.Path()
}

// normalizeStatus collapses a status to its class, e.g. 404 -> "4xx".
func normalizeStatus(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}

// AttachMetrics registers the request collectors on reg and serves reg at
// /metrics. reg is shared with the other collectors of the process, such as
// the reminder sweeper and the notes hub. Scrapes are not counted.
func AttachMetrics(app *fiber.App, reg *prometheus.Registry) {
	factory := promauto.With(reg)

	reqDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	reqTotal := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	inFlight := factory.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being served",
	})

	app.Use(func(c *fiber.Ctx) error {
		if c.Path() == metricsPath {
			return c.Next()
		}

		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		err := c.Next()

		labels := prometheus.Labels{
			"method": c.Method(),
			"path":   normalizeRoutePath(c),
			"status": normalizeStatus(c.Response().StatusCode()),
		}
		reqDuration.With(labels).Observe(time.Since(start).Seconds())
		reqTotal.With(labels).Inc()
		return err
	})

	app.Get(metricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
}
