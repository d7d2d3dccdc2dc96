package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	HTTPDuration  *prometheus.HistogramVec
	Orders        *prometheus.CounterVec
	OrderDuration *prometheus.HistogramVec
	OrdersActive  prometheus.Gauge
	LineItems     prometheus.Histogram
}

// New builds a private registry with process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request duration in ms",
			Buckets: []float64{50, 100, 200, 500, 1000},
		}, []string{"method", "route", "status_code"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_total",
			Help:      "Order placements by outcome.",
		}, []string{"outcome"}),
		OrderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "order_duration_ms",
			Help:      "Order placement latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"outcome"}),
		OrdersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "orders_in_flight",
			Help:      "Order placements currently running.",
		}),
		LineItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "order_line_items",
			Help:      "Line items per order request.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPDuration, m.Orders, m.OrderDuration, m.OrdersActive, m.LineItems,
	)
	return m
}

func (m *Metrics) OrderStarted(lineItems int) {
	m.OrdersActive.Inc()
	m.LineItems.Observe(float64(lineItems))
}

func (m *Metrics) OrderFinished(outcome string, elapsed time.Duration) {
	m.OrdersActive.Dec()
	m.Orders.WithLabelValues(outcome).Inc()
	m.OrderDuration.WithLabelValues(outcome).Observe(float64(elapsed) / float64(time.Millisecond))
}

// Middleware records request latency labelled by the matched route. Chain
// errors go through the app's ErrorHandler first so the final status is recorded.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := strconv.Itoa(c.Response().StatusCode())
		m.HTTPDuration.WithLabelValues(c.Method(), route, status).
			Observe(float64(time.Since(start)) / float64(time.Millisecond))
		return nil
	}
}

func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg}))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
