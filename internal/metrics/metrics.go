// Package metrics records what a run did so it can be picked up by the
// node_exporter textfile collector after the helper exits.
package metrics

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salt_ha"

const (
	OutcomeOK           = "ok"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Steps     *prometheus.CounterVec
	LastRun   prometheus.Gauge
	RunStatus *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests sent to salt-api, the companion service and the metadata endpoint.",
		}, []string{"host", "path", "outcome"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests that got a response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host", "path"}),
		Steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Workflow steps by outcome.",
		}, []string{"step", "outcome"}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
		RunStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run of a function succeeded, 0 otherwise.",
		}, []string{"function"}),
	}
}

// Registry returns the registry every metric of the run is registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument hooks request accounting into a resty client.
func (m *Metrics) Instrument(r *resty.Client) {
	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		host, path := split(resp.Request.URL)
		outcome := OutcomeOK
		if resp.StatusCode() != 200 {
			outcome = OutcomeHTTPError
		}
		m.Requests.WithLabelValues(host, path, outcome).Inc()
		m.Latency.WithLabelValues(host, path).Observe(resp.Time().Seconds())
		return nil
	})
	r.OnError(func(req *resty.Request, _ error) {
		host, path := split(req.URL)
		m.Requests.WithLabelValues(host, path, OutcomeNetworkError).Inc()
	})
}

// ObserveStep counts a workflow step.
func (m *Metrics) ObserveStep(step string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Steps.WithLabelValues(step, outcome).Inc()
}

// Finish records the outcome of a whole run.
func (m *Metrics) Finish(function string, err error) {
	m.LastRun.Set(float64(time.Now().Unix()))
	if err != nil {
		m.RunStatus.WithLabelValues(function).Set(0)
		return
	}
	m.RunStatus.WithLabelValues(function).Set(1)
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	slog.Debug("writing metrics", "path", path)
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WithMessage(err, "could not write metrics")
	}
	return nil
}

func split(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}
