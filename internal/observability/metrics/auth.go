// Package metrics records authentication outcomes to Prometheus and StatsD.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/observability/statsd"
	"github.com/target/secretshare/internal/ports"
)

const namespace = "secretshare"

// Prometheus implements ports.AuthMetrics with counters and a hashing histogram.
type Prometheus struct {
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	restores      *prometheus.CounterVec
	hashDuration  *prometheus.HistogramVec
}

var _ ports.AuthMetrics = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Local registrations by outcome.",
		}, []string{"outcome"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_restores_total",
			Help:      "Session restore attempts by outcome.",
		}, []string{"outcome"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "password_hash_duration_seconds",
			Help:      "Time spent in bcrypt hash and verify.",
			// bcrypt at cost 10 sits around 50-100ms.
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
	}
	reg.MustRegister(p.logins, p.registrations, p.restores, p.hashDuration)
	return p
}

func (p *Prometheus) LoginAttempt(method domainauth.Method, outcome string) {
	p.logins.WithLabelValues(string(method), outcome).Inc()
}

func (p *Prometheus) Registration(outcome string) {
	p.registrations.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) HashDuration(op string, d time.Duration) {
	p.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (p *Prometheus) SessionRestore(outcome string) {
	p.restores.WithLabelValues(outcome).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// StatsD implements ports.AuthMetrics on top of a statsd.Sink.
type StatsD struct {
	Sink statsd.Sink
}

var _ ports.AuthMetrics = StatsD{}

func (s StatsD) LoginAttempt(method domainauth.Method, outcome string) {
	s.count("auth.login", map[string]string{"method": string(method), "outcome": outcome})
}

func (s StatsD) Registration(outcome string) {
	s.count("auth.register", map[string]string{"outcome": outcome})
}

func (s StatsD) HashDuration(op string, d time.Duration) {
	if s.Sink == nil {
		return
	}
	s.Sink.Timing("auth.password_hash", d, map[string]string{"op": op})
}

func (s StatsD) SessionRestore(outcome string) {
	s.count("auth.session_restore", map[string]string{"outcome": outcome})
}

func (s StatsD) count(name string, tags map[string]string) {
	if s.Sink == nil {
		return
	}
	s.Sink.Count(name, 1, tags)
}

// Multi fans every measurement out to each recorder.
type Multi []ports.AuthMetrics

var _ ports.AuthMetrics = Multi(nil)

func (m Multi) LoginAttempt(method domainauth.Method, outcome string) {
	for _, r := range m {
		r.LoginAttempt(method, outcome)
	}
}

func (m Multi) Registration(outcome string) {
	for _, r := range m {
		r.Registration(outcome)
	}
}

func (m Multi) HashDuration(op string, d time.Duration) {
	for _, r := range m {
		r.HashDuration(op, d)
	}
}

func (m Multi) SessionRestore(outcome string) {
	for _, r := range m {
		r.SessionRestore(outcome)
	}
}
