package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

const namespace = "photoshoot"

// Metrics は生成結果とHTTPリクエストの Prometheus メトリクスです。
// 専用のレジストリを持つため、複数インスタンスを作っても衝突しません。
type Metrics struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

var _ studio.Observer = (*Metrics)(nil)

// NewMetrics はメトリクスを作成し、レジストリに登録します。
// sessions が nil でなければ保持中のセッション数をゲージとして公開します。
func NewMetrics(sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of completed generation attempts",
			},
			[]string{"slot", "outcome"}, // outcome: success または ErrorKind
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of generation attempts in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"slot"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.generationsTotal,
		m.generationDuration,
		m.httpRequestsTotal,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of sessions currently held in memory",
			},
			func() float64 { return float64(sessions()) },
		))
	}
	return m
}

// ObserveGeneration は studio.Observer の実装です。
func (m *Metrics) ObserveGeneration(slot studio.Slot, kind domain.ErrorKind, elapsed time.Duration) {
	outcome := "success"
	if kind != domain.KindNone {
		outcome = string(kind)
	}
	m.generationsTotal.WithLabelValues(string(slot), outcome).Inc()
	// 通信前に弾いた入力不足は所要時間に含めない
	if kind != domain.KindMissingInput {
		m.generationDuration.WithLabelValues(string(slot)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler は /metrics 用のハンドラを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
