// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ゲートやイベント層、ハンドラーから利用する。
type MetricsCollector interface {
	RecordAuthDecision(outcome string)
	RecordRevocation()
	RecordEventPublished(subject string)
	RecordEventConsumed(subject string)
	RecordApplyFailure(subject string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authDecisions  *prometheus.CounterVec
	revocations    prometheus.Counter
	published      *prometheus.CounterVec
	consumed       *prometheus.CounterVec
	applyFailures  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichiba_auth_decisions_total",
			Help: "認可判定の結果別合計数",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ichiba_token_revocations_total",
			Help: "トークン失効登録の合計数",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichiba_events_published_total",
			Help: "発行されたイベントのサブジェクト別合計数",
		}, []string{"subject"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichiba_events_consumed_total",
			Help: "適用されたイベントのサブジェクト別合計数",
		}, []string{"subject"}),
		applyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichiba_event_apply_failures_total",
			Help: "イベント適用失敗のサブジェクト別合計数",
		}, []string{"subject"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ichiba_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ichiba_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authDecisions,
		c.revocations,
		c.published,
		c.consumed,
		c.applyFailures,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordAuthDecision は認可判定の結果を記録する。
// outcomeは"allow"または拒否理由コード。
func (c *Collector) RecordAuthDecision(outcome string) {
	c.authDecisions.WithLabelValues(outcome).Inc()
}

// RecordRevocation はトークン失効登録を記録する。
func (c *Collector) RecordRevocation() {
	c.revocations.Inc()
}

// RecordEventPublished はイベント発行を記録する。
func (c *Collector) RecordEventPublished(subject string) {
	c.published.WithLabelValues(subject).Inc()
}

// RecordEventConsumed はイベント適用成功を記録する。
func (c *Collector) RecordEventConsumed(subject string) {
	c.consumed.WithLabelValues(subject).Inc()
}

// RecordApplyFailure はイベント適用失敗を記録する。
func (c *Collector) RecordApplyFailure(subject string) {
	c.applyFailures.WithLabelValues(subject).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
