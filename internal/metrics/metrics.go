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
// ルートガード、テナントバインダー、ハンドラー層から利用する。
type MetricsCollector interface {
	RecordGuardDecision(decision string)
	RecordBindOutcome(outcome string)
	RecordLogin(result string)
	RecordPolicyDenial(action string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	guardDecisions *prometheus.CounterVec
	bindOutcomes   *prometheus.CounterVec
	logins         *prometheus.CounterVec
	policyDenials  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantnotes_guard_decisions_total",
			Help: "ルートガードの判定結果別の件数",
		}, []string{"decision"}),
		bindOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantnotes_tenant_bind_total",
			Help: "テナントバインドの結果別の件数",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantnotes_login_total",
			Help: "ログイン試行の結果別の件数",
		}, []string{"result"}),
		policyDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantnotes_policy_denials_total",
			Help: "認可ポリシーで拒否された操作の件数",
		}, []string{"action"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantnotes_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tenantnotes_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.guardDecisions,
		c.bindOutcomes,
		c.logins,
		c.policyDenials,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordGuardDecision はルートガードの判定を記録する。
func (c *Collector) RecordGuardDecision(decision string) {
	c.guardDecisions.WithLabelValues(decision).Inc()
}

// RecordBindOutcome はテナントバインドの結果を記録する。
func (c *Collector) RecordBindOutcome(outcome string) {
	c.bindOutcomes.WithLabelValues(outcome).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordPolicyDenial は認可ポリシーによる拒否を記録する。
func (c *Collector) RecordPolicyDenial(action string) {
	c.policyDenials.WithLabelValues(action).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
