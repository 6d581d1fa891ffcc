package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 帧循环指标
	framesTotal   prometheus.Counter
	framesSkipped prometheus.Counter
	frameDuration prometheus.Histogram
	passDuration  *prometheus.HistogramVec

	// 合成流指标
	tradesTotal    prometheus.Counter
	markersTotal   prometheus.Counter
	recentersTotal prometheus.Counter

	// 状态指标
	historyLen prometheus.Gauge
	cumDelta   prometheus.Gauge
	lastPrice  prometheus.Gauge

	// 服务指标
	wsClients prometheus.Gauge
	wsFrames  prometheus.Counter
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "ofv",
		Subsystem: "engine",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "frames_total",
			Help:      "渲染帧总数",
		}),
		framesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "frames_skipped_total",
			Help:      "暂停期间跳过更新的帧数",
		}),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "frame_duration_seconds",
			Help:      "单帧 update+render 耗时分布（秒）",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "render_pass_duration_seconds",
			Help:      "各渲染 pass 耗时分布（秒）",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		}, []string{"pass"}),

		tradesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trades_synthesized_total",
			Help:      "合成成交总数",
		}),
		markersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "markers_total",
			Help:      "生成的流动性标记总数",
		}),
		recentersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ladder_recenters_total",
			Help:      "梯子整体重建次数",
		}),

		historyLen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "history_len",
			Help:      "历史缓冲当前样本数",
		}),
		cumDelta: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cum_delta",
			Help:      "会话累计 delta",
		}),
		lastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_price",
			Help:      "最近一次行情价",
		}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_clients",
			Help:      "当前 websocket 客户端数",
		}),
		wsFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_frames_total",
			Help:      "推送给客户端的帧批次总数",
		}),
	}
	return m
}

// RecordFrame 记录一帧及其耗时。
func (m *Monitor) RecordFrame(seconds float64) {
	m.framesTotal.Inc()
	m.frameDuration.Observe(seconds)
}

// RecordSkippedFrame 记录一帧被暂停跳过。
func (m *Monitor) RecordSkippedFrame() { m.framesSkipped.Inc() }

// RecordPass 记录某个渲染 pass 的耗时。
func (m *Monitor) RecordPass(pass string, seconds float64) {
	m.passDuration.WithLabelValues(pass).Observe(seconds)
}

// RecordTrades 记录本 tick 合成的成交数。
func (m *Monitor) RecordTrades(n int) { m.tradesTotal.Add(float64(n)) }

// RecordMarker 记录一个标记。
func (m *Monitor) RecordMarker() { m.markersTotal.Inc() }

// RecordRecenter 记录一次梯子重建。
func (m *Monitor) RecordRecenter() { m.recentersTotal.Inc() }

// SetHistoryLen 更新历史缓冲长度。
func (m *Monitor) SetHistoryLen(n int) { m.historyLen.Set(float64(n)) }

// SetCumDelta 更新累计 delta。
func (m *Monitor) SetCumDelta(v float64) { m.cumDelta.Set(v) }

// SetLastPrice 更新最近行情价。
func (m *Monitor) SetLastPrice(p float64) { m.lastPrice.Set(p) }

// SetWSClients 更新 websocket 客户端数。
func (m *Monitor) SetWSClients(n int) { m.wsClients.Set(float64(n)) }

// RecordWSFrame 记录一次帧批次推送。
func (m *Monitor) RecordWSFrame() { m.wsFrames.Inc() }

// Handler 返回 /metrics 的 HTTP handler。
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
