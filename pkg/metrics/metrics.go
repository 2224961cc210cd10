// Package metrics は Prometheus 向けのセッション計測を提供します。
// nil の *Metrics に対する呼び出しはすべて何もしません。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cinematix"

// 結果ラベル
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
)

// Metrics はオーケストレーター・動画ポーラー・ライブセッションの計測器をまとめたものです。
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inflight        *prometheus.GaugeVec
	videoPolls      prometheus.Counter
	liveChunks      prometheus.Counter
	liveActive      prometheus.Gauge
}

// New は計測器を作成して reg に登録します。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of submitted requests by slot",
			},
			[]string{"slot", "status"}, // status: success, error, rejected
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of remote generation requests in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"slot"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inflight",
				Help:      "Whether a request is pending in the slot (0 or 1)",
			},
			[]string{"slot"},
		),
		videoPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_polls_total",
			Help:      "Total number of video operation status polls",
		}),
		liveChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_audio_chunks_total",
			Help:      "Total number of audio chunks scheduled for playback",
		}),
		liveActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions_active",
			Help:      "Number of open live sessions",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.inflight, m.videoPolls, m.liveChunks, m.liveActive)
	return m
}

// Begin はスロットの処理開始を記録し、終了時に呼ぶ関数を返します。
func (m *Metrics) Begin(slot string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.inflight.WithLabelValues(slot).Set(1)
	return func(status string) {
		m.inflight.WithLabelValues(slot).Set(0)
		m.requestDuration.WithLabelValues(slot).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(slot, status).Inc()
	}
}

// Rejected は処理中スロットへの投入拒否を記録します。
func (m *Metrics) Rejected(slot string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(slot, StatusRejected).Inc()
}

// VideoPolled は動画オペレーションの状態確認1回を記録します。
func (m *Metrics) VideoPolled() {
	if m == nil {
		return
	}
	m.videoPolls.Inc()
}

// LiveChunk は再生スケジュールに載せた音声チャンク1つを記録します。
func (m *Metrics) LiveChunk() {
	if m == nil {
		return
	}
	m.liveChunks.Inc()
}

// LiveOpened / LiveClosed はライブセッション数を増減します。
func (m *Metrics) LiveOpened() {
	if m == nil {
		return
	}
	m.liveActive.Inc()
}

func (m *Metrics) LiveClosed() {
	if m == nil {
		return
	}
	m.liveActive.Dec()
}
