package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/sirupsen/logrus"
)

// SlowRequestThreshold 超过该耗时的请求以 warn 级别记录。
const SlowRequestThreshold = 2 * time.Second

// LatencyRecorder 以微秒精度累积请求耗时。
type LatencyRecorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewLatencyRecorder tracks latencies from 1µs up to 60s with 3 significant digits.
func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{hist: hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)}
}

func (l *LatencyRecorder) Record(d time.Duration) {
	v := d.Microseconds()
	if v < 1 {
		v = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// 超出范围的值会返回错误，直接丢弃
	_ = l.hist.RecordValue(v)
}

// LatencySnapshot 是 /debug/latency 返回的摘要。
type LatencySnapshot struct {
	Count int64         `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

func (l *LatencyRecorder) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencySnapshot{
		Count: l.hist.TotalCount(),
		Mean:  us(int64(l.hist.Mean())),
		P50:   us(l.hist.ValueAtQuantile(50)),
		P95:   us(l.hist.ValueAtQuantile(95)),
		P99:   us(l.hist.ValueAtQuantile(99)),
		Max:   us(l.hist.Max()),
	}
}

// Handler 以 JSON 返回当前的延迟分布。
func (l *LatencyRecorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(l.Snapshot())
	})
}

// RequestTimer 记录每个请求的耗时，并把它写入 recorder（可为 nil）。
func RequestTimer(logger *logrus.Logger, recorder *LatencyRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			if recorder != nil {
				recorder.Record(duration)
			}

			entry := logger.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    rec.status,
				"duration":  duration.String(),
				"remote_ip": r.RemoteAddr,
			})
			if duration > SlowRequestThreshold {
				entry.Warn("Slow request detected")
			} else {
				entry.Debug("Request completed")
			}
		})
	}
}
