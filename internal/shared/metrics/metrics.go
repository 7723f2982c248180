package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

type counter struct {
	name  string
	help  string
	value atomic.Uint64
}

var (
	attemptStartedTotal     = &counter{name: "resume_attempt_started_total", help: "Total pipeline attempts started"}
	attemptFailedTotal      = &counter{name: "resume_attempt_failed_total", help: "Total pipeline attempts failed"}
	analysisCompletedTotal  = &counter{name: "resume_analysis_completed_total", help: "Total analyses completed"}
	analysisFailedTotal     = &counter{name: "resume_analysis_failed_total", help: "Total analyses failed after retry"}
	inferenceRetryTotal     = &counter{name: "resume_inference_retry_total", help: "Total inline inference retries"}
	attemptRetryTotal       = &counter{name: "resume_attempt_retry_total", help: "Total whole-pipeline retries"}
	recordDeletedTotal      = &counter{name: "resume_record_deleted_total", help: "Total records deleted"}
	blobDeleteFailedTotal   = &counter{name: "resume_blob_delete_failed_total", help: "Total blob deletions that failed during record removal"}
	viewHandleReleasedTotal = &counter{name: "resume_view_handle_released_total", help: "Total view handles released"}

	counters = []*counter{
		attemptStartedTotal,
		attemptFailedTotal,
		analysisCompletedTotal,
		analysisFailedTotal,
		inferenceRetryTotal,
		attemptRetryTotal,
		recordDeletedTotal,
		blobDeleteFailedTotal,
		viewHandleReleasedTotal,
	}

	analysisDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 15000, 30000, 45000, 60000, 120000})
)

// IncAttemptStarted increments the pipeline attempt counter.
func IncAttemptStarted() { attemptStartedTotal.value.Add(1) }

// IncAttemptFailed increments the failed attempt counter.
func IncAttemptFailed() { attemptFailedTotal.value.Add(1) }

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() { analysisCompletedTotal.value.Add(1) }

// IncAnalysisFailed increments the terminal failure counter.
func IncAnalysisFailed() { analysisFailedTotal.value.Add(1) }

func IncInferenceRetry() { inferenceRetryTotal.value.Add(1) }

func IncAttemptRetry() { attemptRetryTotal.value.Add(1) }

func IncRecordDeleted() { recordDeletedTotal.value.Add(1) }

func IncBlobDeleteFailed() { blobDeleteFailedTotal.value.Add(1) }

// AddViewHandlesReleased counts released view handles.
func AddViewHandlesReleased(n int) {
	if n > 0 {
		viewHandleReleasedTotal.value.Add(uint64(n))
	}
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	for _, ctr := range counters {
		writeCounter(&buf, ctr.name, ctr.help, ctr.value.Load())
	}
	writeHistogram(&buf, "resume_analysis_duration_ms", "Analysis duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value into the first bucket whose bound admits it; Render
// accumulates the buckets.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed milliseconds since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
