package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"AgentKit-Chain/internal/invocation"
)

const namespace = "agentkit"

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type family struct {
	name string
	help string
	kind string
}

var (
	httpRequests      = family{"http_requests_total", "Total number of HTTP requests processed.", "counter"}
	httpErrors        = family{"http_request_errors_total", "Total number of HTTP requests that resulted in a server error.", "counter"}
	httpLatency       = family{"http_request_duration_seconds", "HTTP request duration in seconds.", "histogram"}
	invocationsTotal  = family{"invocations_total", "Total number of tool and action invocations.", "counter"}
	invocationErrors  = family{"invocation_errors_total", "Total number of failed invocations by error code.", "counter"}
	invocationLatency = family{"invocation_duration_seconds", "Invocation duration in seconds.", "histogram"}
)

// Collector 以 Prometheus 文本格式汇总 HTTP 与调用指标。
type Collector struct {
	mu         sync.Mutex
	counters   map[family]map[string]uint64
	histograms map[family]map[string]*histogram
}

// New 创建空的 Collector。
func New() *Collector {
	return &Collector{
		counters:   make(map[family]map[string]uint64),
		histograms: make(map[family]map[string]*histogram),
	}
}

// Default 是进程级共享的 Collector。
var Default = New()

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func (c *Collector) ObserveHTTPRequest(handler, method string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inc(httpRequests, labels("handler", handler, "method", method, "code", strconv.Itoa(status)))
	if status >= 500 {
		c.inc(httpErrors, labels("handler", handler, "method", method))
	}
	c.observe(httpLatency, labels("handler", handler, "method", method), duration.Seconds())
}

// Record 实现 invocation.Recorder，统计调用次数、错误码与耗时。
func (c *Collector) Record(_ context.Context, rec invocation.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind, name := string(rec.Kind), rec.Name
	c.inc(invocationsTotal, labels("kind", kind, "name", name, "status", string(rec.Status)))
	if rec.Status == invocation.StatusError {
		c.inc(invocationErrors, labels("kind", kind, "name", name, "code", rec.ErrorCode))
	}
	c.observe(invocationLatency, labels("kind", kind, "name", name), rec.Duration.Seconds())
	return nil
}

func (c *Collector) inc(f family, key string) {
	series := c.counters[f]
	if series == nil {
		series = make(map[string]uint64)
		c.counters[f] = series
	}
	series[key]++
}

func (c *Collector) observe(f family, key string, value float64) {
	series := c.histograms[f]
	if series == nil {
		series = make(map[string]*histogram)
		c.histograms[f] = series
	}
	hist := series[key]
	if hist == nil {
		hist = newHistogram()
		series[key] = hist
	}
	hist.observe(value)
}

func newHistogram() *histogram {
	buckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// observe 更新累计桶；超过最后一个桶的值只计入 +Inf（即 count）。
func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range h.buckets {
		if value <= bound {
			for i := idx; i < len(h.counts); i++ {
				h.counts[i]++
			}
			return
		}
	}
}

// Handler exposes the metrics in Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, c.render())
	})
}

func (c *Collector) render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var builder strings.Builder
	builder.Grow(2048)

	for _, f := range []family{httpRequests, httpErrors, invocationsTotal, invocationErrors} {
		writeHeader(&builder, f)
		series := c.counters[f]
		for _, key := range sortedKeys(series) {
			fmt.Fprintf(&builder, "%s_%s{%s} %d\n", namespace, f.name, key, series[key])
		}
	}

	for _, f := range []family{httpLatency, invocationLatency} {
		writeHeader(&builder, f)
		series := c.histograms[f]
		for _, key := range sortedKeys(series) {
			hist := series[key]
			for idx, bound := range hist.buckets {
				fmt.Fprintf(&builder, "%s_%s_bucket{%s,le=\"%s\"} %d\n", namespace, f.name, key, formatFloat(bound), hist.counts[idx])
			}
			fmt.Fprintf(&builder, "%s_%s_bucket{%s,le=\"+Inf\"} %d\n", namespace, f.name, key, hist.count)
			fmt.Fprintf(&builder, "%s_%s_sum{%s} %s\n", namespace, f.name, key, formatFloat(hist.sum))
			fmt.Fprintf(&builder, "%s_%s_count{%s} %d\n", namespace, f.name, key, hist.count)
		}
	}
	return builder.String()
}

func writeHeader(builder *strings.Builder, f family) {
	fmt.Fprintf(builder, "# HELP %s_%s %s\n", namespace, f.name, f.help)
	fmt.Fprintf(builder, "# TYPE %s_%s %s\n", namespace, f.name, f.kind)
}

// labels renders name/value pairs as a Prometheus label set.
func labels(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", pairs[i], escape(pairs[i+1])))
	}
	return strings.Join(parts, ",")
}

func sortedKeys[V any](series map[string]V) []string {
	keys := make([]string, 0, len(series))
	for key := range series {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func escape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "\n", `\n`)
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// StartServer launches a standalone HTTP server exposing the /metrics endpoint.
func (c *Collector) StartServer(ctx context.Context, addr string) error {
	if addr == "" {
		return errors.New("metrics address is empty")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}
