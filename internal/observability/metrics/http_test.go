package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AgentKit-Chain/internal/invocation"
)

func TestCollectorRendersHTTPSeries(t *testing.T) {
	c := New()
	c.ObserveHTTPRequest("/api/v1/tools", "GET", 200, 30*time.Millisecond)
	c.ObserveHTTPRequest("/api/v1/tools", "GET", 200, 2*time.Second)
	c.ObserveHTTPRequest("/api/v1/actions", "POST", 502, 20*time.Second)

	out := c.render()
	for _, want := range []string{
		`agentkit_http_requests_total{handler="/api/v1/tools",method="GET",code="200"} 2`,
		`agentkit_http_request_errors_total{handler="/api/v1/actions",method="POST"} 1`,
		`agentkit_http_request_duration_seconds_bucket{handler="/api/v1/tools",method="GET",le="0.05"} 1`,
		`agentkit_http_request_duration_seconds_bucket{handler="/api/v1/tools",method="GET",le="2.5"} 2`,
		`agentkit_http_request_duration_seconds_bucket{handler="/api/v1/actions",method="POST",le="10"} 0`,
		`agentkit_http_request_duration_seconds_count{handler="/api/v1/actions",method="POST"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCollectorRecordsInvocations(t *testing.T) {
	c := New()
	_ = c.Record(context.Background(), invocation.Record{
		Kind: invocation.KindTool, Name: "flash_open_trade", Status: invocation.StatusSuccess, Duration: 10 * time.Millisecond,
	})
	_ = c.Record(context.Background(), invocation.Record{
		Kind: invocation.KindTool, Name: "flash_open_trade", Status: invocation.StatusError,
		ErrorCode: "VALIDATION_FAILED", Duration: time.Millisecond,
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	for _, want := range []string{
		`agentkit_invocations_total{kind="tool",name="flash_open_trade",status="success"} 1`,
		`agentkit_invocations_total{kind="tool",name="flash_open_trade",status="error"} 1`,
		`agentkit_invocation_errors_total{kind="tool",name="flash_open_trade",code="VALIDATION_FAILED"} 1`,
		`agentkit_invocation_duration_seconds_count{kind="tool",name="flash_open_trade"} 2`,
		"# TYPE agentkit_invocation_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestEscapeLabels(t *testing.T) {
	if got := labels("name", "a\"b\\c\n"); got != `name="a\"b\\c\n"` {
		t.Fatalf("unexpected escaped labels %s", got)
	}
}

func TestStartServerRequiresAddress(t *testing.T) {
	if err := New().StartServer(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestStartServerServesUntilCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	collector := New()
	collector.ObserveHTTPRequest("/api/v1/tools", "GET", 200, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- collector.StartServer(ctx, addr) }()

	var body string
	for i := 0; i < 50; i++ {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(data)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(body, `handler="/api/v1/tools"`) {
		t.Fatalf("expected http series from standalone server, got:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
