package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/internal/kit"
	"AgentKit-Chain/internal/kit/kittest"
	"AgentKit-Chain/internal/observability/metrics"
)

const testConfig = `
logging:
  level: error
  outputs: [stderr]
kits:
  devnet:
    endpoint: http://127.0.0.1:0
journal:
  driver: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRoot(fake *kittest.Fake) *cobra.Command {
	return NewRootCmd("test", Options{
		Dialer: func(context.Context, string, config.KitConfig) (kit.Kit, error) {
			return fake, nil
		},
		Metrics: metrics.New(),
	})
}

func executeCommand(root *cobra.Command, stdin string, args ...string) (stdout string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return outBuf.String(), err
}

func TestToolsList(t *testing.T) {
	path := writeConfig(t, testConfig)
	out, err := executeCommand(newTestRoot(&kittest.Fake{}), "", "--config", path, "tools", "list")
	if err != nil {
		t.Fatalf("tools list: %v", err)
	}
	for _, name := range []string{"solana_request_funds", "flash_open_trade", "flash_close_trade"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}

func TestToolsCall(t *testing.T) {
	path := writeConfig(t, testConfig)
	fake := &kittest.Fake{}

	out, err := executeCommand(newTestRoot(fake), "", "--config", path, "tools", "call", "solana_request_funds")
	if err != nil {
		t.Fatalf("tools call: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if env["status"] != "success" || env["result"] != "faucet-signature" {
		t.Fatalf("unexpected envelope: %v", env)
	}
	if !fake.Closed() {
		t.Fatal("kit should be closed after the command")
	}
}

func TestToolsCallReadsStdin(t *testing.T) {
	path := writeConfig(t, testConfig)
	out, err := executeCommand(newTestRoot(&kittest.Fake{}), `{"token":"SOL","side":"short"}`,
		"--config", path, "tools", "call", "flash_close_trade", "-")
	if err != nil {
		t.Fatalf("tools call: %v", err)
	}
	if !strings.Contains(out, `"message":"Success"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestToolsCallErrorEnvelopeExitCode(t *testing.T) {
	path := writeConfig(t, testConfig)
	out, err := executeCommand(newTestRoot(&kittest.Fake{}), "", "--config", path, "tools", "call", "flash_close_trade", `{"token":"SOL"}`)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitToolError {
		t.Fatalf("expected tool error exit, got %v", err)
	}
	if !strings.Contains(out, "missing required field: side") {
		t.Fatalf("envelope should still be printed, got %s", out)
	}

	_, err = executeCommand(newTestRoot(&kittest.Fake{}), "", "--config", path, "tools", "call", "transfer")
	if !errors.As(err, &exitErr) || exitErr.Code != exitNotFound {
		t.Fatalf("expected not found exit, got %v", err)
	}
}

func TestActionsCall(t *testing.T) {
	path := writeConfig(t, testConfig)
	var gotID int
	fake := &kittest.Fake{InferenceFn: func(_ context.Context, id int) (*kit.Inference, error) {
		gotID = id
		return &kit.Inference{Signature: "0xtopic"}, nil
	}}

	out, err := executeCommand(newTestRoot(fake), "", "--config", path, "actions", "call", "GET_INFERENCE_BY_TOPIC_ID", `{"topic_id":7}`)
	if err != nil {
		t.Fatalf("actions call: %v", err)
	}
	if gotID != 7 || !strings.Contains(out, `"signature": "0xtopic"`) {
		t.Fatalf("unexpected output (topic %d): %s", gotID, out)
	}
}

func TestActionsCallExitCodes(t *testing.T) {
	path := writeConfig(t, testConfig)
	cases := []struct {
		args []string
		code int
	}{
		{[]string{"actions", "call", "SWAP"}, exitNotFound},
		{[]string{"actions", "call", "GET_PRICE_PREDICTION", `{"asset":"DOGE","timeframe":"FIVE_MINUTES"}`}, exitValidation},
		{[]string{"actions", "call", "GET_ALL_TOPICS", `not-json`}, exitValidation},
	}
	for _, tc := range cases {
		_, err := executeCommand(newTestRoot(&kittest.Fake{}), "", append([]string{"--config", path}, tc.args...)...)
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != tc.code {
			t.Fatalf("%v: expected exit %d, got %v", tc.args, tc.code, err)
		}
	}
}

func TestActionsList(t *testing.T) {
	path := writeConfig(t, testConfig)
	out, err := executeCommand(newTestRoot(&kittest.Fake{}), "", "--config", path, "actions", "list")
	if err != nil {
		t.Fatalf("actions list: %v", err)
	}
	if !strings.Contains(out, "GET_PRICE_PREDICTION") || !strings.Contains(out, "[asset timeframe signature_format]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestMissingConfigExitCode(t *testing.T) {
	_, err := executeCommand(newTestRoot(&kittest.Fake{}), "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "tools", "list")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitConfig {
		t.Fatalf("expected config exit, got %v", err)
	}
}

func TestBuildWithoutKits(t *testing.T) {
	cfg, err := config.Parse([]byte("journal:\n  driver: none\n"), t.TempDir())
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	app, err := Build(context.Background(), cfg, Options{Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() {
		if err := app.Close(context.Background()); err != nil {
			t.Errorf("close app: %v", err)
		}
	})

	if app.Lister() != nil {
		t.Fatal("none driver should not be listable")
	}
	if len(app.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(app.Tools))
	}
	env := app.Tools[0].Run(context.Background(), "")
	if env.Succeeded() {
		t.Fatal("tools without a kit should fail")
	}
}
