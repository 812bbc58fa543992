package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey-austin/simplert/internal/adapters/mqttserver"
	"github.com/mikey-austin/simplert/internal/rtd"
)

type nopTransport struct{}

func (nopTransport) Publish(string, byte, bool, []byte) error         { return nil }
func (nopTransport) Subscribe(string, byte, mqttserver.Handler) error { return nil }
func (nopTransport) Unsubscribe(string) error                         { return nil }

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-broker", "mqtt://b:1883", "-module", "console_host", "-dry-run"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.broker != "mqtt://b:1883" || opts.moduleOnly != moduleConsoleHost || !opts.dryRun {
		t.Fatalf("unexpected options %+v", opts)
	}
	if _, err := parseFlags([]string{"-module", "speaker"}); err == nil {
		t.Fatalf("expected unknown module error")
	}
}

func TestApplyOverridesDefaults(t *testing.T) {
	cfg := rtd.Config{}
	cfg.Modules.EmbeddedMQTT.Enabled = true
	cfg.Modules.EmbeddedMQTT.Listen = "0.0.0.0:1884"
	applyOverrides(&cfg, options{identity: "lab"})

	if cfg.Server.TopicBase != "rt/v1" {
		t.Fatalf("expected default topic base, got %q", cfg.Server.TopicBase)
	}
	if cfg.Modules.ConsoleHost.NodeID != "rt:console:lab" {
		t.Fatalf("unexpected node id %q", cfg.Modules.ConsoleHost.NodeID)
	}
	if cfg.Server.Broker != "mqtt://127.0.0.1:1884" {
		t.Fatalf("expected embedded broker url, got %q", cfg.Server.Broker)
	}

	applyOverrides(&cfg, options{broker: "mqtt://remote:1883", logUTC: true})
	if cfg.Server.Broker != "mqtt://remote:1883" || !cfg.Server.LogUTC {
		t.Fatalf("expected flag overrides, got %+v", cfg.Server)
	}
}

func TestBuildConsoleHost(t *testing.T) {
	cfg := rtd.Config{}
	cfg.Modules.ConsoleHost = rtd.ConsoleHostConfig{Enabled: true, NodeID: "rt:console:lab", Encoding: "windows-1252"}
	runner, err := buildConsoleHost(cfg, nopTransport{}, &bytes.Buffer{}, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if runner.Name != moduleConsoleHost || runner.Run == nil {
		t.Fatalf("unexpected runner %+v", runner)
	}

	cfg.Modules.ConsoleHost.Encoding = "klingon"
	if _, err := buildConsoleHost(cfg, nopTransport{}, &bytes.Buffer{}, zap.NewNop()); err == nil {
		t.Fatalf("expected encoding error")
	}
}

func TestOpenOutput(t *testing.T) {
	w, closeFn, err := openOutput("")
	if err != nil || w != os.Stdout {
		t.Fatalf("expected stdout, got %v %v", w, err)
	}
	_ = closeFn()

	path := filepath.Join(t.TempDir(), "console.out")
	w, closeFn, err = openOutput(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "x" {
		t.Fatalf("unexpected file content %q", data)
	}

	if _, _, err := openOutput(filepath.Join(t.TempDir(), "missing", "dir", "out")); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestEnabledModules(t *testing.T) {
	cfg := rtd.Config{}
	cfg.Modules.ConsoleHost.Enabled = true
	cfg.Modules.EmbeddedMQTT.Enabled = true
	if got := enabledModules(cfg, ""); len(got) != 2 {
		t.Fatalf("expected both modules, got %v", got)
	}
	if got := enabledModules(cfg, moduleEmbeddedMQTT); len(got) != 1 || got[0] != moduleEmbeddedMQTT {
		t.Fatalf("expected embedded only, got %v", got)
	}
}

func TestPrintResolvedConfig(t *testing.T) {
	cfg := rtd.Config{}
	applyOverrides(&cfg, options{identity: "lab", broker: "mqtt://b:1883"})
	var buf bytes.Buffer
	printResolvedConfig(&buf, cfg)
	for _, want := range []string{"broker=mqtt://b:1883", "identity=lab", "node_id=rt:console:lab", "listen=127.0.0.1:1883"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in %q", want, buf.String())
		}
	}
}
