package sysutil

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupLogger_InstallsGlobalAndContextFallback(t *testing.T) {
	origLevel, origLog, origCtx := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLog
		zerolog.DefaultContextLogger = origCtx
	})

	var buf bytes.Buffer
	SetupLogger("warn", false, "tapeat-bot", &buf)

	// A context without a logger falls back to the process logger.
	zerolog.Ctx(context.Background()).Warn().Msg("from ctx")
	log.Info().Msg("filtered")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "tapeat-bot" || line["message"] != "from ctx" || line["level"] != "warn" {
		t.Fatalf("unexpected line: %v", line)
	}
}

func TestSetupLogger_Pretty(t *testing.T) {
	origLevel, origLog, origCtx := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLog
		zerolog.DefaultContextLogger = origCtx
	})

	var buf bytes.Buffer
	l := SetupLogger("info", true, "svc", &buf)
	l.Info().Msg("hello")
	if bytes.HasPrefix(buf.Bytes(), []byte("{")) || !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Fatalf("pretty output expected, got %q", buf.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	if got := FirstNonEmpty("   ", "  v1.2.0  ", "dev"); got != "  v1.2.0  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  v1.2.0  ")
	}
}
