package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"Trace", zerolog.TraceLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSetupAndFor(t *testing.T) {
	prev := Logger
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	Setup("debug", &buf)
	lg := For("SpawnSystem")
	lg.Info().Msg("[SpawnSystem] wave 1 started")

	out := buf.String()
	if !strings.Contains(out, "Logging set up") {
		t.Errorf("Expected setup message, got %q", out)
	}
	if !strings.Contains(out, "system=SpawnSystem") || !strings.Contains(out, "wave 1 started") {
		t.Errorf("Expected system field and message, got %q", out)
	}
}
