package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		" WARN": zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"trace": zerolog.TraceLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestNew_FileCopyRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("test", Options{Level: "warn", File: &buf})
	l.Info().Msg("quiet")
	l.Warn().Msg("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "cmd=test") {
		t.Fatalf("missing warn entry: %q", out)
	}
}
