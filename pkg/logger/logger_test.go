package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf})

	log.Debug().Str("component", "identity").Msg("hello")
	if !strings.Contains(buf.String(), `"component":"identity"`) {
		t.Fatalf("expected structured field in output, got %q", buf.String())
	}

	got := Get()
	got.Info().Msg("via get")
	if !strings.Contains(buf.String(), "via get") {
		t.Fatalf("Get must return the initialised instance")
	}
}

func TestInitOnlyOnce(t *testing.T) {
	Reset()
	defer Reset()

	var first bytes.Buffer
	Init(Options{Output: &first})

	var second bytes.Buffer
	log := Init(Options{Output: &second})
	log.Info().Msg("after second init")

	if second.Len() != 0 {
		t.Fatalf("second Init must be a no-op, wrote %q", second.String())
	}
	if !strings.Contains(first.String(), "after second init") {
		t.Fatalf("expected output on the original writer, got %q", first.String())
	}
}

func TestGetBeforeInitPanics(t *testing.T) {
	Reset()
	defer Reset()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic from Get before Init")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "trace",
		"debug":   "debug",
		"WARN":    "warn",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
