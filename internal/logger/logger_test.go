package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("should write json in prod", func(t *testing.T) {
		var buf bytes.Buffer

		l, err := New("prod", &buf)

		if err != nil {
			t.Fatal(err)
		}

		l.Info("request", "status", 200)

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("expected json output, got %q", buf.String())
		}

		if line["app"] != "bookshelf" {
			t.Fatalf("expected app attribute bookshelf, got %v", line["app"])
		}
	})

	t.Run("should write text in dev", func(t *testing.T) {
		var buf bytes.Buffer

		l, err := New("dev", &buf)

		if err != nil {
			t.Fatal(err)
		}

		l.Debug("cache miss")

		if !strings.Contains(buf.String(), "msg=\"cache miss\"") {
			t.Fatalf("expected text output, got %q", buf.String())
		}
	})

	t.Run("should reject unknown environments", func(t *testing.T) {
		if _, err := New("staging", &bytes.Buffer{}); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
