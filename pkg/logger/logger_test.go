package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "rideshare", Version: "test"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	return l, buf
}

func TestJSONFormatterIncludesFieldsAndAppInfo(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	l.WithRideID("r1").WithField("seats", 2).Info("booked")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v: %s", err, buf.String())
	}
	if entry["message"] != "booked" || entry["ride_id"] != "r1" || entry["app"] != "rideshare" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["seats"].(float64) != 2 {
		t.Fatalf("seats = %v", entry["seats"])
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	_ = l.WithField("ride_id", "r1")
	l.Info("plain")

	if strings.Contains(buf.String(), "r1") {
		t.Fatalf("parent logger picked up child field: %s", buf.String())
	}
}

func TestWithContextExtractsKnownKeys(t *testing.T) {
	l, buf := newBufferLogger(t, "text")

	ctx := ContextWithRequestID(context.Background(), "req-9")
	ctx = ContextWithUserID(ctx, "user-1")
	l.WithContext(ctx).Warn("slow")

	out := buf.String()
	for _, want := range []string{"request_id=req-9", "user_id=user-1", "[WARNING]", "slow"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestLogRideEventLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	l.SetLevel(WarnLevel)

	l.LogRideEvent("r1", "assigned", nil)
	if buf.Len() != 0 {
		t.Fatalf("info event should be filtered at warn level: %s", buf.String())
	}
}
