package logctx

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	out, level, formatter := Logger.Out, Logger.Level, Logger.Formatter
	defer func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
		Logger.SetFormatter(formatter)
	}()

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"bogus", true},
	}
	for _, tt := range tests {
		if err := SetLevel(tt.level); (err != nil) != tt.wantErr {
			t.Errorf("SetLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}
}

func TestSetOutputAndFields(t *testing.T) {
	out, level, formatter := Logger.Out, Logger.Level, Logger.Formatter
	defer func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
		Logger.SetFormatter(formatter)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	WithDevice("r1").Info("hello")
	if buf.Len() == 0 {
		t.Error("expected output to be written")
	}
	if !bytes.Contains(buf.Bytes(), []byte("device=r1")) {
		t.Errorf("expected device field in output, got: %s", buf.String())
	}
}

func TestSetJSONFormat(t *testing.T) {
	out, level, formatter := Logger.Out, Logger.Level, Logger.Formatter
	defer func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
		Logger.SetFormatter(formatter)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetJSONFormat()
	WithTransaction(7).Info("txn started")
	if buf.Len() == 0 || buf.Bytes()[0] != '{' {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}
}

func TestWithOperation(t *testing.T) {
	e := WithOperation("config-pull")
	if e == nil {
		t.Fatal("expected non-nil entry")
	}
}
