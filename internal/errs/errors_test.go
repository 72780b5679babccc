package errs

import (
	"errors"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"transport", &TransportError{Device: "r1", Reason: "EOF"}, ErrTransport},
		{"protocol", &ProtocolError{Device: "r1", Reason: "bad msg-id"}, ErrProtocol},
		{"schema", &SchemaError{Device: "r1", Reason: "parse failed"}, ErrSchema},
		{"semantic", &SemanticError{Device: "r1", Reason: "missing mandatory leaf"}, ErrSemantic},
		{"timeout", &TimeoutError{Device: "r1"}, ErrTimeout},
		{"user", &UserError{Device: "r1"}, ErrUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.want)
			}
			if tt.err.Error() == "" {
				t.Error("expected non-empty error message")
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	var te *TransportError
	if errors.As(&SchemaError{Device: "r1"}, &te) {
		t.Error("SchemaError should not unwrap as TransportError")
	}
}
