package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorForReplyCode(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{"INVALID", ExitUsage},
		{"UNSUPPORTED", ExitUsage},
		{"SINK_FAILED", ExitRuntime},
		{"UNKNOWN", ExitRuntime},
	}

	for _, test := range tests {
		err := ErrorForReplyCode(test.code, "message")
		if err.Code != test.expected {
			t.Fatalf("code %s expected %d got %d", test.code, test.expected, err.Code)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != ExitOK {
		t.Fatalf("nil should be ok")
	}
	if ExitCode(errors.New("plain")) != ExitRuntime {
		t.Fatalf("plain errors are runtime failures")
	}
	wrapped := fmt.Errorf("check: %w", &CLIError{Code: ExitMismatch, Msg: "1 case failed"})
	if ExitCode(wrapped) != ExitMismatch {
		t.Fatalf("expected wrapped CLIError code")
	}
	cause := errors.New("cause")
	if !errors.Is(WrapError(ExitRuntime, "publish", cause), cause) {
		t.Fatalf("expected unwrap to reach cause")
	}
}
