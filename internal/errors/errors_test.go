package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodedErrorFormat(t *testing.T) {
	err := New(CodeChannelDialFailed, "dial ws://127.0.0.1:3000/sync")
	got := err.Error()
	if !strings.Contains(got, CodeChannelDialFailed) {
		t.Errorf("error string missing code: %s", got)
	}
	if !strings.Contains(got, "dial ws://127.0.0.1:3000/sync") {
		t.Errorf("error string missing message: %s", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeChannelDialFailed, "dial failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error string missing cause: %s", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"coded", New(CodeStateInvalidAction, "bad"), CodeStateInvalidAction},
		{"wrapped coded", fmt.Errorf("outer: %w", New(CodeApplyFileMismatch, "x")), CodeApplyFileMismatch},
		{"plain", errors.New("boom"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToCodeAndMessage(t *testing.T) {
	code, msg := ToCodeAndMessage(New(CodeConfigInvalid, "port out of range"))
	if code != CodeConfigInvalid || msg != "port out of range" {
		t.Errorf("got (%q, %q)", code, msg)
	}

	code, msg = ToCodeAndMessage(errors.New("boom"))
	if code != CodeUnknown || msg != "boom" {
		t.Errorf("got (%q, %q)", code, msg)
	}

	code, msg = ToCodeAndMessage(nil)
	if code != "" || msg != "" {
		t.Errorf("got (%q, %q) for nil", code, msg)
	}
}

func TestIsCode(t *testing.T) {
	err := InvalidMessage("truncated payload")
	if !IsCode(err, CodeChannelInvalidMessage) {
		t.Error("IsCode should match the constructor's code")
	}
	if IsCode(err, CodeChannelConnectionLost) {
		t.Error("IsCode matched the wrong code")
	}
}

func TestEditorFailed(t *testing.T) {
	cause := errors.New("document disposed")
	err := EditorFailed("scroll", cause)
	if !IsCode(err, CodeApplyEditorFailed) {
		t.Errorf("code = %s", GetCode(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}
}
