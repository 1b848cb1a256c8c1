// Package errors provides standardized error codes for the sync core.
//
// Error codes follow the format {domain}.{error} where:
//   - domain: the subsystem that generated the error (channel, state, apply, config)
//   - error: the specific error type within that domain
//
// The codes are stable identifiers the two plugin sides can rely on for
// programmatic handling and log filtering. Human-readable messages are
// provided alongside codes. No error in this package is fatal to the host
// editor process; the worst case is a logged line and a skipped state.
package errors

import (
	"errors"
	"fmt"
)

// Error codes by domain.
const (
	// Channel domain - WebSocket transport errors
	CodeChannelDialFailed     = "channel.dial_failed"     // Connector could not reach the listener
	CodeChannelListenFailed   = "channel.listen_failed"   // Listener could not bind its port
	CodeChannelSendNoPeer     = "channel.send_no_peer"    // Send with no active connection (state dropped)
	CodeChannelInvalidMessage = "channel.invalid_message" // Malformed or invalid wire message
	CodeChannelConnectionLost = "channel.connection_lost" // Connection unexpectedly closed
	CodeChannelClosed         = "channel.closed"          // Operation on a closed channel

	// State domain - EditorState validation errors
	CodeStateInvalidAction = "state.invalid_action" // Unknown action enum value
	CodeStateInvalidSource = "state.invalid_source" // Unknown source enum value
	CodeStateInvalidRange  = "state.invalid_range"  // Negative or inconsistent positions
	CodeStateInvalidPath   = "state.invalid_path"   // Missing or relative file path

	// Apply domain - inbound state application errors
	CodeApplyFileMismatch = "apply.file_mismatch" // Inbound path does not match the active file
	CodeApplySelfEcho     = "apply.self_echo"     // Inbound source equals the local source
	CodeApplyEditorFailed = "apply.editor_failed" // Editor API rejected the mutation
	CodeApplyOutOfRange   = "apply.out_of_range"  // Target line invalid even after clamping

	// Config domain - configuration file errors
	CodeConfigReadFailed  = "config.read_failed"  // Configuration file unreadable
	CodeConfigParseFailed = "config.parse_failed" // TOML syntax error
	CodeConfigInvalid     = "config.invalid"      // Value out of range (port, intervals)

	// Discovery domain - mDNS advertisement and browsing
	CodeDiscoveryFailed = "discovery.failed" // mDNS registration or browse failed

	// General domain - catch-all errors
	CodeUnknown  = "error.unknown"
	CodeInternal = "error.internal"
)

// CodedError wraps an error with a stable error code.
// This allows errors to carry both a code for programmatic handling
// and a message for human consumption.
type CodedError struct {
	Code    string // Stable error code (e.g., "channel.dial_failed")
	Message string // Human-readable error message
	Cause   error  // Underlying error (may be nil)
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a new CodedError with the given code and message.
func New(code, message string) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new CodedError wrapping an existing error.
func Wrap(code, message string, cause error) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// GetCode extracts the error code from an error.
// Non-coded errors map to CodeUnknown.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}

	return CodeUnknown
}

// GetMessage extracts a human-readable message from an error.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}

// ToCodeAndMessage extracts both code and message from an error.
func ToCodeAndMessage(err error) (code, message string) {
	if err == nil {
		return "", ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code, coded.Message
	}

	return CodeUnknown, err.Error()
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// Common error constructors for frequently used error types.

// InvalidMessage creates a "channel.invalid_message" error.
func InvalidMessage(reason string) *CodedError {
	return New(CodeChannelInvalidMessage, reason)
}

// EditorFailed creates an "apply.editor_failed" error.
func EditorFailed(operation string, cause error) *CodedError {
	return Wrap(CodeApplyEditorFailed, fmt.Sprintf("editor %s failed", operation), cause)
}

// Internal creates an "error.internal" error.
func Internal(message string, cause error) *CodedError {
	return Wrap(CodeInternal, message, cause)
}
