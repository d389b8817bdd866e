package stt

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a transcription request failed. The set is
// closed; every strategy maps its transport-specific failures onto it so
// callers can treat all strategies alike.
type ErrorKind string

const (
	// KindInvalidAudioReference means the audio path is missing or
	// unreadable. Detected locally before any worker call.
	KindInvalidAudioReference ErrorKind = "invalid_audio_reference"

	// KindWorkerUnavailable means the worker endpoint was unreachable
	// at connection time.
	KindWorkerUnavailable ErrorKind = "worker_unavailable"

	// KindRequestRejected means the worker was reachable but declined
	// the request before producing any segment.
	KindRequestRejected ErrorKind = "request_rejected"

	// KindStreamInterrupted means the stream ended abnormally after it
	// had been established. Segments already delivered remain valid.
	KindStreamInterrupted ErrorKind = "stream_interrupted"

	// KindProtocolViolation means the worker sent a message the client
	// could not decode, which points at a wire-contract mismatch
	// rather than a runtime failure.
	KindProtocolViolation ErrorKind = "protocol_violation"
)

// ErrStreamClosed is returned by Stream.Recv after the consumer closed
// the stream, either directly or through context cancellation.
var ErrStreamClosed = errors.New("transcription stream closed")

// Error is the one error type every strategy surfaces. Remedy, when
// set, is an operator-facing hint; rendering it is the caller's job.
type Error struct {
	Kind    ErrorKind
	Message string
	Remedy  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err's chain. The second return is
// false when err did not originate from a strategy.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// RemedyOf extracts the remedy hint from err's chain, if any.
func RemedyOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Remedy
	}
	return ""
}
