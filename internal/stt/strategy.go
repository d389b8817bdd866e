package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Stream yields transcript segments in the order the worker produced
// them. Recv blocks until the next segment arrives, returns io.EOF
// after a clean completion, and returns a *Error on failure. Terminal
// results are sticky: once Recv has returned an error it keeps
// returning the same one. A Stream is not restartable and must be
// closed when abandoned before completion; Close is idempotent and
// safe to call after Recv has already finished.
type Stream interface {
	Recv() (Segment, error)
	Close() error
}

// Strategy is the single abstraction calling code depends on for
// speech-to-text. Implementations must be safe for concurrent
// Transcribe calls; each call owns its own connection lifecycle.
type Strategy interface {
	// Transcribe starts one transcription of the audio file at
	// audioPath (absolute, readable by both this process and the
	// worker). Cancelling ctx severs the stream and releases its
	// connection.
	Transcribe(ctx context.Context, audioPath string, opts Options) (Stream, error)

	// Close releases any resources held by the strategy itself.
	Close() error
}

// Strategy identifiers accepted by NewStrategy.
const (
	StrategyLocal = "local"
)

// StrategyNames lists the recognized strategy identifiers.
func StrategyNames() []string {
	return []string{StrategyLocal}
}

// Config selects and parameterizes a strategy instance. It is read
// once at process start and immutable afterwards.
type Config struct {
	// Kind is the strategy identifier, e.g. "local".
	Kind string

	// SocketPath is the local worker endpoint. Used by the local
	// strategy only.
	SocketPath string

	// DialTimeout bounds connection establishment. Zero picks a short
	// default; streams in progress are never subject to it.
	DialTimeout time.Duration
}

// NewStrategy constructs the concrete strategy named by cfg.Kind. An
// unrecognized identifier is a configuration error and must be
// reported before any pipeline stage runs.
func NewStrategy(cfg Config, logger *zap.Logger) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case StrategyLocal:
		return NewLocal(LocalConfig{
			SocketPath:  cfg.SocketPath,
			DialTimeout: cfg.DialTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown transcription strategy %q (known strategies: %s)",
			cfg.Kind, strings.Join(StrategyNames(), ", "))
	}
}
