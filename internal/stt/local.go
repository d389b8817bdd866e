package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSocketPathLen is the portable floor of sun_path (104 bytes on
// darwin, 108 on linux). Longer paths fail at bind/connect with an
// opaque error, so reject them up front.
const maxSocketPathLen = 104

const defaultDialTimeout = 5 * time.Second

const remedyStartWorker = "start the whisper worker or check the configured socket path"

// LocalConfig parameterizes the local strategy.
type LocalConfig struct {
	// SocketPath is the unix socket the worker listens on.
	SocketPath string

	// DialTimeout bounds connection establishment only. An unreachable
	// endpoint is a configuration problem, not transient load, so the
	// default is short.
	DialTimeout time.Duration
}

// Local transcribes by sending one request per connection to a
// co-located whisper worker over a unix domain socket and decoding the
// segment stream as the worker produces it. Concurrent Transcribe
// calls each dial their own connection and never share one.
type Local struct {
	socketPath  string
	dialTimeout time.Duration
	logger      *zap.Logger

	// dialFn is swapped in tests to count or fail connection attempts.
	dialFn func(ctx context.Context) (net.Conn, error)
}

var _ Strategy = (*Local)(nil)

// NewLocal validates the endpoint configuration and returns a strategy
// bound to it. The socket itself is checked per request, not here, so
// the worker may come and go across calls.
func NewLocal(cfg LocalConfig, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path := strings.TrimSpace(cfg.SocketPath)
	if path == "" {
		return nil, errors.New("worker socket path must not be empty")
	}
	if len(path) > maxSocketPathLen {
		return nil, fmt.Errorf("worker socket path is %d bytes, over the %d-byte unix socket limit: %s",
			len(path), maxSocketPathLen, path)
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	l := &Local{
		socketPath:  path,
		dialTimeout: timeout,
		logger:      logger,
	}
	l.dialFn = l.dialWorker
	return l, nil
}

// Transcribe implements Strategy. The audio path is validated before
// any connection attempt so a bad path never costs a round trip.
func (l *Local) Transcribe(ctx context.Context, audioPath string, opts Options) (Stream, error) {
	if err := checkAudioPath(audioPath); err != nil {
		return nil, err
	}

	conn, err := l.dialFn(ctx)
	if err != nil {
		return nil, err
	}

	req := wireRequest{
		RequestID: uuid.NewString(),
		AudioPath: audioPath,
		Language:  opts.Language,
		Options: wireOptions{
			Diarization:   opts.Diarization,
			NumSpeakers:   opts.NumSpeakers,
			InitialPrompt: opts.InitialPrompt,
		},
	}

	_ = conn.SetWriteDeadline(time.Now().Add(l.dialTimeout))
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		_ = conn.Close()
		return nil, &Error{
			Kind:    KindWorkerUnavailable,
			Message: fmt.Sprintf("worker at %s closed the connection before accepting the request", l.socketPath),
			Remedy:  remedyStartWorker,
			Err:     err,
		}
	}
	_ = conn.SetWriteDeadline(time.Time{})

	l.logger.Info("transcription request dispatched",
		zap.String("request_id", req.RequestID),
		zap.String("audio", audioPath),
		zap.String("socket", l.socketPath))

	s := newLocalStream(conn, req.RequestID, l.logger)

	// Sever the connection when the caller gives up. The second case
	// lets this goroutine exit once the stream reaches any terminal
	// state on its own.
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.closed:
		}
	}()

	return s, nil
}

// Close implements Strategy. The local strategy holds no long-lived
// connection; every request owns its own.
func (l *Local) Close() error { return nil }

func (l *Local) dialWorker(ctx context.Context) (net.Conn, error) {
	if _, err := os.Stat(l.socketPath); err != nil {
		return nil, &Error{
			Kind:    KindWorkerUnavailable,
			Message: fmt.Sprintf("worker endpoint %s does not exist", l.socketPath),
			Remedy:  remedyStartWorker,
			Err:     err,
		}
	}

	dialer := net.Dialer{Timeout: l.dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", l.socketPath)
	if err != nil {
		return nil, &Error{
			Kind:    KindWorkerUnavailable,
			Message: fmt.Sprintf("worker endpoint %s is not accepting connections", l.socketPath),
			Remedy:  remedyStartWorker,
			Err:     err,
		}
	}
	return conn, nil
}

func checkAudioPath(path string) error {
	if !filepath.IsAbs(path) {
		return &Error{
			Kind:    KindInvalidAudioReference,
			Message: fmt.Sprintf("audio path must be absolute, got %q", path),
			Remedy:  "the worker resolves paths in its own working directory; pass an absolute path",
		}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Error{
				Kind:    KindInvalidAudioReference,
				Message: fmt.Sprintf("audio file not found: %s", path),
				Remedy:  "check that the path is correct and the download completed",
				Err:     err,
			}
		}
		return &Error{
			Kind:    KindInvalidAudioReference,
			Message: fmt.Sprintf("audio file not readable: %s", path),
			Remedy:  "check read permissions on the file",
			Err:     err,
		}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &Error{
			Kind:    KindInvalidAudioReference,
			Message: fmt.Sprintf("audio file not statable: %s", path),
			Err:     err,
		}
	}
	if !info.Mode().IsRegular() {
		return &Error{
			Kind:    KindInvalidAudioReference,
			Message: fmt.Sprintf("audio path is not a regular file: %s", path),
		}
	}
	return nil
}

// localStream decodes worker messages one at a time on the consumer's
// Recv call; nothing is buffered ahead of the consumer beyond the
// socket's own buffer.
type localStream struct {
	conn   net.Conn
	dec    *json.Decoder
	logger *zap.Logger
	reqID  string

	mu       sync.Mutex
	started  bool  // at least one segment delivered
	terminal error // sticky; io.EOF after clean completion
	segments int

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Stream = (*localStream)(nil)

func newLocalStream(conn net.Conn, reqID string, logger *zap.Logger) *localStream {
	return &localStream{
		conn:   conn,
		dec:    json.NewDecoder(conn),
		logger: logger,
		reqID:  reqID,
		closed: make(chan struct{}),
	}
}

func (s *localStream) Recv() (Segment, error) {
	s.mu.Lock()
	if s.terminal != nil {
		err := s.terminal
		s.mu.Unlock()
		return Segment{}, err
	}
	s.mu.Unlock()

	var msg wireMessage
	if err := s.dec.Decode(&msg); err != nil {
		return s.fail(s.classifyRecvError(err))
	}

	switch msg.Type {
	case msgSegment:
		if msg.Segment == nil {
			return s.fail(&Error{
				Kind:    KindProtocolViolation,
				Message: "segment message without segment payload",
				Remedy:  "worker and client wire contracts are out of sync; deploy matching versions",
			})
		}
		s.mu.Lock()
		s.started = true
		s.segments++
		s.mu.Unlock()
		return msg.Segment.toSegment(), nil

	case msgDone:
		return s.finish()

	case msgError:
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			return s.fail(&Error{
				Kind:    KindStreamInterrupted,
				Message: fmt.Sprintf("worker aborted mid-transcription: %s", msg.Message),
			})
		}
		return s.fail(&Error{
			Kind:    KindRequestRejected,
			Message: fmt.Sprintf("worker rejected the request: %s", msg.Message),
		})

	default:
		return s.fail(&Error{
			Kind:    KindProtocolViolation,
			Message: fmt.Sprintf("unexpected message type %q from worker", msg.Type),
			Remedy:  "worker and client wire contracts are out of sync; deploy matching versions",
		})
	}
}

// classifyRecvError distinguishes a severed channel from an
// undecodable payload. Called with no lock held.
func (s *localStream) classifyRecvError(err error) error {
	s.mu.Lock()
	terminal := s.terminal
	started := s.started
	s.mu.Unlock()

	// The consumer closed the stream while Recv was blocked; surface
	// the closure, not the resulting socket error.
	if terminal != nil {
		return terminal
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		msg := "worker closed the stream before completion"
		if !started {
			msg = "worker closed the stream before producing any segment"
		}
		return &Error{Kind: KindStreamInterrupted, Message: msg, Err: err}
	}

	return &Error{
		Kind:    KindProtocolViolation,
		Message: "undecodable message from worker",
		Remedy:  "worker and client wire contracts are out of sync; deploy matching versions",
		Err:     err,
	}
}

func (s *localStream) finish() (Segment, error) {
	s.mu.Lock()
	if s.terminal == nil {
		s.terminal = io.EOF
	}
	err := s.terminal
	segments := s.segments
	s.mu.Unlock()

	s.shutdown()
	if err == io.EOF {
		s.logger.Info("transcription stream completed",
			zap.String("request_id", s.reqID),
			zap.Int("segments", segments))
	}
	return Segment{}, err
}

func (s *localStream) fail(cause error) (Segment, error) {
	s.mu.Lock()
	if s.terminal == nil {
		s.terminal = cause
	}
	err := s.terminal
	segments := s.segments
	s.mu.Unlock()

	s.shutdown()

	if kind, ok := KindOf(err); ok {
		fields := []zap.Field{
			zap.String("request_id", s.reqID),
			zap.Int("segments_delivered", segments),
			zap.Error(err),
		}
		// Contract mismatches get their own log signature so they are
		// not mistaken for runtime failures.
		if kind == KindProtocolViolation {
			s.logger.Error("worker protocol violation", fields...)
		} else {
			s.logger.Warn("transcription stream failed", fields...)
		}
	}
	return Segment{}, err
}

// Close severs the connection without draining. Safe to call at any
// time, from any goroutine, more than once.
func (s *localStream) Close() error {
	s.mu.Lock()
	if s.terminal == nil {
		s.terminal = ErrStreamClosed
	}
	s.mu.Unlock()
	s.shutdown()
	return nil
}

func (s *localStream) shutdown() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.closed)
	})
}
