package tokenizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sagasu/internal/errors"
)

// State is the lifecycle state of the analyzer session.
type State int32

const (
	// StateStarting means no process has been spawned yet.
	StateStarting State = iota
	// StateReady means the streaming process is up.
	StateReady
	// StateFaulted means the process died or broke protocol.
	StateFaulted
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Session is a long-lived streaming analyzer process.
//
// The process is spawned lazily on first use and respawned after faults.
// A circuit breaker guards respawns so a persistently broken analyzer
// degrades to one-shot and fallback tokenization instead of a spawn storm.
type Session struct {
	cfg     Config
	breaker *errors.CircuitBreaker

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *bufio.Reader
	state atomic.Int32
}

var _ Analyzer = (*Session)(nil)

// NewSession creates an analyzer session. No process is spawned until the
// first Tokenize call.
func NewSession(cfg Config) *Session {
	return &Session{
		cfg: cfg.withDefaults(),
		breaker: errors.NewCircuitBreaker("tokenizer",
			errors.WithMaxFailures(3),
			errors.WithResetTimeout(30*time.Second)),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Tokenize analyzes a single document.
func (s *Session) Tokenize(ctx context.Context, text string) ([]string, error) {
	results, err := s.TokenizeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// TokenizeBatch analyzes several documents in one stdin/stdout exchange.
//
// On stream failure the whole batch degrades document by document: first
// a one-shot invocation, then naive fallback splitting. The only error
// returned is context cancellation.
func (s *Session) TokenizeBatch(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		prepared[i] = sanitize(TruncateRunes(t, s.cfg.MaxDocRunes))
	}

	s.mu.Lock()
	results, err := s.stream(ctx, prepared)
	s.mu.Unlock()

	if err == nil {
		for i := range results {
			results[i] = postprocess(results[i], s.cfg.MaxTermBytes)
		}
		return results, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	slog.Warn("tokenizer_stream_failed",
		slog.String("error", err.Error()),
		slog.Int("batch_size", len(texts)))

	out := make([][]string, len(prepared))
	for i, text := range prepared {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		tokens, osErr := s.oneShot(ctx, text)
		if osErr != nil {
			slog.Warn("tokenizer_one_shot_failed", slog.String("error", osErr.Error()))
			tokens = FallbackTokens(text)
		}
		out[i] = postprocess(tokens, s.cfg.MaxTermBytes)
	}
	return out, nil
}

// Close terminates the analyzer process. The session can be reused; the
// next call respawns.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown()
	s.state.Store(int32(StateStarting))
	return nil
}

// stream runs one framed exchange over the long-lived process.
// Caller holds s.mu.
func (s *Session) stream(ctx context.Context, texts []string) ([][]string, error) {
	if err := s.ensureRunning(); err != nil {
		return nil, err
	}

	// Watchdog: kill the process if the context expires mid-exchange,
	// which unblocks the reads below.
	cmd := s.cmd
	watchdogDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		case <-watchdogDone:
		}
	}()
	defer close(watchdogDone)

	// Write concurrently so a full pipe cannot deadlock against our reads.
	writeErr := make(chan error, 1)
	stdin := s.stdin
	go func() {
		w := bufio.NewWriter(stdin)
		for _, text := range texts {
			if _, err := w.WriteString(text); err != nil {
				writeErr <- err
				return
			}
			if !strings.HasSuffix(text, "\n") {
				if err := w.WriteByte('\n'); err != nil {
					writeErr <- err
					return
				}
			}
			if _, err := w.WriteString(docDelimiter + "\n"); err != nil {
				writeErr <- err
				return
			}
		}
		writeErr <- w.Flush()
	}()

	results := make([][]string, len(texts))
	for i := range texts {
		tokens, err := s.readBlock()
		if err != nil {
			s.fault(err)
			return nil, err
		}
		results[i] = tokens
	}

	if err := <-writeErr; err != nil {
		s.fault(err)
		return nil, err
	}

	return results, nil
}

// readBlock reads one document's tokens up to the delimiter line.
func (s *Session) readBlock() ([]string, error) {
	var tokens []string
	for {
		line, err := s.out.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("tokenizer stream closed: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == docDelimiter {
			return tokens, nil
		}
		if line != "" {
			tokens = append(tokens, line)
		}
	}
}

// ensureRunning spawns the process if needed. Caller holds s.mu.
func (s *Session) ensureRunning() error {
	if s.cmd != nil && s.State() == StateReady {
		return nil
	}
	s.shutdown()
	return s.breaker.Execute(s.spawn)
}

// spawn starts the streaming analyzer process. Caller holds s.mu.
func (s *Session) spawn() error {
	if len(s.cfg.Command) == 0 {
		return errors.New(errors.ErrCodeTokenizerUnavailable, "tokenizer command not configured", nil)
	}

	args := append([]string{}, s.cfg.Command[1:]...)
	args = append(args, "--stream")
	cmd := exec.Command(s.cfg.Command[0], args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenizerUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenizerUnavailable, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenizerUnavailable, err)
	}

	if err := cmd.Start(); err != nil {
		s.state.Store(int32(StateFaulted))
		return errors.New(errors.ErrCodeTokenizerUnavailable,
			fmt.Sprintf("failed to start tokenizer: %v", err), err)
	}

	go drainStderr(stderr)

	s.cmd = cmd
	s.stdin = stdin
	s.out = bufio.NewReaderSize(stdout, 1<<20)
	s.state.Store(int32(StateReady))

	slog.Info("tokenizer_started",
		slog.String("command", strings.Join(s.cfg.Command, " ")),
		slog.Int("pid", cmd.Process.Pid))

	return nil
}

// fault marks the session broken and reaps the process. Caller holds s.mu.
func (s *Session) fault(cause error) {
	slog.Warn("tokenizer_faulted", slog.String("error", cause.Error()))
	s.breaker.RecordFailure()
	s.shutdown()
	s.state.Store(int32(StateFaulted))
}

// shutdown reaps the current process, if any. Caller holds s.mu.
func (s *Session) shutdown() {
	if s.cmd == nil {
		return
	}
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	s.out = nil
}

// oneShot runs a fresh analyzer invocation for a single document.
func (s *Session) oneShot(ctx context.Context, text string) ([]string, error) {
	return OneShot(ctx, s.cfg.Command, s.cfg.OneShotTimeout, text)
}

// drainStderr forwards analyzer stderr to the debug log.
func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		slog.Debug("tokenizer_stderr", slog.String("line", scanner.Text()))
	}
}
