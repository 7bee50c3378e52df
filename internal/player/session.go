// Package player runs the external media player and exposes its combined
// output as a lazy sequence of lines.
package player

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/somafm/internal/config"
	"github.com/jmylchreest/somafm/internal/observability"
	"github.com/jmylchreest/somafm/internal/util"
)

// maxLineSize bounds a single line of player output.
const maxLineSize = 1 << 20

// State is the lifecycle state of a Session.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// NotFoundError reports that the player binary could not be located.
type NotFoundError struct {
	Binary string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("player %q not found", e.Binary)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// StartError reports that the player was found but could not be launched.
type StartError struct {
	Binary string
	Err    error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting player %s: %v", e.Binary, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// KillFunc terminates every process with the given name and returns how many it killed.
type KillFunc func(ctx context.Context, name string) (int, error)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithKiller replaces the kill-by-name step used by Shutdown.
func WithKiller(fn KillFunc) Option {
	return func(s *Session) { s.killByName = fn }
}

// Session owns one player process.
type Session struct {
	id     string
	cfg    config.PlayerConfig
	binary string
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	cmd     *exec.Cmd
	output  io.ReadCloser
	waitErr error
	waited  bool

	terminate    func() error
	killByName   KillFunc
	shutdownOnce sync.Once
	shutdownErr  error
}

// New locates the player binary and prepares a session. A missing binary
// is reported as *NotFoundError.
func New(cfg config.PlayerConfig, opts ...Option) (*Session, error) {
	binary, err := util.FindBinary(cfg.Binary, util.PlayerPathEnv)
	if err != nil {
		return nil, &NotFoundError{Binary: cfg.Binary, Err: err}
	}

	s := &Session{
		id:         ulid.Make().String(),
		cfg:        cfg,
		binary:     binary,
		logger:     slog.Default(),
		killByName: killProcessesNamed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.terminate = s.Terminate
	s.logger = observability.WithSessionID(observability.WithComponent(s.logger, "player"), s.id)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Binary returns the resolved player path.
func (s *Session) Binary() string {
	return s.binary
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the player process id, or 0 before Start.
func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Start launches the player for streamURL. Stdout and stderr share one
// pipe and stdin is left unconnected.
func (s *Session) Start(ctx context.Context, streamURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return fmt.Errorf("player session %s already %s", s.id, s.state)
	}

	args := s.cfg.ExpandArgs(streamURL)
	cmd := exec.Command(s.binary, args...) //nolint:gosec // binary and args come from user configuration
	setProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &StartError{Binary: s.binary, Err: err}
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return &StartError{Binary: s.binary, Err: err}
	}

	s.cmd = cmd
	s.output = stdout
	s.state = StateRunning

	s.logger.DebugContext(ctx, "player started",
		slog.String("binary", s.binary),
		slog.Any("args", args),
		slog.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// Lines returns the player's output split on '\n' or '\r'. Empty lines are
// skipped, and a line longer than maxLineSize is dropped whole. Each yielded
// slice is only valid until the next iteration. When the output ends the
// process is reaped and the session is Stopped.
func (s *Session) Lines() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		s.mu.Lock()
		out := s.output
		s.mu.Unlock()
		if out == nil {
			return
		}

		split := &lineSplitter{max: maxLineSize}
		scanner := bufio.NewScanner(out)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		scanner.Split(split.split)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			if !yield(line) {
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
			s.logger.Debug("player output ended with error", slog.String("error", err.Error()))
			// The player blocks on a full pipe until someone reads it.
			_, _ = io.Copy(io.Discard, out)
		}
		if split.dropped > 0 {
			s.logger.Debug("dropped oversized player output lines", slog.Int("count", split.dropped))
		}
		_ = s.Wait()
	}
}

// Wait reaps the player process. It is safe to call more than once.
func (s *Session) Wait() error {
	s.mu.Lock()
	cmd := s.cmd
	if cmd == nil || s.waited {
		err := s.waitErr
		s.mu.Unlock()
		return err
	}
	s.waited = true
	s.mu.Unlock()

	err := cmd.Wait()

	s.mu.Lock()
	s.waitErr = err
	if s.state == StateRunning {
		s.state = StateStopped
	}
	s.mu.Unlock()

	s.logger.Debug("player exited", slog.Any("result", err))
	return err
}

// Terminate asks the player's process group to exit.
func (s *Session) Terminate() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return terminateProcess(cmd.Process)
}

// Shutdown terminates the player and, when kill_by_name is enabled, every
// process sharing the player's name. Only the first call does any work;
// later calls return the first call's result.
func (s *Session) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		var errs []error
		if err := s.terminate(); err != nil {
			errs = append(errs, fmt.Errorf("terminating player: %w", err))
		}

		if s.cfg.KillByName && s.killByName != nil {
			name := filepath.Base(s.binary)
			killed, err := s.killByName(ctx, name)
			if err != nil {
				errs = append(errs, fmt.Errorf("killing %s processes: %w", name, err))
			}
			s.logger.DebugContext(ctx, "killed player processes by name",
				slog.String("name", name),
				slog.Int("killed", killed),
			)
		}

		s.mu.Lock()
		s.state = StateTerminated
		s.mu.Unlock()

		s.shutdownErr = errors.Join(errs...)
	})
	return s.shutdownErr
}

// scanLines is a bufio.SplitFunc that ends a token at '\n' or '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// lineSplitter wraps scanLines and skips any line that reaches max bytes
// without a terminator, up to and including its eventual '\n' or '\r'.
type lineSplitter struct {
	max        int
	discarding bool
	dropped    int
}

func (l *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if l.discarding {
		if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
			l.discarding = false
			return i + 1, nil, nil
		}
		return len(data), nil, nil
	}

	advance, token, err := scanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= l.max {
		l.discarding = true
		l.dropped++
		return len(data), nil, nil
	}
	return advance, token, err
}
