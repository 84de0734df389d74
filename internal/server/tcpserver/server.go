package tcpserver

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kevadb/keva-go/internal/command"
	"github.com/kevadb/keva-go/internal/server/resp"
)

// Config holds the TCP server configuration.
type Config struct {
	// Address is the listen address (default: ":6379").
	Address string
	// ReadTimeout is the timeout for reading a command once its first
	// byte has arrived (default: 30s). Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a reply batch (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP
	// (default: 1000). Set to 0 to disable rate limiting.
	RateLimit int
	// MaxConns caps concurrently served connections. 0 means no cap.
	MaxConns int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      ":6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
	}
}

// ConnMetrics receives connection lifecycle events. All methods must be
// safe for concurrent use. A nil ConnMetrics disables reporting.
type ConnMetrics interface {
	ConnOpened()
	ConnClosed()
	ConnRejected(reason string)
}

// Server accepts client connections and runs the request loop: decode
// one command from the connection buffer, execute it against the
// command table, write the reply. Pipelined requests are answered in
// order and flushed as one batch.
type Server struct {
	cfg     *Config
	handler *command.Handler
	logger  *slog.Logger
	metrics ConnMetrics

	ln      net.Listener
	running atomic.Bool
	conns   atomic.Int64
	wg      sync.WaitGroup

	limiters *ipLimiters
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithConnMetrics registers a connection metrics sink.
func WithConnMetrics(m ConnMetrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server over the given command handler.
func New(cfg *Config, handler *command.Handler, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  slog.Default(),
	}
	if cfg.RateLimit > 0 {
		s.limiters = newIPLimiters(cfg.RateLimit)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start binds the listener and begins accepting connections in a
// background goroutine. It returns once the listener is bound, so the
// reported Addr is immediately usable.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)

	s.logger.Info("server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx); err != nil && s.running.Load() {
			s.logger.Error("accept loop error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops accepting connections and waits for in-flight
// connections to finish, up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if s.cfg.MaxConns > 0 && s.conns.Load() >= int64(s.cfg.MaxConns) {
			if s.metrics != nil {
				s.metrics.ConnRejected("max_conns")
			}
			s.logger.Warn("connection rejected, limit reached",
				"remote", c.RemoteAddr(), "max_conns", s.cfg.MaxConns)
			_, _ = c.Write(resp.Encode(resp.NewError("ERR max number of clients reached")))
			_ = c.Close()
			continue
		}

		s.wg.Add(1)
		s.conns.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.conns.Add(-1)
			s.serveConn(c)
		}()
	}
}

// newConnID returns a fresh ULID for correlating a connection's log
// lines.
func newConnID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "unknown"
	}
	return id.String()
}

// maxRequestBuffer bounds how many bytes a connection may accumulate
// without completing a single command.
const maxRequestBuffer = 2 * resp.MaxBulkLen

func (s *Server) serveConn(c net.Conn) {
	defer c.Close()

	connID := newConnID()
	logger := s.logger.With("conn_id", connID, "remote", c.RemoteAddr().String())

	if s.metrics != nil {
		s.metrics.ConnOpened()
		defer s.metrics.ConnClosed()
	}
	logger.Debug("connection opened")
	defer logger.Debug("connection closed")

	var limiter commandLimiter
	if s.limiters != nil {
		limiter = s.limiters.forAddr(c.RemoteAddr())
	}

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	var (
		buf []byte
		out []byte
		tmp = make([]byte, 64*1024)
		// fail appends the error to any replies already produced by
		// this batch and flushes them together, so commands executed
		// before the bad frame still get their replies delivered in
		// decode order before the connection closes.
		fail func(msg string)
	)
	fail = func(msg string) {
		out = resp.AppendEncode(out, resp.NewError(msg))
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, _ = c.Write(out)
	}

	for {
		// Idle timeout applies while the buffer holds no partial
		// command; once bytes have arrived the tighter per-command
		// read timeout takes over (slowloris protection).
		deadline := idleTimeout
		if len(buf) > 0 {
			deadline = readTimeout
		}
		if err := c.SetReadDeadline(time.Now().Add(deadline)); err != nil {
			return
		}

		n, err := c.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logger.Debug("connection timed out")
				return
			}
			logger.Debug("connection read error", "error", err)
			return
		}

		// Drain every complete command in the buffer, then flush the
		// replies as one write. This keeps pipelined batches ordered
		// and avoids a syscall per reply.
		out = out[:0]
		closing := false
		for len(buf) > 0 {
			args, consumed, err := resp.DecodeCommand(buf)
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			if err != nil {
				if errors.Is(err, resp.ErrLimitExceeded) {
					logger.Warn("protocol limit exceeded", "error", err)
					fail("ERR protocol limit exceeded")
				} else {
					logger.Debug("protocol error", "error", err)
					fail("ERR protocol error: " + err.Error())
				}
				return
			}
			buf = buf[consumed:]

			if len(args) == 0 {
				// Blank inline line, ignore.
				continue
			}

			if limiter != nil && !limiter.Allow() {
				out = resp.AppendEncode(out, resp.NewError("ERR rate limit exceeded"))
				continue
			}

			reply, closeAfter := s.handler.Execute(args)
			out = resp.AppendEncode(out, reply)
			if closeAfter {
				closing = true
				break
			}
		}

		if len(buf) > maxRequestBuffer {
			logger.Warn("request buffer limit exceeded", "buffered", len(buf))
			fail("ERR protocol limit exceeded")
			return
		}

		if len(out) > 0 {
			if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if _, err := c.Write(out); err != nil {
				logger.Debug("connection write error", "error", err)
				return
			}
		}
		if closing {
			return
		}

		// Reclaim the buffer once fully drained so a large pipelined
		// batch does not pin its backing array.
		if len(buf) == 0 && cap(buf) > 1024*1024 {
			buf = nil
		}
	}
}
