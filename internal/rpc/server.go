package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/expobrain/cubedb/internal/cubedb"
)

// server is the TCP front-end described in spec.md §5: every command any
// session's reader goroutine dispatches is serialized behind mu before it
// touches db, giving the whole process the single mutator spec.md
// ascribes to its reactor thread, without requiring cubedb itself to be
// thread-safe.
type server struct {
	listener net.Listener
	db       *cubedb.DB
	dumpPath string
	dump     func(dumpPath string) error
	log      *slog.Logger
	metrics  *Metrics

	mu sync.Mutex

	wg sync.WaitGroup
}

// Options configures a new Server.
type Options struct {
	DB       *cubedb.DB
	DumpPath string
	Dump     func(dumpPath string) error
	Log      *slog.Logger
	Metrics  *Metrics
}

// Server is the exported handle for starting and stopping the listener.
type Server struct {
	s *server
}

// NewServer builds a Server bound to addr (host:port, or ":port").
func NewServer(addr string, opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{s: &server{
		listener: ln,
		db:       opts.DB,
		dumpPath: opts.DumpPath,
		dump:     opts.Dump,
		log:      log,
		metrics:  opts.Metrics,
	}}, nil
}

// Addr returns the address the listener is bound to.
func (srv *Server) Addr() net.Addr { return srv.s.listener.Addr() }

// Serve accepts connections until ctx is cancelled or the listener is
// closed. Each connection gets its own reader and writer goroutine
// (SPEC_FULL.md's reactor translation note); Serve itself blocks only on
// Accept.
func (srv *Server) Serve(ctx context.Context) error {
	s := srv.s
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				s.wg.Wait()
				return fmt.Errorf("rpc: accept: %w", err)
			}
		}

		sess := newSession(conn, s.log)
		s.wg.Add(1)
		s.metrics.sessionOpened(ctx)
		s.log.Info("session accepted", "peer", sess.peer)

		go func() {
			defer s.wg.Done()
			defer conn.Close()
			defer s.metrics.sessionClosed(ctx)
			defer s.log.Info("session closed", "peer", sess.peer)

			go sess.writeLoop()
			s.readLoop(ctx, sess)
		}()
	}
}

// Close stops accepting new connections.
func (srv *Server) Close() error { return srv.s.listener.Close() }

// handleLine dispatches one request line under the server's single
// mutation mutex, then records the outcome in metrics.
func (s *server) handleLine(ctx context.Context, line string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmdCtx := &Context{DB: s.db, DumpPath: s.dumpPath, Dump: s.dump}
	result := Dispatch(cmdCtx, line)

	verb, code := summarize(line, result)
	s.metrics.recordCommand(ctx, verb, code)
	return result
}

// summarize extracts a best-effort command verb and result code purely
// for metrics labeling; it never affects the reply actually sent. Only a
// bare result-code line (a negative number, or the success "0") is
// treated as a code — scalar/list replies also start with a digit but
// are never negative, since every error code in protocol.errors.go is.
func summarize(line string, result Result) (verb string, code int) {
	verb = "UNKNOWN"
	if fields := strings.Fields(line); len(fields) > 0 {
		verb = strings.ToUpper(fields[0])
	}

	if result.Reply == nil {
		return verb, 0
	}
	text := strings.TrimSpace(string(result.Reply))
	if n, err := strconv.Atoi(text); err == nil && n <= 0 {
		return verb, n
	}
	return verb, 0
}
