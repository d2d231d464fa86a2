package rpc

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"strings"
)

// session owns one client connection: a blocking reader goroutine that
// tokenizes and dispatches each line, and a writer goroutine that drains
// a buffered reply queue. This replaces the original single-thread
// reactor's manual partial-write/EAGAIN bookkeeping with Go's blocking
// I/O plus a channel, per SPEC_FULL.md's reactor translation note; every
// mutation the reader triggers still funnels through Server.mu, so the
// net effect on cubedb state is identical to the single-owner model.
//
// outbox is owned by the reader goroutine: only readLoop ever closes it,
// so send() never races a close with its own channel send.
type session struct {
	conn   net.Conn
	peer   string
	outbox chan []byte
	log    *slog.Logger
}

func newSession(conn net.Conn, log *slog.Logger) *session {
	return &session{
		conn:   conn,
		peer:   conn.RemoteAddr().String(),
		outbox: make(chan []byte, 32),
		log:    log,
	}
}

// writeLoop drains outbox to the connection until it's closed.
func (s *session) writeLoop() {
	for msg := range s.outbox {
		if _, err := s.conn.Write(msg); err != nil {
			s.log.Debug("write failed, closing session", "peer", s.peer, "error", err)
			_ = s.conn.Close()
			return
		}
	}
}

// send enqueues msg for the writer goroutine. It never blocks the reader
// indefinitely: the queue is generously buffered, and a session slow
// enough to fill it has its connection torn down instead, which makes
// the reader's next Scan() fail and return (and, via its deferred close,
// stop the writer too) rather than overflow forever.
func (s *session) send(msg []byte) {
	select {
	case s.outbox <- msg:
	default:
		s.log.Warn("reply queue full, dropping connection", "peer", s.peer)
		_ = s.conn.Close()
	}
}

// readLoop reads newline-delimited request lines and dispatches each one.
// The protocol.MaxQueryBytes limit is applied by Tokenize inside
// dispatch; a line longer than maxScanLine stops the scanner and ends the
// session without a reply.
func (s *server) readLoop(ctx context.Context, sess *session) {
	defer close(sess.outbox)

	scanner := bufio.NewScanner(sess.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxScanLine)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		result := s.handleLine(ctx, line)
		if result.Reply != nil {
			sess.send(result.Reply)
		}
		if result.Quit {
			return
		}
	}
}

// maxScanLine bounds the scanner's token buffer comfortably above
// protocol.MaxQueryBytes so an over-long line surfaces as a normal
// QueryTooLong reply instead of a scanner error.
const maxScanLine = 1 << 20
