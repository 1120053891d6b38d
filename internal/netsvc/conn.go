package netsvc

import (
	"bufio"
	"io"
	"log"
	"net"

	"github.com/nsdb/nsdb/internal/auth"
)

// QueryRunner dispatches one scanned Query against the executor and writes
// its serialized response. Kept as an interface so netsvc doesn't import
// internal/exec directly (the same dependency-injection seam storage uses
// for gns — see DESIGN.md). A QueryRunner is stateful per connection (it
// tracks the session's current space for unqualified entity references),
// so the listener holds a factory rather than a single shared instance.
type QueryRunner interface {
	Run(w io.Writer, q Query) error
}

// QueryRunnerFactory builds one QueryRunner per accepted connection.
type QueryRunnerFactory func() QueryRunner

// Conn is one accepted connection's handler state: the buffered
// reader/writer the teacher's handshake handler already wraps the socket
// in, plus the signal channel the listener uses to request a graceful
// exit.
type Conn struct {
	raw       net.Conn
	r         *bufio.Reader
	w         *bufio.Writer
	logger    *log.Logger
	sysAuth   *auth.SysAuth
	runner    QueryRunner
	terminate <-chan struct{}
}

// NewConn wraps an accepted socket for the handler loop. runner must be a
// connection-private QueryRunner (see QueryRunnerFactory).
func NewConn(raw net.Conn, sysAuth *auth.SysAuth, runner QueryRunner, logger *log.Logger, terminate <-chan struct{}) *Conn {
	return &Conn{
		raw:       raw,
		r:         bufio.NewReader(raw),
		w:         bufio.NewWriter(raw),
		logger:    logger,
		sysAuth:   sysAuth,
		runner:    runner,
		terminate: terminate,
	}
}

// Serve performs the handshake, authenticates, then loops over query-time
// exchanges until the peer disconnects or the listener signals shutdown.
func (c *Conn) Serve() {
	defer c.raw.Close()

	hs, err := c.doHandshake()
	if err != nil {
		c.logf("handshake failed: %v", err)
		return
	}

	if c.sysAuth.Enabled() && !c.sysAuth.Verify(hs.Username, hs.Password) {
		c.logf("auth failed for user %q", hs.Username)
		return
	}

	for {
		select {
		case <-c.terminate:
			return
		default:
		}

		q, err := c.readQuery()
		if err == io.EOF {
			return
		}
		if err != nil {
			c.logf("query read failed: %v", err)
			return
		}

		if err := c.runner.Run(c.w, q); err != nil {
			c.logf("query execution failed: %v", err)
		}
		if err := c.w.Flush(); err != nil {
			c.logf("flush failed: %v", err)
			return
		}
	}
}

func (c *Conn) doHandshake() (Handshake, error) {
	scanner := NewHandshakeScanner()
	buf := make([]byte, 4096)
	for {
		n, err := c.r.Read(buf)
		if n > 0 {
			hs, done, ferr := scanner.Feed(buf[:n])
			if ferr != nil {
				return Handshake{}, ferr
			}
			if done {
				return hs, nil
			}
		}
		if err != nil {
			return Handshake{}, err
		}
	}
}

func (c *Conn) readQuery() (Query, error) {
	scanner := NewQTScanner()
	buf := make([]byte, 4096)
	for {
		n, err := c.r.Read(buf)
		if n > 0 {
			q, done, ferr := scanner.Feed(buf[:n])
			if ferr != nil {
				return Query{}, ferr
			}
			if done {
				return q, nil
			}
		}
		if err != nil {
			return Query{}, err
		}
	}
}

func (c *Conn) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
