package netsvc

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/nsdb/nsdb/internal/auth"
	"github.com/nsdb/nsdb/internal/config"
)

// backoffSchedule is the accept-error retry ladder: 1s, 2s, 4s, ... capped
// at 64s, per spec §4.7.
var backoffSchedule = []time.Duration{
	1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	16 * time.Second, 32 * time.Second, 64 * time.Second,
}

// Listener owns one endpoint's accept loop: a connection-admission
// semaphore (CLIM), exponential backoff on accept errors, and graceful
// shutdown coordination via a broadcast-style terminate channel plus a
// WaitGroup standing in for the spec's mpsc drain handshake (every handler
// goroutine calls Done on exit; Shutdown blocks on Wait).
type Listener struct {
	ln      net.Listener
	sem     chan struct{}
	sysAuth *auth.SysAuth
	newRun  QueryRunnerFactory
	logger  *log.Logger

	terminate chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen opens a TCP (optionally TLS-wrapped) listener for one configured
// endpoint. newRun is invoked once per accepted connection to build that
// connection's private QueryRunner (it carries session state such as the
// current space).
func Listen(ep config.Endpoint, tlsCfg *tls.Config, maxConnections int, sysAuth *auth.SysAuth, newRun QueryRunnerFactory, logger *log.Logger) (*Listener, error) {
	var ln net.Listener
	var err error
	if ep.TLS {
		if tlsCfg == nil {
			return nil, fmt.Errorf("netsvc: endpoint %s requires tls but no tls.Config was built", ep.Addr())
		}
		ln, err = tls.Listen("tcp", ep.Addr(), tlsCfg)
	} else {
		ln, err = net.Listen("tcp", ep.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("netsvc: listen on %s: %w", ep.Addr(), err)
	}
	return &Listener{
		ln:        ln,
		sem:       make(chan struct{}, maxConnections),
		sysAuth:   sysAuth,
		newRun:    newRun,
		logger:    logger,
		terminate: make(chan struct{}),
	}, nil
}

// Serve runs the accept loop until Shutdown is called or an unrecoverable
// accept error propagates after the backoff ladder is exhausted.
func (l *Listener) Serve() error {
	backoffIdx := 0
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.terminate:
				return nil
			default:
			}
			if backoffIdx >= len(backoffSchedule) {
				return fmt.Errorf("netsvc: accept failed after exhausting backoff: %w", err)
			}
			wait := backoffSchedule[backoffIdx]
			backoffIdx++
			if l.logger != nil {
				l.logger.Printf("accept error, retrying in %s: %v", wait, err)
			}
			time.Sleep(wait)
			continue
		}
		backoffIdx = 0

		select {
		case l.sem <- struct{}{}:
		default:
			conn.Close()
			continue
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer func() { <-l.sem }()
			c := NewConn(conn, l.sysAuth, l.newRun(), l.logger, l.terminate)
			c.Serve()
		}()
	}
}

// Shutdown signals every handler to exit after its current request, closes
// the listening socket, then blocks until every handler has drained.
func (l *Listener) Shutdown() error {
	l.closeOnce.Do(func() { close(l.terminate) })
	err := l.ln.Close()
	l.wg.Wait()
	return err
}
