// Package proxyd wires together the listener accept loop, the upstream
// dialer, the optional session cache, and the per-connection state machine
// into the long-running proxy process.
package proxyd

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/sehnryr/minecraft-go-proxy/internal/logging"
	"github.com/sehnryr/minecraft-go-proxy/internal/session"
	"github.com/sehnryr/minecraft-go-proxy/internal/sessioncache"
)

// Config holds everything Run needs to start the proxy.
type Config struct {
	ProxyAddr     string   // address to listen on, e.g. ":35565"
	ServerAddr    string   // upstream Minecraft server address, e.g. "play.example.com:25565"
	Verbose       bool     // enable debug-level logging
	EtcdEndpoints []string // optional; empty means the session cache is disabled
	AcceptRate    float64  // accepted connections per second; 0 disables the limiter
	AcceptBurst   int      // accept-rate token bucket burst size
}

// Proxyd is the running proxy: a listener, an accept loop goroutine, and
// the machinery to track and shut down in-flight sessions.
type Proxyd struct {
	cfg      Config
	log      *logging.Logger
	listener net.Listener
	cache    *sessioncache.Cache
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// Run starts the proxy and blocks in the accept loop until ctx is
// canceled or the listener fails. It always closes the listener and waits
// for in-flight sessions to finish before returning.
func Run(ctx context.Context, cfg Config) error {
	log := logging.Default(cfg.Verbose)

	listener, err := net.Listen("tcp", cfg.ProxyAddr)
	if err != nil {
		return fmt.Errorf("proxyd: listen on %s: %w", cfg.ProxyAddr, err)
	}

	var cache *sessioncache.Cache
	if len(cfg.EtcdEndpoints) > 0 {
		cache, err = sessioncache.New(cfg.EtcdEndpoints)
		if err != nil {
			log.Errorf("proxyd: session cache disabled: %v", err)
			cache = nil
		}
	}

	p := &Proxyd{cfg: cfg, log: log, listener: listener, cache: cache}
	defer p.close()

	go func() {
		<-ctx.Done()
		p.shutdown.Store(true)
		p.listener.Close()
	}()

	return p.acceptLoop(ctx)
}

func (p *Proxyd) close() {
	p.listener.Close()
	p.wg.Wait()
	if p.cache != nil {
		p.cache.Close()
	}
}

// acceptLoop accepts inbound client connections, one goroutine per
// connection, same as the usual RPC server's accept loop, with an
// optional token-bucket rate limiter guarding against accept storms.
func (p *Proxyd) acceptLoop(ctx context.Context) error {
	var limiter *rate.Limiter
	if p.cfg.AcceptRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.cfg.AcceptRate), p.cfg.AcceptBurst)
	}

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			if p.shutdown.Load() {
				return nil
			}
			return fmt.Errorf("proxyd: accept: %w", err)
		}

		if limiter != nil && !limiter.Allow() {
			p.log.Debugf("proxyd: accept rate exceeded, rejecting %s", conn.RemoteAddr())
			conn.Close()
			continue
		}

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.handleClient(ctx, conn)
		}()
	}
}

// handleClient dials the upstream server and drives the per-connection
// state machine for one accepted client connection.
func (p *Proxyd) handleClient(ctx context.Context, clientConn net.Conn) {
	defer clientConn.Close()

	connLog := p.log.WithConn(clientConn.RemoteAddr().String())

	if tc, ok := clientConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	serverConn, err := dialer.DialContext(ctx, "tcp", p.cfg.ServerAddr)
	if err != nil {
		connLog.Errorf("proxyd: dial upstream %s: %v", p.cfg.ServerAddr, err)
		return
	}
	defer serverConn.Close()

	if tc, ok := serverConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	// Closing both connections on shutdown unblocks a session that is still
	// waiting on a read in the interpreted prologue.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			clientConn.Close()
			serverConn.Close()
		case <-stop:
		}
	}()

	remoteAddr := clientConn.RemoteAddr().String()
	if p.cache != nil {
		if entry, found := p.cache.Lookup(ctx, remoteAddr); found {
			connLog.Debugf("proxyd: prior session found, threshold=%d intent=%s",
				entry.CompressionThreshold, entry.Intent)
		}
	}

	state, err := session.Run(ctx, clientConn, serverConn, connLog)
	if err != nil {
		connLog.Errorf("proxyd: session ended: %v", err)
	}

	if p.cache != nil {
		threshold := -1
		if state.Compression != nil {
			threshold = *state.Compression
		}
		entry := sessioncache.Entry{CompressionThreshold: threshold, Intent: state.Stage.String()}
		if err := p.cache.Remember(ctx, remoteAddr, entry); err != nil {
			connLog.Debugf("proxyd: session cache write failed: %v", err)
		}
	}
}
