// Package relay implements the post-interpretation bidirectional pump: once
// the session state machine has finished the Handshake/Status/Login
// prologue, two independent pumps — one per direction — read framed packets
// in the established compression mode and write them to the opposite side,
// verbatim, until either side hits EOF or a broken pipe.
//
// A goroutine is the natural unit of concurrency for this shape (the
// pattern shows up throughout this codebase: go svr.handleConn(conn), go
// svr.handleRequest(...), go transport.recvLoop()), so no raw-thread or
// duplicated-file-descriptor machinery is introduced here — net.Conn
// already supports one reader and one writer goroutine operating on it
// concurrently.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/sehnryr/minecraft-go-proxy/internal/frame"
	"github.com/sehnryr/minecraft-go-proxy/internal/logging"
)

// Mutator rewrites a packet before it's forwarded. It returns the
// (possibly unchanged) packet.
type Mutator func(frame.Packet) (frame.Packet, error)

// RunBoth spawns the client->server and server->client pumps and blocks
// until both have terminated, mirroring the state machine thread waiting on
// two single-shot channels for the relay goroutines it spawned.
func RunBoth(ctx context.Context, clientConn, serverConn net.Conn, mode frame.Mode, log *logging.Logger) error {
	done := make(chan error, 2)

	// There are no read/write timeouts and no explicit cancel signal in the
	// wire protocol, but the process-level context is still honored as a
	// shutdown mechanism the idiomatic Go way: closing the connections
	// unblocks whichever pump is mid-read.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			clientConn.Close()
			serverConn.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	go func() {
		done <- Pump(clientConn, serverConn, mode, log.WithConn("c->s"), nil)
	}()
	go func() {
		done <- Pump(serverConn, clientConn, mode, log.WithConn("s->c"), nil)
	}()

	err1 := <-done
	err2 := <-done

	if err1 != nil {
		return err1
	}
	return err2
}

// Pump reads framed packets from "from" and writes them to "to", optionally
// passing each through mutate first, until EOF or a fatal error. A broken
// pipe on write is treated as clean termination, not an error — the peer
// simply closed its side.
func Pump(from, to net.Conn, mode frame.Mode, log *logging.Logger, mutate Mutator) error {
	// Closing "to" on the way out propagates teardown to the paired pump:
	// its "from" is this same connection, so a blocked ReadPacket there
	// unblocks instead of waiting forever on a peer that will never send
	// more data once this direction has already ended.
	defer to.Close()

	for {
		pkt, err := frame.ReadPacket(from, mode)
		if err != nil {
			if isCleanClose(err) {
				log.Debugf("relay: source closed, stopping pump")
				return nil
			}
			return fmt.Errorf("relay: read packet: %w", err)
		}

		if mutate != nil {
			pkt, err = mutate(pkt)
			if err != nil {
				return fmt.Errorf("relay: mutate packet: %w", err)
			}
		}

		if err := frame.WritePacket(to, pkt, mode); err != nil {
			if isCleanClose(err) {
				log.Debugf("relay: destination closed, stopping pump")
				return nil
			}
			return fmt.Errorf("relay: write packet: %w", err)
		}
	}
}

// isCleanClose reports whether err represents a peer-initiated close that
// should terminate a pump without being logged as a failure: EOF on read, a
// broken pipe / connection reset on write, or a read/write on a connection
// that has already been closed (net.ErrClosed, io.ErrClosedPipe).
func isCleanClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	return false
}
