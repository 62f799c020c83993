// Package session drives the per-connection state machine: it interprets
// the Handshake, Status, and Login stages packet by packet, switches the
// connection into compressed framing at the moment the server announces a
// compression threshold, and then hands both sockets off to the relay for
// the opaque Configuration/Play stages.
//
// Run generalizes the usual one-goroutine-per-connection handleConn loop
// to a two-socket proxy: one goroutine drives this entire sequential
// interpretation, then spawns the two relay goroutines and waits for both
// to report on a shared result channel, the same way a ClientTransport
// hands a result back to a waiting caller over a channel.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sehnryr/minecraft-go-proxy/internal/frame"
	"github.com/sehnryr/minecraft-go-proxy/internal/logging"
	"github.com/sehnryr/minecraft-go-proxy/internal/protocol"
	"github.com/sehnryr/minecraft-go-proxy/internal/relay"
	"github.com/sehnryr/minecraft-go-proxy/internal/statusmutate"
	"github.com/sehnryr/minecraft-go-proxy/internal/wire"
)

// Stage is a phase of the per-connection state machine.
type Stage int

const (
	StageHandshake Stage = iota
	StageStatus
	StageLogin
	StageConfiguration
	StagePlay
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageHandshake:
		return "Handshake"
	case StageStatus:
		return "Status"
	case StageLogin:
		return "Login"
	case StageConfiguration:
		return "Configuration"
	case StagePlay:
		return "Play"
	case StageEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// State is the per-connection state: the current stage and, once
// negotiated, the compression threshold (nil means uncompressed).
type State struct {
	Stage       Stage
	Compression *int
}

// ErrUnknownPacketID is returned when a packet id is seen in the Login
// stage that's outside the enumerated dispatch table below. This is a
// hard error: Configuration/Play tolerate unknown ids because those stages
// are opaque relays, but Login is fully interpreted, so an unrecognized id
// there means the client and server have drifted out of sync with what
// this proxy understands.
var ErrUnknownPacketID = errors.New("session: unknown packet id")

// Packet ids interpreted by the state machine. Unlabeled ids pass through
// opaquely; only these are ever switched on.
const (
	idHandshakeHandshake = 0x00

	idStatusRequest = 0x00
	idPingPong      = 0x01

	idHelloServerBound  = 0x00
	idLoginDisconnect   = 0x00
	idEncryptionRequest = 0x01
	idLoginKey          = 0x01
	idCustomQueryAnswer = 0x02
	idLoginFinished     = 0x02
	idLoginAcknowledged = 0x03
	idLoginCompression  = 0x03
	idCustomQuery       = 0x04
	idCookieResponse    = 0x04
	idCookieRequest     = 0x05
)

// Run drives the interpreted prologue on one accepted client connection and
// its dialed upstream connection, then blocks until both relay directions
// have terminated. It returns the final negotiated State regardless of
// whether an error also occurred, so callers can record what was
// negotiated even on a failed or short (Status-only) session.
func Run(ctx context.Context, clientConn, serverConn net.Conn, log *logging.Logger) (State, error) {
	mode := frame.Off
	state := State{Stage: StageHandshake}

	handshake, mode, err := runHandshake(clientConn, serverConn, mode, log)
	if err != nil {
		return state, fmt.Errorf("session: handshake stage: %w", err)
	}

	switch handshake.Intent {
	case protocol.IntentStatus:
		state.Stage = StageStatus
	case protocol.IntentLogin, protocol.IntentTransfer:
		state.Stage = StageLogin
	}

	if state.Stage == StageStatus {
		if err := runStatus(clientConn, serverConn, mode, log); err != nil {
			return state, fmt.Errorf("session: status stage: %w", err)
		}
		return state, nil
	}

	mode, err = runLogin(clientConn, serverConn, mode, log)
	if err != nil {
		return state, fmt.Errorf("session: login stage: %w", err)
	}
	if threshold, ok := mode.Compressed(); ok {
		state.Compression = &threshold
	}
	state.Stage = StageConfiguration

	if err := relay.RunBoth(ctx, clientConn, serverConn, mode, log); err != nil {
		return state, err
	}
	return state, nil
}

// runHandshake reads one packet from the client, forwards it to the server
// verbatim, and decodes it to learn the next stage.
func runHandshake(clientConn, serverConn net.Conn, mode frame.Mode, log *logging.Logger) (protocol.Handshake, frame.Mode, error) {
	pkt, err := frame.ReadPacket(clientConn, mode)
	if err != nil {
		return protocol.Handshake{}, mode, fmt.Errorf("read handshake packet: %w", err)
	}
	if pkt.ID != idHandshakeHandshake {
		return protocol.Handshake{}, mode, fmt.Errorf("unexpected packet id %d in Handshake stage", pkt.ID)
	}

	handshake, err := protocol.DecodeHandshake(pkt.Payload)
	if err != nil {
		return protocol.Handshake{}, mode, fmt.Errorf("decode handshake: %w", err)
	}
	log.Debugf("handshake: protocol=%d address=%s:%d intent=%s",
		handshake.ProtocolVersion, handshake.ServerAddress, handshake.ServerPort, handshake.Intent)

	if err := frame.WritePacket(serverConn, pkt, mode); err != nil {
		return protocol.Handshake{}, mode, fmt.Errorf("forward handshake packet: %w", err)
	}

	return handshake, mode, nil
}

// runStatus drives the four-packet Status-stage exchange, injecting the
// status description marker into the server's status_response before
// forwarding it.
func runStatus(clientConn, serverConn net.Conn, mode frame.Mode, log *logging.Logger) error {
	// client -> server: status_request
	if err := forward(clientConn, serverConn, mode); err != nil {
		return fmt.Errorf("forward status_request: %w", err)
	}

	// server -> client: status_response, mutated
	resp, err := frame.ReadPacket(serverConn, mode)
	if err != nil {
		return fmt.Errorf("read status_response: %w", err)
	}
	if resp.ID != idStatusRequest {
		return fmt.Errorf("unexpected packet id %d for status_response", resp.ID)
	}
	// The status_response payload is one VarInt-length-prefixed JSON string.
	statusJSON, err := wire.ReadBytes(bytes.NewReader(resp.Payload))
	if err != nil {
		return fmt.Errorf("decode status_response json: %w", err)
	}
	mutated, err := statusmutate.InjectDescription(statusJSON)
	if err != nil {
		return fmt.Errorf("inject status description: %w", err)
	}
	mutatedPayload := &bytes.Buffer{}
	if err := wire.WriteBytes(mutatedPayload, mutated); err != nil {
		return fmt.Errorf("encode status_response json: %w", err)
	}
	log.Debugf("status_response: injected description marker")
	if err := frame.WritePacket(clientConn, frame.Packet{ID: resp.ID, Payload: mutatedPayload.Bytes()}, mode); err != nil {
		return fmt.Errorf("forward status_response: %w", err)
	}

	// client -> server: ping_request
	if err := forward(clientConn, serverConn, mode); err != nil {
		return fmt.Errorf("forward ping_request: %w", err)
	}

	// server -> client: pong_response
	if err := forward(serverConn, clientConn, mode); err != nil {
		return fmt.Errorf("forward pong_response: %w", err)
	}

	return nil
}

// runLogin drives the client's hello packet, then loops on server->client
// packets, dispatching by id against the known Login-stage messages, until
// either the server disconnects the client or login completes and
// Configuration begins.
func runLogin(clientConn, serverConn net.Conn, mode frame.Mode, log *logging.Logger) (frame.Mode, error) {
	helloPkt, err := frame.ReadPacket(clientConn, mode)
	if err != nil {
		return mode, fmt.Errorf("read hello packet: %w", err)
	}
	if helloPkt.ID != idHelloServerBound {
		return mode, fmt.Errorf("unexpected packet id %d for hello", helloPkt.ID)
	}
	hello, err := protocol.DecodeHello(helloPkt.Payload)
	if err != nil {
		return mode, fmt.Errorf("decode hello: %w", err)
	}
	log.Debugf("login: player=%s uuid=%s", hello.Name, hello.UUID)
	if err := frame.WritePacket(serverConn, helloPkt, mode); err != nil {
		return mode, fmt.Errorf("forward hello: %w", err)
	}

	for {
		pkt, err := frame.ReadPacket(serverConn, mode)
		if err != nil {
			return mode, fmt.Errorf("read login-stage server packet: %w", err)
		}

		switch pkt.ID {
		case idLoginDisconnect:
			if err := frame.WritePacket(clientConn, pkt, mode); err != nil {
				return mode, fmt.Errorf("forward login_disconnect: %w", err)
			}
			return mode, nil

		case idEncryptionRequest:
			if err := frame.WritePacket(clientConn, pkt, mode); err != nil {
				return mode, fmt.Errorf("forward encryption request: %w", err)
			}
			if err := forwardID(clientConn, serverConn, mode, idLoginKey); err != nil {
				return mode, fmt.Errorf("forward key packet: %w", err)
			}

		case idLoginFinished:
			if err := frame.WritePacket(clientConn, pkt, mode); err != nil {
				return mode, fmt.Errorf("forward login_finished: %w", err)
			}
			if err := forwardID(clientConn, serverConn, mode, idLoginAcknowledged); err != nil {
				return mode, fmt.Errorf("forward login_acknowledged: %w", err)
			}
			return mode, nil

		case idLoginCompression:
			lc, err := protocol.DecodeLoginCompression(pkt.Payload)
			if err != nil {
				return mode, fmt.Errorf("decode login_compression: %w", err)
			}
			// The login_compression packet itself is always framed
			// uncompressed; the new mode takes effect starting with the
			// very next frame in either direction.
			if err := frame.WritePacket(clientConn, pkt, mode); err != nil {
				return mode, fmt.Errorf("forward login_compression: %w", err)
			}
			if lc.Size >= 0 {
				mode = frame.NewCompressed(int(lc.Size))
				log.Debugf("login: compression enabled, threshold=%d", lc.Size)
			} else {
				mode = frame.Off
				log.Debugf("login: compression disabled")
			}

		case idCustomQuery:
			if err := frame.WritePacket(clientConn, pkt, mode); err != nil {
				return mode, fmt.Errorf("forward custom_query: %w", err)
			}
			if err := forwardID(clientConn, serverConn, mode, idCustomQueryAnswer); err != nil {
				return mode, fmt.Errorf("forward custom_query_answer: %w", err)
			}

		case idCookieRequest:
			if err := frame.WritePacket(clientConn, pkt, mode); err != nil {
				return mode, fmt.Errorf("forward cookie_request: %w", err)
			}
			if err := forwardID(clientConn, serverConn, mode, idCookieResponse); err != nil {
				return mode, fmt.Errorf("forward cookie_response: %w", err)
			}

		default:
			return mode, fmt.Errorf("%w: %d", ErrUnknownPacketID, pkt.ID)
		}
	}
}

// forward reads one packet from src and writes it verbatim to dst.
func forward(src, dst net.Conn, mode frame.Mode) error {
	pkt, err := frame.ReadPacket(src, mode)
	if err != nil {
		return err
	}
	return frame.WritePacket(dst, pkt, mode)
}

// forwardID reads one packet from the client and forwards it to the server,
// asserting its id matches expectID — used for the client replies the
// Login-stage dispatch table expects after certain server messages (key,
// login_acknowledged, custom_query_answer, cookie_response).
func forwardID(clientConn, serverConn net.Conn, mode frame.Mode, expectID int32) error {
	pkt, err := frame.ReadPacket(clientConn, mode)
	if err != nil {
		return err
	}
	if pkt.ID != expectID {
		return fmt.Errorf("expected packet id %d, got %d", expectID, pkt.ID)
	}
	return frame.WritePacket(serverConn, pkt, mode)
}
