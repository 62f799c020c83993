// Package fakeserver implements a minimal, real upstream server answering
// exactly the packet sequence the proxy's session state machine interprets:
// Handshake -> {Status: status_request/status_response, ping_request/
// pong_response | Login: hello/login_finished, login_acknowledged}.
//
// Something must answer real Minecraft-shaped frames for the proxy to be
// exercised end to end, both as a manual target (cmd/fakeserver) and as the
// scripted upstream in the relay/session test suites, so this package plays
// that role rather than requiring a real Minecraft server on hand.
package fakeserver

import (
	"bytes"
	"fmt"
	"net"

	"github.com/sehnryr/minecraft-go-proxy/internal/frame"
	"github.com/sehnryr/minecraft-go-proxy/internal/logging"
	"github.com/sehnryr/minecraft-go-proxy/internal/protocol"
	"github.com/sehnryr/minecraft-go-proxy/internal/wire"
)

// Config customizes the fake server's advertised status response.
type Config struct {
	VersionName     string
	ProtocolVersion int
	MaxPlayers      int
	OnlinePlayers   int
	MOTD            string
}

// DefaultConfig mirrors the original's hard-coded status payload: version
// 1.21.8, protocol 772, a 69-slot/42-online sample roster, and a colored
// MOTD.
func DefaultConfig() Config {
	return Config{
		VersionName:     "1.21.8",
		ProtocolVersion: 772,
		MaxPlayers:      69,
		OnlinePlayers:   42,
		MOTD:            "minecraft-go-proxy server 🦀",
	}
}

// Serve accepts one connection and drives it through Handshake and either
// Status or Login to completion, then returns. It does not handle
// Configuration/Play — those are out of scope for the fake upstream, same
// as the real proxy core.
func Serve(conn net.Conn, cfg Config, log *logging.Logger) error {
	defer conn.Close()

	mode := frame.Off

	pkt, err := frame.ReadPacket(conn, mode)
	if err != nil {
		return fmt.Errorf("fakeserver: read handshake: %w", err)
	}
	handshake, err := protocol.DecodeHandshake(pkt.Payload)
	if err != nil {
		return fmt.Errorf("fakeserver: decode handshake: %w", err)
	}
	log.Debugf("fakeserver: handshake intent=%s", handshake.Intent)

	switch handshake.Intent {
	case protocol.IntentStatus:
		return handleStatus(conn, mode, cfg)
	case protocol.IntentLogin, protocol.IntentTransfer:
		return handleLogin(conn, mode)
	default:
		return fmt.Errorf("fakeserver: unknown intent %s", handshake.Intent)
	}
}

type sample struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type statusPayload struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int      `json:"max"`
		Online int      `json:"online"`
		Sample []sample `json:"sample"`
	} `json:"players"`
	Description struct {
		Text  string `json:"text"`
		Color string `json:"color"`
	} `json:"description"`
}

func handleStatus(conn net.Conn, mode frame.Mode, cfg Config) error {
	// status_request: empty payload
	req, err := frame.ReadPacket(conn, mode)
	if err != nil {
		return fmt.Errorf("fakeserver: read status_request: %w", err)
	}
	if len(req.Payload) != 0 {
		return fmt.Errorf("fakeserver: status_request payload should be empty")
	}

	var payload statusPayload
	payload.Version.Name = cfg.VersionName
	payload.Version.Protocol = cfg.ProtocolVersion
	payload.Players.Max = cfg.MaxPlayers
	payload.Players.Online = cfg.OnlinePlayers
	payload.Players.Sample = []sample{
		{ID: wire.NullUUID.String(), Name: "Player 0"},
		{ID: wire.NullUUID.String(), Name: "Player 1"},
		{ID: wire.NullUUID.String(), Name: "Player 2"},
	}
	payload.Description.Text = cfg.MOTD
	payload.Description.Color = "#d34516"

	buf := &bytes.Buffer{}
	if err := wire.WriteJSON(buf, payload); err != nil {
		return fmt.Errorf("fakeserver: encode status response: %w", err)
	}

	if err := frame.WritePacket(conn, frame.Packet{ID: 0x00, Payload: buf.Bytes()}, mode); err != nil {
		return fmt.Errorf("fakeserver: write status_response: %w", err)
	}

	// ping_request: echo the same id and data back as pong_response.
	ping, err := frame.ReadPacket(conn, mode)
	if err != nil {
		return fmt.Errorf("fakeserver: read ping_request: %w", err)
	}
	if err := frame.WritePacket(conn, ping, mode); err != nil {
		return fmt.Errorf("fakeserver: write pong_response: %w", err)
	}

	return nil
}

func handleLogin(conn net.Conn, mode frame.Mode) error {
	pkt, err := frame.ReadPacket(conn, mode)
	if err != nil {
		return fmt.Errorf("fakeserver: read hello: %w", err)
	}
	hello, err := protocol.DecodeHello(pkt.Payload)
	if err != nil {
		return fmt.Errorf("fakeserver: decode hello: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := wire.WriteUUID(buf, hello.UUID); err != nil {
		return fmt.Errorf("fakeserver: encode login_finished uuid: %w", err)
	}
	if err := wire.WriteString(buf, hello.Name); err != nil {
		return fmt.Errorf("fakeserver: encode login_finished name: %w", err)
	}
	if err := protocol.EncodeProperties(buf, nil); err != nil {
		return fmt.Errorf("fakeserver: encode login_finished properties: %w", err)
	}

	if err := frame.WritePacket(conn, frame.Packet{ID: 0x02, Payload: buf.Bytes()}, mode); err != nil {
		return fmt.Errorf("fakeserver: write login_finished: %w", err)
	}

	ack, err := frame.ReadPacket(conn, mode)
	if err != nil {
		return fmt.Errorf("fakeserver: read login_acknowledged: %w", err)
	}
	if len(ack.Payload) != 0 {
		return fmt.Errorf("fakeserver: login_acknowledged payload should be empty")
	}

	return nil
}
