// Package protocol defines the typed message shapes the proxy actually
// inspects: Handshake, Intent, Hello, LoginCompression, and the supplemental
// Property type used by the fake upstream server's login_finished reply.
// Every other packet id travels through the proxy as an opaque frame.Packet.
package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sehnryr/minecraft-go-proxy/internal/varint"
	"github.com/sehnryr/minecraft-go-proxy/internal/wire"
)

// Intent is the three-valued tag inside Handshake selecting the next stage.
type Intent int32

const (
	IntentStatus   Intent = 1
	IntentLogin    Intent = 2
	IntentTransfer Intent = 3
)

func (i Intent) String() string {
	switch i {
	case IntentStatus:
		return "Status"
	case IntentLogin:
		return "Login"
	case IntentTransfer:
		return "Transfer"
	default:
		return fmt.Sprintf("Intent(%d)", int32(i))
	}
}

// Handshake is the client->server id 0x00 packet sent in the Handshake
// stage. The proxy only decodes it; it never constructs one to send.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	Intent          Intent
}

// DecodeHandshake decodes a Handshake from its packet payload.
func DecodeHandshake(payload []byte) (Handshake, error) {
	r := bytes.NewReader(payload)

	protocolVersion, err := varint.DecodeInt32(r)
	if err != nil {
		return Handshake{}, fmt.Errorf("protocol: decode handshake protocol version: %w", err)
	}
	serverAddress, err := wire.ReadString(r)
	if err != nil {
		return Handshake{}, fmt.Errorf("protocol: decode handshake server address: %w", err)
	}
	serverPort, err := wire.ReadU16(r)
	if err != nil {
		return Handshake{}, fmt.Errorf("protocol: decode handshake server port: %w", err)
	}
	rawIntent, err := varint.DecodeInt32(r)
	if err != nil {
		return Handshake{}, fmt.Errorf("protocol: decode handshake intent: %w", err)
	}

	intent := Intent(rawIntent)
	switch intent {
	case IntentStatus, IntentLogin, IntentTransfer:
	default:
		return Handshake{}, fmt.Errorf("protocol: unknown Intent discriminant %d", rawIntent)
	}

	return Handshake{
		ProtocolVersion: protocolVersion,
		ServerAddress:   serverAddress,
		ServerPort:      serverPort,
		Intent:          intent,
	}, nil
}

// Encode writes h in its wire form: VarInt, String, u16, VarInt-enum.
func (h Handshake) Encode(w io.Writer) error {
	if _, err := varint.EncodeInt32(w, h.ProtocolVersion); err != nil {
		return fmt.Errorf("protocol: encode handshake protocol version: %w", err)
	}
	if err := wire.WriteString(w, h.ServerAddress); err != nil {
		return fmt.Errorf("protocol: encode handshake server address: %w", err)
	}
	if err := wire.WriteU16(w, h.ServerPort); err != nil {
		return fmt.Errorf("protocol: encode handshake server port: %w", err)
	}
	if _, err := varint.EncodeInt32(w, int32(h.Intent)); err != nil {
		return fmt.Errorf("protocol: encode handshake intent: %w", err)
	}
	return nil
}

// Hello is the login-start packet (client->server id 0x00 in Login stage).
type Hello struct {
	Name string
	UUID wire.UUID
}

// DecodeHello decodes a Hello from its packet payload.
func DecodeHello(payload []byte) (Hello, error) {
	r := bytes.NewReader(payload)

	name, err := wire.ReadString(r)
	if err != nil {
		return Hello{}, fmt.Errorf("protocol: decode player name: %w", err)
	}
	uuid, err := wire.ReadUUID(r)
	if err != nil {
		return Hello{}, fmt.Errorf("protocol: decode player uuid: %w", err)
	}

	return Hello{Name: name, UUID: uuid}, nil
}

// Encode writes h as String, UUID.
func (h Hello) Encode(w io.Writer) error {
	if err := wire.WriteString(w, h.Name); err != nil {
		return fmt.Errorf("protocol: encode player name: %w", err)
	}
	if err := wire.WriteUUID(w, h.UUID); err != nil {
		return fmt.Errorf("protocol: encode player uuid: %w", err)
	}
	return nil
}

// LoginCompression is the server->client id 0x03 packet in the Login stage
// that switches the connection into (or out of) compressed framing.
type LoginCompression struct {
	// Size is the compression threshold. Size >= 0 means "compress frames
	// whose raw (id||payload) length is >= Size bytes"; Size < 0 disables
	// compression.
	Size int32
}

// DecodeLoginCompression decodes a LoginCompression from its packet payload.
func DecodeLoginCompression(payload []byte) (LoginCompression, error) {
	r := bytes.NewReader(payload)
	size, err := varint.DecodeInt32(r)
	if err != nil {
		return LoginCompression{}, fmt.Errorf("protocol: decode compression threshold: %w", err)
	}
	return LoginCompression{Size: size}, nil
}

// Encode writes c's threshold as a VarInt.
func (c LoginCompression) Encode(w io.Writer) error {
	_, err := varint.EncodeInt32(w, c.Size)
	if err != nil {
		return fmt.Errorf("protocol: encode compression threshold: %w", err)
	}
	return nil
}

// Property is a player profile property (e.g. a signed skin texture). The
// transparent proxy never constructs these — it's carried for the fake
// upstream server's login_finished reply, alongside Hello's UUID and name.
type Property struct {
	Name      string
	Value     string
	Signature *string
}

// Encode writes p as String, String, PrefixedOption<String>.
func (p Property) Encode(w io.Writer) error {
	if err := wire.WriteString(w, p.Name); err != nil {
		return fmt.Errorf("protocol: encode property name: %w", err)
	}
	if err := wire.WriteString(w, p.Value); err != nil {
		return fmt.Errorf("protocol: encode property value: %w", err)
	}
	if err := wire.WritePrefixedOption(w, p.Signature, func(w io.Writer, s string) error {
		return wire.WriteString(w, s)
	}); err != nil {
		return fmt.Errorf("protocol: encode property signature: %w", err)
	}
	return nil
}

// EncodeProperties writes a VarInt-length-prefixed sequence of properties.
func EncodeProperties(w io.Writer, props []Property) error {
	if _, err := varint.EncodeInt32(w, int32(len(props))); err != nil {
		return fmt.Errorf("protocol: encode properties length: %w", err)
	}
	for i, p := range props {
		if err := p.Encode(w); err != nil {
			return fmt.Errorf("protocol: encode property %d: %w", i, err)
		}
	}
	return nil
}
