package protocol

import (
	"bytes"
	"testing"

	"github.com/google/uuid"

	"github.com/sehnryr/minecraft-go-proxy/internal/wire"
)

func TestHandshakeRoundTrip(t *testing.T) {
	want := Handshake{
		ProtocolVersion: 772,
		ServerAddress:   "play.example.com",
		ServerPort:      25565,
		Intent:          IntentLogin,
	}
	buf := &bytes.Buffer{}
	if err := want.Encode(buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeHandshake(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeHandshake failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: wrote %+v, read %+v", want, got)
	}
}

func TestDecodeHandshakeRejectsUnknownIntent(t *testing.T) {
	want := Handshake{ProtocolVersion: 772, ServerAddress: "x", ServerPort: 1, Intent: Intent(99)}
	buf := &bytes.Buffer{}
	if err := want.Encode(buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := DecodeHandshake(buf.Bytes()); err == nil {
		t.Fatal("expected an error decoding an unknown Intent discriminant")
	}
}

func TestIntentString(t *testing.T) {
	cases := map[Intent]string{
		IntentStatus:   "Status",
		IntentLogin:    "Login",
		IntentTransfer: "Transfer",
		Intent(42):     "Intent(42)",
	}
	for intent, want := range cases {
		if got := intent.String(); got != want {
			t.Errorf("Intent(%d).String() = %q, want %q", intent, got, want)
		}
	}
}

func TestHelloRoundTrip(t *testing.T) {
	want := Hello{Name: "Steve", UUID: wire.UUID{UUID: uuid.New()}}
	buf := &bytes.Buffer{}
	if err := want.Encode(buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeHello(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeHello failed: %v", err)
	}
	if got.Name != want.Name || got.UUID.UUID != want.UUID.UUID {
		t.Errorf("round trip mismatch: wrote %+v, read %+v", want, got)
	}
}

func TestLoginCompressionRoundTrip(t *testing.T) {
	for _, size := range []int32{-1, 0, 256} {
		want := LoginCompression{Size: size}
		buf := &bytes.Buffer{}
		if err := want.Encode(buf); err != nil {
			t.Fatalf("Encode(%d) failed: %v", size, err)
		}
		got, err := DecodeLoginCompression(buf.Bytes())
		if err != nil {
			t.Fatalf("DecodeLoginCompression(%d) failed: %v", size, err)
		}
		if got != want {
			t.Errorf("round trip mismatch for size %d: got %+v", size, got)
		}
	}
}

func TestEncodePropertiesWithSignature(t *testing.T) {
	sig := "signed-blob"
	props := []Property{
		{Name: "textures", Value: "base64...", Signature: &sig},
		{Name: "unsigned", Value: "v", Signature: nil},
	}
	buf := &bytes.Buffer{}
	if err := EncodeProperties(buf, props); err != nil {
		t.Fatalf("EncodeProperties failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty encoding")
	}
}
