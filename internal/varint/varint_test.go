package varint

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncodeDecodeInt32RoundTrip(t *testing.T) {
	cases := []int32{0, 1, 2, 127, 128, 255, 25565, -1, -2147483648, 2147483647}
	for _, v := range cases {
		buf := &bytes.Buffer{}
		n, err := EncodeInt32(buf, v)
		if err != nil {
			t.Fatalf("EncodeInt32(%d) failed: %v", v, err)
		}
		if n != SizeInt32(v) {
			t.Errorf("EncodeInt32(%d) wrote %d bytes, SizeInt32 predicted %d", v, n, SizeInt32(v))
		}
		got, err := DecodeInt32(buf)
		if err != nil {
			t.Fatalf("DecodeInt32 after encoding %d failed: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: encoded %d, decoded %d", v, got)
		}
	}
}

func TestEncodeDecodeInt64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, 128, -1, -9223372036854775808, 9223372036854775807}
	for _, v := range cases {
		buf := &bytes.Buffer{}
		if _, err := EncodeInt64(buf, v); err != nil {
			t.Fatalf("EncodeInt64(%d) failed: %v", v, err)
		}
		got, err := DecodeInt64(buf)
		if err != nil {
			t.Fatalf("DecodeInt64 after encoding %d failed: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: encoded %d, decoded %d", v, got)
		}
	}
}

func TestKnownEncodings(t *testing.T) {
	// Values taken from the well-known VarInt test vectors for this wire
	// format: 25565 -> 0xdd 0xc7 0x01, -1 -> 0xff 0xff 0xff 0xff 0x0f.
	cases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{25565, []byte{0xdd, 0xc7, 0x01}},
		{-1, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, c := range cases {
		buf := &bytes.Buffer{}
		if _, err := EncodeInt32(buf, c.v); err != nil {
			t.Fatalf("EncodeInt32(%d) failed: %v", c.v, err)
		}
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("EncodeInt32(%d) = % x, want % x", c.v, buf.Bytes(), c.want)
		}
	}
}

func TestDecodeInt32RejectsOverlongEncoding(t *testing.T) {
	// Five continuation bytes (a six-byte encoding) can never be a valid
	// VarInt (max is 5 bytes).
	buf := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01})
	if _, err := DecodeInt32(buf); !errors.Is(err, ErrInvalidVarInt) {
		t.Errorf("expected ErrInvalidVarInt, got %v", err)
	}
}

func TestDecodeInt32TruncatedStreamIsUnexpectedEOF(t *testing.T) {
	// A continuation byte with nothing following is a truncated stream, not
	// a clean EOF.
	buf := bytes.NewReader([]byte{0x80})
	if _, err := DecodeInt32(buf); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}
