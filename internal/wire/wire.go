// Package wire implements the primitive and composite encode/decode
// contracts for the Minecraft Java Edition wire protocol: fixed-width
// big-endian scalars, length-prefixed strings and byte sequences, the two
// distinct optional-value encodings (Option and PrefixedOption), UUIDs, and
// length-prefixed JSON payloads.
//
// Each message type in package protocol implements its own Encode/Decode by
// calling the helpers here field by field, in declaration order — the same
// order is used on both sides by construction, which gives the same
// guarantee a reflection-based tag scanner would without needing one.
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/sehnryr/minecraft-go-proxy/internal/varint"
)

// ErrNegativeLength is returned when a length-prefixed sequence (String,
// Bytes, JSON payload) decodes a negative VarInt length.
var ErrNegativeLength = errors.New("wire: negative length prefix")

// Reader is a byte reader that additionally supports peeking one byte ahead,
// which Option[T]'s sentinel-style decode needs.
type Reader interface {
	io.Reader
	io.ByteScanner
}

// NewReader wraps r so it satisfies Reader, buffering only if necessary.
func NewReader(r io.Reader) Reader {
	if br, ok := r.(Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// ReadBool decodes a single-byte boolean: 0 is false, any other value is true.
func ReadBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, fmt.Errorf("wire: decode bool: %w", err)
	}
	return b[0] != 0, nil
}

// WriteBool encodes a boolean as a single byte.
func WriteBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// ReadU8 decodes an unsigned byte.
func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("wire: decode u8: %w", err)
	}
	return b[0], nil
}

// WriteU8 encodes an unsigned byte.
func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadU16 decodes a big-endian uint16.
func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("wire: decode u16: %w", err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// WriteU16 encodes a big-endian uint16.
func WriteU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadU32 decodes a big-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("wire: decode u32: %w", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// WriteU32 encodes a big-endian uint32.
func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadU64 decodes a big-endian uint64.
func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("wire: decode u64: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// WriteU64 encodes a big-endian uint64.
func WriteU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadF32 decodes an IEEE-754 big-endian float32 (bit-cast of its uint32 form).
func ReadF32(r io.Reader) (float32, error) {
	bits, err := ReadU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// WriteF32 encodes a float32 as its IEEE-754 big-endian bit pattern.
func WriteF32(w io.Writer, v float32) error {
	return WriteU32(w, math.Float32bits(v))
}

// ReadF64 decodes an IEEE-754 big-endian float64.
func ReadF64(r io.Reader) (float64, error) {
	bits, err := ReadU64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// WriteF64 encodes a float64 as its IEEE-754 big-endian bit pattern.
func WriteF64(w io.Writer, v float64) error {
	return WriteU64(w, math.Float64bits(v))
}

// readLength decodes a VarInt-encoded length and rejects negative values,
// per the "Vec<T> and String" contract: VarInt(len) || elements.
func readLength(r io.Reader) (int, error) {
	n, err := varint.DecodeInt32(r)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNegativeLength
	}
	return int(n), nil
}

// ReadString decodes a VarInt-length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	n, err := readLength(r)
	if err != nil {
		return "", fmt.Errorf("wire: decode string length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("wire: decode string bytes: %w", err)
	}
	return string(buf), nil
}

// WriteString encodes s as VarInt(len(s)) followed by its UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if _, err := varint.EncodeInt32(w, int32(len(s))); err != nil {
		return fmt.Errorf("wire: encode string length: %w", err)
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadBytes decodes a VarInt-length-prefixed byte sequence (Vec<u8>).
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode bytes length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("wire: decode bytes: %w", err)
	}
	return buf, nil
}

// WriteBytes encodes b as VarInt(len(b)) followed by the raw bytes.
func WriteBytes(w io.Writer, b []byte) error {
	if _, err := varint.EncodeInt32(w, int32(len(b))); err != nil {
		return fmt.Errorf("wire: encode bytes length: %w", err)
	}
	_, err := w.Write(b)
	return err
}

// UUID is a 16-byte big-endian 128-bit value, wrapping google/uuid for
// canonical 8-4-4-4-12 display and parsing.
type UUID struct {
	uuid.UUID
}

// NullUUID is the all-zero UUID.
var NullUUID = UUID{}

// ReadUUID decodes 16 raw big-endian bytes into a UUID.
func ReadUUID(r io.Reader) (UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return UUID{}, fmt.Errorf("wire: decode uuid: %w", err)
	}
	u, err := uuid.FromBytes(buf[:])
	if err != nil {
		return UUID{}, fmt.Errorf("wire: decode uuid: %w", err)
	}
	return UUID{u}, nil
}

// WriteUUID encodes u as 16 raw big-endian bytes.
func WriteUUID(w io.Writer, u UUID) error {
	b := u.UUID
	_, err := w.Write(b[:])
	return err
}

// ReadPrefixedOption decodes a PrefixedOption[T]: a boolean prefix followed,
// when true, by decode(r). Distinct from Option[T] below — PrefixedOption
// always spends a byte on the presence flag and never inspects T's encoding.
func ReadPrefixedOption[T any](r io.Reader, decode func(io.Reader) (T, error)) (*T, error) {
	present, err := ReadBool(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode prefixed option's boolean: %w", err)
	}
	if !present {
		return nil, nil
	}
	v, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode prefixed option's value: %w", err)
	}
	return &v, nil
}

// WritePrefixedOption encodes v as a PrefixedOption[T]: false if v is nil,
// otherwise true followed by encode(w, *v).
func WritePrefixedOption[T any](w io.Writer, v *T, encode func(io.Writer, T) error) error {
	if v == nil {
		return WriteBool(w, false)
	}
	if err := WriteBool(w, true); err != nil {
		return fmt.Errorf("wire: encode prefixed option's boolean: %w", err)
	}
	if err := encode(w, *v); err != nil {
		return fmt.Errorf("wire: encode prefixed option's value: %w", err)
	}
	return nil
}

// ReadOption decodes the codec's generic Option[T]: a "first-byte-is-zero"
// sentinel, distinct from PrefixedOption. Encode writes 0x00 for absent, or
// the inner T with no prefix for present; decode peeks one byte and, if it
// is non-zero, re-prepends it to the stream before decoding T.
//
// This conflates "absent" with "present but T's encoding starts with 0x00" —
// a deliberate quirk kept for fidelity with upstream framing rather than
// papered over. No wire message in this protocol uses Option[T] directly;
// it exists for internal use only.
func ReadOption[T any](r Reader, decode func(io.Reader) (T, error)) (*T, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("wire: decode option's sentinel byte: %w", err)
	}
	if b == 0x00 {
		return nil, nil
	}
	if err := r.UnreadByte(); err != nil {
		return nil, fmt.Errorf("wire: decode option: %w", err)
	}
	v, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode option's value: %w", err)
	}
	return &v, nil
}

// WriteOption encodes v as the codec's generic Option[T]: 0x00 if v is nil,
// otherwise the inner T with no prefix.
func WriteOption[T any](w io.Writer, v *T, encode func(io.Writer, T) error) error {
	if v == nil {
		_, err := w.Write([]byte{0x00})
		return err
	}
	return encode(w, *v)
}

// ReadJSON decodes a VarInt(byte_len) || utf8(json) payload into v.
func ReadJSON(r io.Reader, v any) error {
	n, err := readLength(r)
	if err != nil {
		return fmt.Errorf("wire: decode json length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("wire: decode json bytes: %w", err)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("wire: decode json: %w", err)
	}
	return nil
}

// WriteJSON serializes v and writes VarInt(byte_len) || utf8(json).
func WriteJSON(w io.Writer, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: encode json: %w", err)
	}
	return WriteBytes(w, buf)
}
