// Package frame implements the packet framer: length-prefixed framing with
// a mode switch. Uncompressed mode frames are VarInt(len) || VarInt(id) ||
// payload. Compressed mode frames gain an extra VarInt prefix that either
// declares size zero (payload follows verbatim) or the decompressed size of
// a zlib-compressed id+payload blob.
package frame

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/sehnryr/minecraft-go-proxy/internal/varint"
)

// ErrCorrupt is returned when a compressed frame's inflated size does not
// match its declared uncompressed length.
var ErrCorrupt = errors.New("frame: corrupt compressed frame")

// ErrNegativeLength is returned when a frame or inner length prefix decodes
// to a negative value.
var ErrNegativeLength = errors.New("frame: negative length prefix")

// Mode selects the framing mode for a stream. The zero value is Off
// (uncompressed). Use NewCompressed to enable zlib-thresholded framing.
type Mode struct {
	compressed bool
	threshold  int
}

// Off is the uncompressed framing mode.
var Off = Mode{}

// NewCompressed returns a compressed framing mode with the given threshold:
// raw (id || payload) byte sequences of length >= threshold are deflated.
func NewCompressed(threshold int) Mode {
	return Mode{compressed: true, threshold: threshold}
}

// Compressed reports whether m is a compressed mode, and if so its threshold.
func (m Mode) Compressed() (threshold int, ok bool) {
	return m.threshold, m.compressed
}

// Packet is an opaque (id, payload) pair — the unit the framer moves. Only
// the id is interpreted by the session state machine; the payload travels
// as raw bytes end to end unless a mutator rewrites it.
type Packet struct {
	ID      int32
	Payload []byte
}

// ReadPacket reads one framed packet from r under the given mode.
func ReadPacket(r io.Reader, mode Mode) (Packet, error) {
	if !mode.compressed {
		return readUncompressed(r)
	}
	return readCompressed(r)
}

// WritePacket writes p to w, framed under the given mode.
func WritePacket(w io.Writer, p Packet, mode Mode) error {
	if !mode.compressed {
		return writeUncompressed(w, p)
	}
	return writeCompressed(w, p, mode.threshold)
}

// readFrameBuf reads one frame's length prefix and body. A clean,
// zero-length peek at the start of a new frame (no bytes at all available
// before the peer closed) is reported as a bare io.EOF so callers can
// distinguish "the peer is done" from "the peer sent a truncated frame",
// which is a hard decode error (io.ErrUnexpectedEOF, wrapped).
func readFrameBuf(r io.Reader) ([]byte, error) {
	var first [1]byte
	n, err := r.Read(first[:])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("frame: read frame length: %w", err)
	}

	lenReader := io.MultiReader(bytes.NewReader(first[:]), r)
	frameLen, err := varint.DecodeInt32(lenReader)
	if err != nil {
		return nil, fmt.Errorf("frame: decode frame length: %w", err)
	}
	if frameLen < 0 {
		return nil, ErrNegativeLength
	}
	buf := make([]byte, frameLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("frame: decode frame body: %w", err)
	}
	return buf, nil
}

func readUncompressed(r io.Reader) (Packet, error) {
	buf, err := readFrameBuf(r)
	if err != nil {
		return Packet{}, err
	}
	return decodeIDAndPayload(buf)
}

func writeUncompressed(w io.Writer, p Packet) error {
	idBuf := &bytes.Buffer{}
	if _, err := varint.EncodeInt32(idBuf, p.ID); err != nil {
		return fmt.Errorf("frame: encode packet id: %w", err)
	}

	frameLen := int32(idBuf.Len() + len(p.Payload))
	if _, err := varint.EncodeInt32(w, frameLen); err != nil {
		return fmt.Errorf("frame: encode frame length: %w", err)
	}
	if _, err := w.Write(idBuf.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(p.Payload)
	return err
}

func decodeIDAndPayload(buf []byte) (Packet, error) {
	r := bytes.NewReader(buf)
	id, err := varint.DecodeInt32(r)
	if err != nil {
		return Packet{}, fmt.Errorf("frame: decode packet id: %w", err)
	}
	payload := make([]byte, r.Len())
	if _, err := io.ReadFull(r, payload); err != nil {
		return Packet{}, fmt.Errorf("frame: decode packet payload: %w", err)
	}
	return Packet{ID: id, Payload: payload}, nil
}

func readCompressed(r io.Reader) (Packet, error) {
	buf, err := readFrameBuf(r)
	if err != nil {
		return Packet{}, err
	}

	br := bytes.NewReader(buf)
	dataLen, err := varint.DecodeInt32(br)
	if err != nil {
		return Packet{}, fmt.Errorf("frame: decode uncompressed data length: %w", err)
	}
	if dataLen < 0 {
		return Packet{}, ErrNegativeLength
	}

	rest := make([]byte, br.Len())
	if _, err := io.ReadFull(br, rest); err != nil {
		return Packet{}, fmt.Errorf("frame: decode compressed body: %w", err)
	}

	if dataLen == 0 {
		return decodeIDAndPayload(rest)
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return Packet{}, fmt.Errorf("frame: open zlib reader: %w", err)
	}
	defer zr.Close()

	inflated := make([]byte, dataLen)
	if _, err := io.ReadFull(zr, inflated); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, fmt.Errorf("%w: inflated size is less than declared length", ErrCorrupt)
		}
		return Packet{}, fmt.Errorf("frame: inflate body: %w", err)
	}
	if n, err := zr.Read(make([]byte, 1)); err == nil && n > 0 {
		return Packet{}, fmt.Errorf("%w: inflated size exceeds declared length", ErrCorrupt)
	}

	return decodeIDAndPayload(inflated)
}

func writeCompressed(w io.Writer, p Packet, threshold int) error {
	raw := &bytes.Buffer{}
	if _, err := varint.EncodeInt32(raw, p.ID); err != nil {
		return fmt.Errorf("frame: encode packet id: %w", err)
	}
	raw.Write(p.Payload)

	body := &bytes.Buffer{}
	var dataLen int32

	if raw.Len() >= threshold {
		dataLen = int32(raw.Len())
		zw := zlib.NewWriter(body)
		if _, err := zw.Write(raw.Bytes()); err != nil {
			return fmt.Errorf("frame: deflate body: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("frame: close zlib writer: %w", err)
		}
	} else {
		dataLen = 0
		body.Write(raw.Bytes())
	}

	dataLenBuf := &bytes.Buffer{}
	if _, err := varint.EncodeInt32(dataLenBuf, dataLen); err != nil {
		return fmt.Errorf("frame: encode uncompressed data length: %w", err)
	}

	frameLen := int32(dataLenBuf.Len() + body.Len())
	if _, err := varint.EncodeInt32(w, frameLen); err != nil {
		return fmt.Errorf("frame: encode frame length: %w", err)
	}
	if _, err := w.Write(dataLenBuf.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}
