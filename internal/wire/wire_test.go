package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/uuid"
)

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		buf := &bytes.Buffer{}
		if err := WriteBool(buf, v); err != nil {
			t.Fatalf("WriteBool(%v) failed: %v", v, err)
		}
		got, err := ReadBool(buf)
		if err != nil {
			t.Fatalf("ReadBool failed: %v", err)
		}
		if got != v {
			t.Errorf("round trip mismatch: wrote %v, read %v", v, got)
		}
	}
}

func TestScalarRoundTrips(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteU16(buf, 0xBEEF); err != nil {
		t.Fatalf("WriteU16 failed: %v", err)
	}
	if err := WriteU32(buf, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	if err := WriteU64(buf, 0x0123456789ABCDEF); err != nil {
		t.Fatalf("WriteU64 failed: %v", err)
	}
	if err := WriteF32(buf, 3.5); err != nil {
		t.Fatalf("WriteF32 failed: %v", err)
	}
	if err := WriteF64(buf, 2.71828); err != nil {
		t.Fatalf("WriteF64 failed: %v", err)
	}

	if got, err := ReadU16(buf); err != nil || got != 0xBEEF {
		t.Errorf("ReadU16 = %x, %v; want 0xBEEF, nil", got, err)
	}
	if got, err := ReadU32(buf); err != nil || got != 0xDEADBEEF {
		t.Errorf("ReadU32 = %x, %v; want 0xDEADBEEF, nil", got, err)
	}
	if got, err := ReadU64(buf); err != nil || got != 0x0123456789ABCDEF {
		t.Errorf("ReadU64 = %x, %v; want 0x0123456789ABCDEF, nil", got, err)
	}
	if got, err := ReadF32(buf); err != nil || got != 3.5 {
		t.Errorf("ReadF32 = %v, %v; want 3.5, nil", got, err)
	}
	if got, err := ReadF64(buf); err != nil || got != 2.71828 {
		t.Errorf("ReadF64 = %v, %v; want 2.71828, nil", got, err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	want := "play.example.com"
	if err := WriteString(buf, want); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	got, err := ReadString(buf)
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: wrote %q, read %q", want, got)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	want := []byte{0x01, 0x02, 0x03, 0xFF}
	if err := WriteBytes(buf, want); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}
	got, err := ReadBytes(buf)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("round trip mismatch: wrote % x, read % x", want, got)
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	want := UUID{uuid.New()}
	if err := WriteUUID(buf, want); err != nil {
		t.Fatalf("WriteUUID failed: %v", err)
	}
	got, err := ReadUUID(buf)
	if err != nil {
		t.Fatalf("ReadUUID failed: %v", err)
	}
	if got.UUID != want.UUID {
		t.Errorf("round trip mismatch: wrote %s, read %s", want, got)
	}
}

func TestPrefixedOptionRoundTrip(t *testing.T) {
	decodeU8 := func(r io.Reader) (uint8, error) {
		return ReadU8(r)
	}

	buf := &bytes.Buffer{}
	var absent *uint8
	if err := WritePrefixedOption(buf, absent, WriteU8); err != nil {
		t.Fatalf("WritePrefixedOption(nil) failed: %v", err)
	}
	got, err := ReadPrefixedOption(buf, decodeU8)
	if err != nil {
		t.Fatalf("ReadPrefixedOption failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", *got)
	}

	present := uint8(42)
	if err := WritePrefixedOption(buf, &present, WriteU8); err != nil {
		t.Fatalf("WritePrefixedOption(&42) failed: %v", err)
	}
	got, err = ReadPrefixedOption(buf, decodeU8)
	if err != nil {
		t.Fatalf("ReadPrefixedOption failed: %v", err)
	}
	if got == nil || *got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestOptionSentinelRoundTrip(t *testing.T) {
	decodeU8 := func(r io.Reader) (uint8, error) {
		return ReadU8(r)
	}

	b := &bytes.Buffer{}
	var absent *uint8
	if err := WriteOption(b, absent, WriteU8); err != nil {
		t.Fatalf("WriteOption(nil) failed: %v", err)
	}
	r := NewReader(b)
	got, err := ReadOption(r, decodeU8)
	if err != nil {
		t.Fatalf("ReadOption failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", *got)
	}

	present := uint8(7)
	b2 := &bytes.Buffer{}
	if err := WriteOption(b2, &present, WriteU8); err != nil {
		t.Fatalf("WriteOption(&7) failed: %v", err)
	}
	r2 := NewReader(b2)
	got, err = ReadOption(r2, decodeU8)
	if err != nil {
		t.Fatalf("ReadOption failed: %v", err)
	}
	if got == nil || *got != 7 {
		t.Errorf("expected 7, got %v", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	buf := &bytes.Buffer{}
	want := payload{Name: "status", N: 772}
	if err := WriteJSON(buf, want); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var got payload
	if err := ReadJSON(buf, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: wrote %+v, read %+v", want, got)
	}
}
