package b64

import (
	"bytes"
	"testing"

	"github.com/argus-authz/pep-client-go/internal/buffer"
)

func TestIdempotence(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("f"),
		[]byte("fo"),
		[]byte("foo"),
		[]byte("foobar"),
		bytes.Repeat([]byte{0xff, 0x00, 0x7f, 0x80}, 100),
	}

	for _, in := range inputs {
		src := buffer.NewFromBytes(in)
		enc := buffer.New(0)
		if err := Encode(enc, src, 0); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		dec := buffer.New(0)
		enc.Rewind()
		Decode(dec, enc)

		if !bytes.Equal(dec.Bytes(), in) {
			t.Errorf("round-trip mismatch for %q: got %q", in, dec.Bytes())
		}
	}
}

func TestLineBreaking(t *testing.T) {
	in := bytes.Repeat([]byte("A"), 100)
	src := buffer.NewFromBytes(in)
	enc := buffer.New(0)
	if err := Encode(enc, src, DefaultLineLength); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	lines := bytes.Split(enc.Bytes(), []byte("\r\n"))
	// last element after the trailing CRLF is empty
	if len(lines) < 2 {
		t.Fatalf("expected at least one CRLF-delimited line, got %d", len(lines))
	}
	for i, line := range lines[:len(lines)-1] {
		if i < len(lines)-2 && len(line) != DefaultLineLength {
			t.Errorf("line %d: expected length %d, got %d", i, DefaultLineLength, len(line))
		}
	}
	if len(lines[len(lines)-1]) != 0 {
		t.Errorf("expected output to end with CRLF, got trailing %q", lines[len(lines)-1])
	}
}

func TestEncodeRejectsLineLengthTooSmall(t *testing.T) {
	src := buffer.NewFromBytes([]byte("abc"))
	dst := buffer.New(0)
	if err := Encode(dst, src, 2); err == nil {
		t.Error("expected error for line length below minimum")
	}
}

func TestDecodeToleratesNoise(t *testing.T) {
	// "aGVsbG8=" is "hello"; interleave whitespace, CRLF, and junk.
	noisy := []byte("aGV s\r\nbG 8=***")
	src := buffer.NewFromBytes(noisy)
	dst := buffer.New(0)
	Decode(dst, src)

	if string(dst.Bytes()) != "hello" {
		t.Errorf("expected 'hello', got %q", dst.Bytes())
	}
}

func TestDecodeTruncatedFinalQuantum(t *testing.T) {
	// Two valid base64 characters (12 bits) recover exactly one byte.
	src := buffer.NewFromBytes([]byte("Zg"))
	dst := buffer.New(0)
	Decode(dst, src)

	if len(dst.Bytes()) != 1 || dst.Bytes()[0] != 'f' {
		t.Errorf("expected single byte 'f', got %q", dst.Bytes())
	}
}
