package hessian

import (
	"unicode/utf8"

	"github.com/argus-authz/pep-client-go/internal/buffer"
)

// utf8ChunkOffsets returns the byte offsets, within s, of every chunkSize-th
// rune boundary (plus a final offset at len(s)), so that splitting s at
// these offsets never divides a multi-byte UTF-8 sequence. s is assumed to
// already be valid UTF-8 (it originated from a Go string).
func utf8ChunkOffsets(s string, chunkSize int) []int {
	var offsets []int
	count := 0
	for i := range s {
		if count > 0 && count%chunkSize == 0 {
			offsets = append(offsets, i)
		}
		count++
	}
	offsets = append(offsets, len(s))
	return offsets
}

// utf8RuneCount counts runes the way the wire protocol does: one per
// non-continuation byte. For valid UTF-8 this equals utf8.RuneCountInString.
func utf8RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}

// continuationLen returns how many continuation bytes (10xxxxxx) follow a
// UTF-8 leading byte b, per the wire's counting rule: 110xxxxx -> 1,
// 1110xxxx -> 2, 11110xxx -> 3, anything else (ASCII or malformed) -> 0.
func continuationLen(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 0
	case b&0xE0 == 0xC0:
		return 1
	case b&0xF0 == 0xE0:
		return 2
	case b&0xF8 == 0xF0:
		return 3
	default:
		return 0
	}
}

func isContinuationByte(b byte) bool {
	return b&0xC0 == 0x80
}

// readCountedUTF8 consumes exactly `count` characters (by the wire's
// leading-byte counting rule) from buf and returns the raw UTF-8 bytes.
func readCountedUTF8(buf *buffer.Buffer, count int) ([]byte, error) {
	var out []byte
	charsRead := 0
	remaining := 0
	for charsRead < count || remaining > 0 {
		b := buf.ConsumeByte()
		if b == buffer.EOF {
			return nil, newErr(ErrTruncated, "unexpected end of input while reading counted string (%d/%d chars)", charsRead, count)
		}
		out = append(out, byte(b))
		if remaining > 0 {
			remaining--
			continue
		}
		remaining = continuationLen(byte(b))
		charsRead++
	}
	return out, nil
}
