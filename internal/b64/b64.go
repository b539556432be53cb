// Package b64 implements the line-breaking base64 encode and the tolerant
// decode the client uses to wrap Hessian payloads for transport over HTTPS.
package b64

import (
	"encoding/base64"

	"github.com/argus-authz/pep-client-go/internal/buffer"
)

// DefaultLineLength is the number of encoded characters emitted per line
// before a CRLF is inserted, matching the original library's default.
const DefaultLineLength = 64

// MinLineLength is the smallest line length Encode accepts when line
// breaking is enabled.
const MinLineLength = 4

const alphabetStd = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Encode reads the full unread region of src and appends its base64
// encoding to dst using the standard alphabet with '=' padding. When
// lineLength > 0 a CRLF is inserted every lineLength encoded characters
// and a final CRLF terminates the output; lineLength must be >=
// MinLineLength in that case. lineLength <= 0 disables line breaking.
func Encode(dst, src *buffer.Buffer, lineLength int) error {
	if lineLength > 0 && lineLength < MinLineLength {
		return errLineLengthTooSmall
	}
	raw := src.Bytes()
	encoded := base64.StdEncoding.EncodeToString(raw)
	src.Skip(len(raw))

	if lineLength <= 0 {
		dst.AppendBytes([]byte(encoded))
		return nil
	}

	for len(encoded) > 0 {
		n := lineLength
		if n > len(encoded) {
			n = len(encoded)
		}
		dst.AppendBytes([]byte(encoded[:n]))
		dst.AppendBytes(crlf)
		encoded = encoded[n:]
	}
	return nil
}

var crlf = []byte{'\r', '\n'}

type b64Error string

func (e b64Error) Error() string { return string(e) }

const errLineLengthTooSmall = b64Error("b64: line length must be >= 4 when line breaking is enabled")

// Decode reads the full unread region of src, ignores any byte that is not
// part of the standard base64 alphabet (tolerating CRLF, other whitespace,
// and stray padding), and appends the decoded bytes to dst. A truncated
// final quantum contributes only the whole bytes it can recover; Decode
// never fails except on allocation.
func Decode(dst, src *buffer.Buffer) {
	raw := src.Bytes()
	filtered := make([]byte, 0, len(raw))
	for _, c := range raw {
		if isAlphabet(c) {
			filtered = append(filtered, c)
		}
	}
	src.Skip(len(raw))

	// Decode in full quanta of 4, recovering whatever whole bytes a
	// trailing partial quantum yields.
	for len(filtered) >= 4 {
		quantum := filtered[:4]
		filtered = filtered[4:]
		out, n := decodeQuantum(quantum, 0)
		dst.AppendBytes(out[:n])
	}
	if len(filtered) > 0 {
		out, n := decodeQuantum(padQuantum(filtered), 4-len(filtered))
		dst.AppendBytes(out[:n])
	}
}

func padQuantum(tail []byte) []byte {
	q := make([]byte, 4)
	copy(q, tail)
	for i := len(tail); i < 4; i++ {
		q[i] = 'A'
	}
	return q
}

// decodeQuantum decodes a full 4-character quantum, treating the last
// missingCount characters as padding (so only 3-missingCount output bytes
// are valid); it returns the decoded bytes (always length 3) and the
// number that are meaningful.
func decodeQuantum(q []byte, missingCount int) ([]byte, int) {
	var v uint32
	for _, c := range q {
		v = v<<6 | uint32(alphabetIndex(c))
	}
	out := []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	n := 3 - missingCount
	if n < 0 {
		n = 0
	}
	return out, n
}

var reverseAlphabet [256]int8

func init() {
	for i := range reverseAlphabet {
		reverseAlphabet[i] = -1
	}
	for i := 0; i < len(alphabetStd); i++ {
		reverseAlphabet[alphabetStd[i]] = int8(i)
	}
}

func isAlphabet(c byte) bool {
	return reverseAlphabet[c] >= 0
}

func alphabetIndex(c byte) int8 {
	v := reverseAlphabet[c]
	if v < 0 {
		return 0
	}
	return v
}
