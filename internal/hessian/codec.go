package hessian

import (
	"encoding/binary"
	"math"

	"github.com/argus-authz/pep-client-go/internal/buffer"
)

// Serialize writes v's wire representation to buf. It returns an
// ErrUnexpectedTag error when v (or a value nested in it) is not one of this
// package's value types; allocation failure surfaces as a runtime panic
// rather than a returned error.
func Serialize(buf *buffer.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		buf.AppendByte(TagNull)
	case Null:
		buf.AppendByte(TagNull)
	case Bool:
		buf.AppendByte(val.Tag())
	case Int:
		buf.AppendByte(TagInt)
		writeInt32(buf, int32(val))
	case Long:
		buf.AppendByte(TagLong)
		writeInt64(buf, int64(val))
	case Double:
		buf.AppendByte(TagDouble)
		writeInt64(buf, int64(math.Float64bits(float64(val))))
	case Date:
		buf.AppendByte(TagDate)
		writeInt64(buf, int64(val))
	case String:
		writeCountedChunks(buf, string(val), TagStrChunk, TagStrFinal)
	case Xml:
		writeCountedChunks(buf, string(val), TagXmlChunk, TagXmlFinal)
	case Binary:
		writeBinaryChunks(buf, []byte(val))
	case Remote:
		buf.AppendByte(TagRemote)
		writeTypeSection(buf, val.Type)
		writeFinalStringChunk(buf, val.URL, TagStrFinal)
	case *List:
		buf.AppendByte(TagListV)
		if val.HasType {
			writeTypeSection(buf, val.Type)
		}
		if len(val.Elements) > 0 {
			buf.AppendByte(TagLength)
			writeInt32(buf, int32(len(val.Elements)))
		}
		for _, e := range val.Elements {
			if err := Serialize(buf, e); err != nil {
				return err
			}
		}
		buf.AppendByte(TagEnd)
	case *Map:
		buf.AppendByte(TagMapM)
		if val.HasType {
			writeTypeSection(buf, val.Type)
		}
		for _, p := range val.Entries {
			if err := Serialize(buf, p.Key); err != nil {
				return err
			}
			if err := Serialize(buf, p.Value); err != nil {
				return err
			}
		}
		buf.AppendByte(TagEnd)
	case Ref:
		buf.AppendByte(TagRef)
		writeInt32(buf, int32(val))
	default:
		return newErr(ErrUnexpectedTag, "serialize: unsupported value type %T", v)
	}
	return nil
}

func writeInt32(buf *buffer.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.AppendBytes(b[:])
}

func writeInt64(buf *buffer.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.AppendBytes(b[:])
}

func writeUint16(buf *buffer.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.AppendBytes(b[:])
}

func writeTypeSection(buf *buffer.Buffer, typeName string) {
	buf.AppendByte(TagType)
	writeUint16(buf, uint16(utf8RuneCount(typeName)))
	buf.AppendBytes([]byte(typeName))
}

func writeFinalStringChunk(buf *buffer.Buffer, s string, finalTag Tag) {
	buf.AppendByte(finalTag)
	writeUint16(buf, uint16(utf8RuneCount(s)))
	buf.AppendBytes([]byte(s))
}

// writeCountedChunks emits s (a String or Xml) as zero or more non-final
// chunks followed by one final chunk, splitting on character (not byte)
// boundaries of at most MaxChunk characters each, never splitting a
// multi-byte UTF-8 sequence across a chunk boundary.
func writeCountedChunks(buf *buffer.Buffer, s string, chunkTag, finalTag Tag) {
	offsets := utf8ChunkOffsets(s, MaxChunk)
	start := 0
	for i, end := range offsets {
		piece := s[start:end]
		isLast := i == len(offsets)-1
		tag := chunkTag
		if isLast {
			tag = finalTag
		}
		buf.AppendByte(tag)
		writeUint16(buf, uint16(utf8RuneCount(piece)))
		buf.AppendBytes([]byte(piece))
		start = end
	}
}

// writeBinaryChunks emits data as zero or more non-final chunks of at most
// MaxChunk bytes each, followed by one final chunk, counted by byte length.
func writeBinaryChunks(buf *buffer.Buffer, data []byte) {
	start := 0
	for {
		end := start + MaxChunk
		isLast := end >= len(data)
		if isLast {
			end = len(data)
		}
		tag := TagBinChunk
		if isLast {
			tag = TagBinFinal
		}
		buf.AppendByte(tag)
		writeUint16(buf, uint16(end-start))
		buf.AppendBytes(data[start:end])
		if isLast {
			return
		}
		start = end
	}
}

// Deserialize reads one complete value from buf, resolving any back
// references inside lists/maps it reads along the way.
func Deserialize(buf *buffer.Buffer) (Value, error) {
	return deserializeValue(buf)
}

func deserializeValue(buf *buffer.Buffer) (Value, error) {
	tag := buf.ConsumeByte()
	if tag == buffer.EOF {
		return nil, newErr(ErrTruncated, "unexpected end of input while reading tag")
	}
	return deserializeTagged(buf, byte(tag))
}

func deserializeTagged(buf *buffer.Buffer, tag byte) (Value, error) {
	switch tag {
	case TagNull:
		return Null{}, nil
	case TagTrue:
		return Bool(true), nil
	case TagFalse:
		return Bool(false), nil
	case TagInt:
		v, err := readInt32(buf)
		return Int(v), err
	case TagRef:
		v, err := readInt32(buf)
		return Ref(v), err
	case TagLong:
		v, err := readInt64(buf)
		return Long(v), err
	case TagDate:
		v, err := readInt64(buf)
		return Date(v), err
	case TagDouble:
		v, err := readInt64(buf)
		if err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(uint64(v))), nil
	case TagStrChunk, TagStrFinal:
		s, err := readCountedChunked(buf, tag, TagStrChunk, TagStrFinal)
		return String(s), err
	case TagXmlChunk, TagXmlFinal:
		s, err := readCountedChunked(buf, tag, TagXmlChunk, TagXmlFinal)
		return Xml(s), err
	case TagBinChunk, TagBinFinal:
		b, err := readBinaryChunked(buf, tag)
		return Binary(b), err
	case TagRemote:
		return deserializeRemote(buf)
	case TagListV:
		return deserializeList(buf)
	case TagMapM:
		return deserializeMap(buf)
	default:
		return nil, newErr(ErrUnexpectedTag, "unexpected tag %q", tag)
	}
}

func readInt32(buf *buffer.Buffer) (int32, error) {
	var b [4]byte
	n := buf.ConsumeBytes(b[:])
	if n != 4 {
		return 0, newErr(ErrTruncated, "expected 4 bytes, got %d", n)
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func readInt64(buf *buffer.Buffer) (int64, error) {
	var b [8]byte
	n := buf.ConsumeBytes(b[:])
	if n != 8 {
		return 0, newErr(ErrTruncated, "expected 8 bytes, got %d", n)
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func readUint16(buf *buffer.Buffer) (uint16, error) {
	var b [2]byte
	n := buf.ConsumeBytes(b[:])
	if n != 2 {
		return 0, newErr(ErrMalformedLength, "expected 2-byte length, got %d bytes", n)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// readCountedChunked reads the current chunk (whose tag was already
// consumed as `first`) and any subsequent non-final chunks until a final
// chunk is seen, accumulating the UTF-8 bytes of a String or Xml value.
func readCountedChunked(buf *buffer.Buffer, first, chunkTag, finalTag Tag) (string, error) {
	var out []byte
	tag := first
	for {
		count, err := readUint16(buf)
		if err != nil {
			return "", err
		}
		piece, err := readCountedUTF8(buf, int(count))
		if err != nil {
			return "", err
		}
		out = append(out, piece...)
		if tag == finalTag {
			return string(out), nil
		}
		next := buf.ConsumeByte()
		if next == buffer.EOF {
			return "", newErr(ErrTruncated, "unexpected end of input after non-final chunk")
		}
		tag = byte(next)
		if tag != chunkTag && tag != finalTag {
			return "", newErr(ErrUnexpectedTag, "expected chunk continuation tag, got %q", tag)
		}
	}
}

func readBinaryChunked(buf *buffer.Buffer, first byte) ([]byte, error) {
	var out []byte
	tag := first
	for {
		count, err := readUint16(buf)
		if err != nil {
			return nil, err
		}
		piece := make([]byte, count)
		n := buf.ConsumeBytes(piece)
		if n != int(count) {
			return nil, newErr(ErrTruncated, "expected %d binary bytes, got %d", count, n)
		}
		out = append(out, piece...)
		if tag == TagBinFinal {
			return out, nil
		}
		next := buf.ConsumeByte()
		if next == buffer.EOF {
			return nil, newErr(ErrTruncated, "unexpected end of input after non-final binary chunk")
		}
		tag = byte(next)
		if tag != TagBinChunk && tag != TagBinFinal {
			return nil, newErr(ErrUnexpectedTag, "expected binary chunk continuation tag, got %q", tag)
		}
	}
}

func deserializeRemote(buf *buffer.Buffer) (Value, error) {
	typeName, err := readOptionalTypeSection(buf)
	if err != nil {
		return nil, err
	}
	tag := buf.ConsumeByte()
	if tag == buffer.EOF {
		return nil, newErr(ErrTruncated, "unexpected end of input reading remote URL")
	}
	if byte(tag) != TagStrFinal && byte(tag) != TagStrChunk {
		return nil, newErr(ErrUnexpectedTag, "expected counted string for remote URL, got %q", byte(tag))
	}
	url, err := readCountedChunked(buf, byte(tag), TagStrChunk, TagStrFinal)
	if err != nil {
		return nil, err
	}
	return Remote{Type: typeName, URL: url}, nil
}

// readOptionalTypeSection peeks for a 't' tag and, if present, consumes and
// returns the type name; otherwise it leaves buf untouched and returns "".
func readOptionalTypeSection(buf *buffer.Buffer) (string, error) {
	if buf.Peek() != int(TagType) {
		return "", nil
	}
	buf.ConsumeByte()
	count, err := readUint16(buf)
	if err != nil {
		return "", err
	}
	raw, err := readCountedUTF8(buf, int(count))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// readOptionalLengthSection peeks for an 'l' tag and, if present, consumes
// the informational 32-bit count (value ignored per spec §4.4).
func readOptionalLengthSection(buf *buffer.Buffer) error {
	if buf.Peek() != int(TagLength) {
		return nil
	}
	buf.ConsumeByte()
	_, err := readInt32(buf)
	return err
}

func deserializeList(buf *buffer.Buffer) (Value, error) {
	typeName, err := readOptionalTypeSection(buf)
	if err != nil {
		return nil, err
	}
	if err := readOptionalLengthSection(buf); err != nil {
		return nil, err
	}

	l := &List{Type: typeName, HasType: typeName != ""}
	table := make([]Value, 0)

	for {
		if buf.Peek() == int(TagEnd) {
			buf.ConsumeByte()
			break
		}
		v, err := deserializeValue(buf)
		if err != nil {
			return nil, err
		}
		if ref, ok := v.(Ref); ok {
			resolved, err := resolveRef(table, ref)
			if err != nil {
				return nil, err
			}
			v = resolved
		}
		table = append(table, v)
		l.Elements = append(l.Elements, v)
	}
	return l, nil
}

func deserializeMap(buf *buffer.Buffer) (Value, error) {
	typeName, err := readOptionalTypeSection(buf)
	if err != nil {
		return nil, err
	}

	m := &Map{Type: typeName, HasType: typeName != ""}
	table := make([]Value, 0)

	for {
		if buf.Peek() == int(TagEnd) {
			buf.ConsumeByte()
			break
		}
		key, err := deserializeValue(buf)
		if err != nil {
			return nil, err
		}

		val, err := deserializeValue(buf)
		if err != nil {
			return nil, err
		}
		if ref, ok := val.(Ref); ok {
			resolved, err := resolveRef(table, ref)
			if err != nil {
				return nil, err
			}
			val = resolved
		}

		table = append(table, val)
		m.Entries = append(m.Entries, Pair{Key: key, Value: val})
	}
	return m, nil
}

// resolveRef looks up a back-reference in the enclosing container's
// completed-elements table. Per the redesign decision in DESIGN.md, an
// out-of-range index is a hard deserialization error rather than the
// original library's "log and leave the Ref in place" behavior.
func resolveRef(table []Value, ref Ref) (Value, error) {
	idx := int(ref)
	if idx < 0 || idx >= len(table) {
		return nil, newErr(ErrRefOutOfRange, "back-reference index %d out of range (table has %d entries)", idx, len(table))
	}
	return table[idx], nil
}
