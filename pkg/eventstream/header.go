package eventstream

import (
	"encoding/binary"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Type is the one-byte wire tag of a header value. The numeric value of
// each constant IS the wire format: do not reorder this block.
type Type uint8

const (
	TypeBoolTrue Type = iota
	TypeBoolFalse
	TypeByte
	TypeShort
	TypeInteger
	TypeLong
	TypeByteArray
	TypeString
	TypeTimestamp
	TypeUUID
)

func (t Type) valid() bool { return t <= TypeUUID }

// Header is a single named, typed value. Only one of the value fields is
// meaningful, selected by Type.
type Header struct {
	Name string
	Type Type

	byteVal  int8
	shortVal int16
	intVal   int32
	longVal  int64 // also used for Timestamp, as milliseconds since epoch
	bytes    []byte
	str      string
}

func BoolHeader(name string, v bool) Header {
	if v {
		return Header{Name: name, Type: TypeBoolTrue}
	}
	return Header{Name: name, Type: TypeBoolFalse}
}

func ByteHeader(name string, v int8) Header {
	return Header{Name: name, Type: TypeByte, byteVal: v}
}

func ShortHeader(name string, v int16) Header {
	return Header{Name: name, Type: TypeShort, shortVal: v}
}

func IntegerHeader(name string, v int32) Header {
	return Header{Name: name, Type: TypeInteger, intVal: v}
}

func LongHeader(name string, v int64) Header {
	return Header{Name: name, Type: TypeLong, longVal: v}
}

func ByteArrayHeader(name string, v []byte) Header {
	return Header{Name: name, Type: TypeByteArray, bytes: append([]byte(nil), v...)}
}

func StringHeader(name, v string) Header {
	return Header{Name: name, Type: TypeString, str: v}
}

// TimestampHeader encodes t as milliseconds since the Unix epoch, signed
// 64-bit big-endian on the wire.
func TimestampHeader(name string, t time.Time) Header {
	return Header{Name: name, Type: TypeTimestamp, longVal: t.UnixMilli()}
}

// UUIDHeader parses the canonical 8-4-4-4-12 textual form and stores the
// 16 raw bytes it decodes to.
func UUIDHeader(name, canonical string) (Header, error) {
	id, err := uuid.Parse(canonical)
	if err != nil {
		return Header{}, err
	}
	b := id[:]
	return Header{Name: name, Type: TypeUUID, bytes: append([]byte(nil), b...)}, nil
}

func (h Header) BoolValue() bool        { return h.Type == TypeBoolTrue }
func (h Header) ByteValue() int8        { return h.byteVal }
func (h Header) ShortValue() int16      { return h.shortVal }
func (h Header) IntegerValue() int32    { return h.intVal }
func (h Header) LongValue() int64       { return h.longVal }
func (h Header) ByteArrayValue() []byte { return append([]byte(nil), h.bytes...) }
func (h Header) StringValue() string    { return h.str }

// TimestampValue interprets LongValue as milliseconds since the Unix epoch.
func (h Header) TimestampValue() time.Time {
	return time.UnixMilli(h.longVal).UTC()
}

// UUIDValue formats the raw 16 bytes as a canonical 8-4-4-4-12 string.
func (h Header) UUIDValue() (string, error) {
	id, err := uuid.FromBytes(h.bytes)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (h Header) encodedLen() int {
	n := 1 + len(h.Name) + 1 // name_len + name + type_tag
	switch h.Type {
	case TypeBoolTrue, TypeBoolFalse:
	case TypeByte:
		n += 1
	case TypeShort:
		n += 2
	case TypeInteger:
		n += 4
	case TypeLong, TypeTimestamp:
		n += 8
	case TypeByteArray, TypeUUID:
		n += 2 + len(h.bytes)
	case TypeString:
		n += 2 + len(h.str)
	}
	return n
}

func (h Header) encodeInto(buf []byte) (int, error) {
	if len(h.Name) > 255 {
		return 0, ErrHeaderNameTooLong
	}
	if !h.Type.valid() {
		return 0, ErrHeaderUnknownTag
	}
	off := 0
	buf[off] = byte(len(h.Name))
	off++
	off += copy(buf[off:], h.Name)
	buf[off] = byte(h.Type)
	off++
	switch h.Type {
	case TypeBoolTrue, TypeBoolFalse:
	case TypeByte:
		buf[off] = byte(h.byteVal)
		off++
	case TypeShort:
		binary.BigEndian.PutUint16(buf[off:], uint16(h.shortVal))
		off += 2
	case TypeInteger:
		binary.BigEndian.PutUint32(buf[off:], uint32(h.intVal))
		off += 4
	case TypeLong, TypeTimestamp:
		binary.BigEndian.PutUint64(buf[off:], uint64(h.longVal))
		off += 8
	case TypeByteArray, TypeUUID:
		if h.Type == TypeUUID && len(h.bytes) != 16 {
			return 0, ErrUUIDLength
		}
		if len(h.bytes) > 65535 {
			return 0, ErrHeaderValueTooLong
		}
		binary.BigEndian.PutUint16(buf[off:], uint16(len(h.bytes)))
		off += 2
		off += copy(buf[off:], h.bytes)
	case TypeString:
		if len(h.str) > 65535 {
			return 0, ErrHeaderValueTooLong
		}
		binary.BigEndian.PutUint16(buf[off:], uint16(len(h.str)))
		off += 2
		off += copy(buf[off:], h.str)
	}
	return off, nil
}

func decodeHeader(buf []byte) (Header, int, error) {
	if len(buf) < 2 {
		return Header{}, 0, ErrHeaderTruncated
	}
	nameLen := int(buf[0])
	if len(buf) < 1+nameLen+1 {
		return Header{}, 0, ErrHeaderTruncated
	}
	nameBytes := buf[1 : 1+nameLen]
	if !utf8.Valid(nameBytes) {
		return Header{}, 0, ErrHeaderInvalidUTF8
	}
	name := string(nameBytes)
	off := 1 + nameLen
	tag := Type(buf[off])
	off++
	if !tag.valid() {
		return Header{}, 0, ErrHeaderUnknownTag
	}
	h := Header{Name: name, Type: tag}
	switch tag {
	case TypeBoolTrue, TypeBoolFalse:
	case TypeByte:
		if len(buf) < off+1 {
			return Header{}, 0, ErrHeaderTruncated
		}
		h.byteVal = int8(buf[off])
		off++
	case TypeShort:
		if len(buf) < off+2 {
			return Header{}, 0, ErrHeaderTruncated
		}
		h.shortVal = int16(binary.BigEndian.Uint16(buf[off:]))
		off += 2
	case TypeInteger:
		if len(buf) < off+4 {
			return Header{}, 0, ErrHeaderTruncated
		}
		h.intVal = int32(binary.BigEndian.Uint32(buf[off:]))
		off += 4
	case TypeLong, TypeTimestamp:
		if len(buf) < off+8 {
			return Header{}, 0, ErrHeaderTruncated
		}
		h.longVal = int64(binary.BigEndian.Uint64(buf[off:]))
		off += 8
	case TypeByteArray, TypeUUID:
		if len(buf) < off+2 {
			return Header{}, 0, ErrHeaderTruncated
		}
		vlen := int(binary.BigEndian.Uint16(buf[off:]))
		off += 2
		if len(buf) < off+vlen {
			return Header{}, 0, ErrHeaderTruncated
		}
		h.bytes = append([]byte(nil), buf[off:off+vlen]...)
		off += vlen
	case TypeString:
		if len(buf) < off+2 {
			return Header{}, 0, ErrHeaderTruncated
		}
		vlen := int(binary.BigEndian.Uint16(buf[off:]))
		off += 2
		if len(buf) < off+vlen {
			return Header{}, 0, ErrHeaderTruncated
		}
		valBytes := buf[off : off+vlen]
		h.str = string(valBytes)
		off += vlen
	}
	return h, off, nil
}

// Headers is an ordered list of typed headers. Duplicate names are
// permitted and preserved in order; lookups return the first match.
type Headers []Header

// Encode concatenates every header's wire encoding in order.
func (hs Headers) Encode() ([]byte, error) {
	total := 0
	for _, h := range hs {
		total += h.encodedLen()
	}
	buf := make([]byte, total)
	off := 0
	for _, h := range hs {
		n, err := h.encodeInto(buf[off:])
		if err != nil {
			return nil, err
		}
		off += n
	}
	return buf, nil
}

// DecodeHeaders walks buf until exhausted, decoding one header at a time.
func DecodeHeaders(buf []byte) (Headers, error) {
	var out Headers
	for len(buf) > 0 {
		h, n, err := decodeHeader(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
		buf = buf[n:]
	}
	return out, nil
}

// Get returns the first header with the given name.
func (hs Headers) Get(name string) (Header, bool) {
	for _, h := range hs {
		if h.Name == name {
			return h, true
		}
	}
	return Header{}, false
}

// GetString returns the value of the first String header with the given
// name, performing a static type check instead of a type-erased lookup.
func (hs Headers) GetString(name string) (string, bool) {
	h, ok := hs.Get(name)
	if !ok || h.Type != TypeString {
		return "", false
	}
	return h.str, true
}

func (hs Headers) GetByteArray(name string) ([]byte, bool) {
	h, ok := hs.Get(name)
	if !ok || h.Type != TypeByteArray {
		return nil, false
	}
	return h.ByteArrayValue(), true
}

func (hs Headers) GetTimestamp(name string) (time.Time, bool) {
	h, ok := hs.Get(name)
	if !ok || h.Type != TypeTimestamp {
		return time.Time{}, false
	}
	return h.TimestampValue(), true
}

func (hs Headers) GetBool(name string) (bool, bool) {
	h, ok := hs.Get(name)
	if !ok || (h.Type != TypeBoolTrue && h.Type != TypeBoolFalse) {
		return false, false
	}
	return h.BoolValue(), true
}
