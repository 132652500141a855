package eventstream

import (
	"encoding/binary"
	"hash/crc32"
)

// preludeLength is the byte length of total_length + headers_length, the
// portion covered by the prelude checksum.
const preludeLength = 8

// MinFrameLength is the smallest possible encoded frame: empty headers,
// empty payload, 16 bytes of prelude/checksums.
const MinFrameLength = 16

// Message is one event-stream frame: an ordered header list plus an opaque
// payload. It has no notion of HTTP/2 framing or chunk signing; those are
// layered on top by pkg/sigv4stream and pkg/transcribe.
type Message struct {
	Headers Headers
	Payload []byte
}

// Encode produces the wire bytes for m: a 12-byte prelude (total_length,
// headers_length, prelude CRC), the encoded headers, the payload, and a
// trailing message CRC, all big-endian.
func (m Message) Encode() ([]byte, error) {
	headerBytes, err := m.Headers.Encode()
	if err != nil {
		return nil, err
	}
	totalLength := MinFrameLength + len(headerBytes) + len(m.Payload)
	buf := make([]byte, totalLength)

	binary.BigEndian.PutUint32(buf[0:4], uint32(totalLength))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(headerBytes)))
	binary.BigEndian.PutUint32(buf[8:12], crc32.ChecksumIEEE(buf[0:preludeLength]))

	copy(buf[12:], headerBytes)
	copy(buf[12+len(headerBytes):], m.Payload)

	binary.BigEndian.PutUint32(buf[totalLength-4:totalLength], crc32.ChecksumIEEE(buf[0:totalLength-4]))
	return buf, nil
}

// Decode parses buf as exactly one frame. buf must already be delimited to
// a single frame's bytes by the caller (e.g. a length-prefixed reader over
// the HTTP/2 response body); this layer does not scan for frame
// boundaries across a longer buffer.
func Decode(buf []byte) (Message, error) {
	if len(buf) < MinFrameLength {
		return Message{}, ErrFrameTooShort
	}
	totalLength := binary.BigEndian.Uint32(buf[0:4])
	if int(totalLength) != len(buf) {
		return Message{}, ErrFrameLengthMismatch
	}
	headersLength := binary.BigEndian.Uint32(buf[4:8])
	preludeCRC := binary.BigEndian.Uint32(buf[8:12])
	if crc32.ChecksumIEEE(buf[0:preludeLength]) != preludeCRC {
		return Message{}, ErrPreludeChecksumMismatch
	}

	if uint64(12)+uint64(headersLength)+4 > uint64(totalLength) {
		return Message{}, ErrFrameLengthMismatch
	}

	msgCRC := binary.BigEndian.Uint32(buf[totalLength-4 : totalLength])
	if crc32.ChecksumIEEE(buf[0:totalLength-4]) != msgCRC {
		return Message{}, ErrMessageChecksumMismatch
	}

	headerBytes := buf[12 : 12+headersLength]
	payload := buf[12+headersLength : totalLength-4]

	headers, err := DecodeHeaders(headerBytes)
	if err != nil {
		return Message{}, err
	}
	return Message{Headers: headers, Payload: append([]byte(nil), payload...)}, nil
}
