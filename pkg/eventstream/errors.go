package eventstream

import "errors"

// Decode errors. Each is a distinct sentinel so callers (and the inbound
// demultiplexer's propagation policy) can distinguish a truncated buffer
// from a checksum mismatch without string matching.
var (
	ErrFrameTooShort           = errors.New("eventstream: frame shorter than 16 bytes")
	ErrFrameLengthMismatch     = errors.New("eventstream: declared total_length does not match buffer length")
	ErrPreludeChecksumMismatch = errors.New("eventstream: prelude checksum mismatch")
	ErrMessageChecksumMismatch = errors.New("eventstream: message checksum mismatch")
	ErrHeaderTruncated         = errors.New("eventstream: truncated header block")
	ErrHeaderUnknownTag        = errors.New("eventstream: unknown header type tag")
	ErrHeaderInvalidUTF8       = errors.New("eventstream: header name is not valid utf-8")
	ErrHeaderNameTooLong       = errors.New("eventstream: header name exceeds 255 bytes")
	ErrHeaderValueTooLong      = errors.New("eventstream: header value exceeds 65535 bytes")
	ErrUUIDLength              = errors.New("eventstream: uuid header value must be 16 bytes")
)
