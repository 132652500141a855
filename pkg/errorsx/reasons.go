package errorsx

// ReasonCode is a short machine-readable error reason attached to a
// ReasonedError for logging and metrics tagging.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonFrameTooShort             ReasonCode = "frame_too_short"
	ReasonFrameLengthMismatch       ReasonCode = "frame_length_mismatch"
	ReasonPreludeChecksum           ReasonCode = "prelude_checksum_mismatch"
	ReasonMessageChecksum           ReasonCode = "message_checksum_mismatch"
	ReasonHeaderDecode              ReasonCode = "header_decode"
	ReasonProtocol                  ReasonCode = "protocol_error"
	ReasonServiceException          ReasonCode = "service_exception"
	ReasonTransport                 ReasonCode = "transport_error"
	ReasonSigning                   ReasonCode = "signing_error"
	ReasonTransportInvalidSignature ReasonCode = "webhook_invalid_signature"
)
