// Package eventstream implements the binary "vnd.amazon.eventstream" wire
// format: a length-prefixed sequence of typed headers followed by an opaque
// payload and two CRC-32/IEEE checksums. It has no knowledge of HTTP/2,
// SigV4, or the transcription domain; those live in pkg/sigv4stream and
// pkg/transcribe, which build on top of the Message and Headers types here.
package eventstream
