package eventstream

import (
	"encoding/binary"
	"io"
)

// FrameReader delimits individual frames off a continuous byte stream (an
// HTTP/2 response body, for instance) using the 4-byte total_length prefix
// every frame carries. The event-stream wire format does not guarantee one
// frame per transport-layer read, so this is the layer responsible for
// turning "some bytes arrived" into "here is one complete frame".
type FrameReader struct {
	r io.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// Next reads and returns the next complete frame's raw bytes, suitable for
// passing to Decode. It returns io.EOF only when the stream ends cleanly
// between frames.
func (fr *FrameReader) Next() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
		return nil, err
	}
	totalLength := binary.BigEndian.Uint32(lenBuf[:])
	if totalLength < MinFrameLength {
		return nil, ErrFrameTooShort
	}
	buf := make([]byte, totalLength)
	copy(buf, lenBuf[:])
	if _, err := io.ReadFull(fr.r, buf[4:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}
