package sigv4stream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/harunnryd/transcribestream/pkg/eventstream"
)

const (
	algorithm       = "AWS4-HMAC-SHA256-PAYLOAD"
	credentialTerm  = "aws4_request"
	dateHeaderName  = ":date"
	signatureHeader = ":chunk-signature"
)

// Signer maintains the rolling prior-signature chain for SigV4
// event-stream chunk signing. A Signer is owned by exactly one outbound
// pipeline; it is not safe to share prior_signature across streams, but
// the internal lock makes a single Signer safe to call from one
// goroutine at a time without the caller having to reason about ordering
// itself.
type Signer struct {
	region  string
	service string
	date    string // YYYYMMDD, the date the signing key was derived for

	signingKey []byte

	mu             sync.Mutex
	priorSignature string // lowercase hex, 64 chars
}

// New derives the signing key from secretKey/date/region/service (the
// four-step AWS4 HMAC chain) and seeds prior_signature with the hex
// signature of the initial HTTP request.
func New(secretKey, date, region, service, initialSignature string) *Signer {
	return &Signer{
		region:         region,
		service:        service,
		date:           date,
		signingKey:     deriveSigningKey(secretKey, date, region, service),
		priorSignature: initialSignature,
	}
}

func deriveSigningKey(secretKey, date, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), date)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, credentialTerm)
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *Signer) credentialScope() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.date, s.region, s.service, credentialTerm)
}

// SignChunk signs payload at the given time, producing the
// :date/:chunk-signature frame headers and advancing prior_signature.
// now is truncated to whole-second precision before use (see DESIGN.md):
// the signer path must not carry millisecond precision the way general
// Timestamp headers do, since both peers must derive the same
// date_header_block bytes.
func (s *Signer) SignChunk(payload []byte) (eventstream.Message, error) {
	now := time.Now().UTC()
	return s.signChunkAt(now, payload)
}

func (s *Signer) signChunkAt(now time.Time, payload []byte) (eventstream.Message, error) {
	truncated := now.Truncate(time.Second)

	dateHeaders := eventstream.Headers{eventstream.TimestampHeader(dateHeaderName, truncated)}
	dateHeaderBlock, err := dateHeaders.Encode()
	if err != nil {
		return eventstream.Message{}, err
	}

	isoBasic := truncated.Format("20060102T150405Z")

	s.mu.Lock()
	prior := s.priorSignature
	stringToSign := algorithm + "\n" +
		isoBasic + "\n" +
		s.credentialScope() + "\n" +
		prior + "\n" +
		sha256Hex(dateHeaderBlock) + "\n" +
		sha256Hex(payload)

	signature := hex.EncodeToString(hmacSHA256(s.signingKey, stringToSign))
	s.priorSignature = signature
	s.mu.Unlock()

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return eventstream.Message{}, err
	}

	headers := eventstream.Headers{
		eventstream.TimestampHeader(dateHeaderName, truncated),
		eventstream.ByteArrayHeader(signatureHeader, sigBytes),
	}
	return eventstream.Message{Headers: headers, Payload: payload}, nil
}

// PriorSignature returns the current chain value, mostly useful for tests
// and diagnostics. It is not safe to mutate the returned value into a new
// Signer's seed without understanding the chain is per-stream.
func (s *Signer) PriorSignature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priorSignature
}
