// Package sigv4stream implements the rolling SigV4 "event stream payload"
// chunk-signing discipline used to sign each outgoing event-stream frame
// against the signature of the frame that preceded it. It knows nothing
// about HTTP/2 or the transcription domain; it turns a payload and a prior
// signature into a signed eventstream.Message and a new prior signature.
package sigv4stream
