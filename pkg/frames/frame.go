// Package frames is the typed event surface handed out by the inbound
// demultiplexer (pkg/transcribe) to its consumers: transcript text,
// control-plane signals, and stream lifecycle events. It has no
// knowledge of the event-stream wire format or HTTP/2; it exists so
// callers work with a small sum type instead of a type-erased channel
// of interface{}.
package frames

import (
	"sync"
	"time"
)

type Kind string

const (
	KindText    Kind = "text"
	KindControl Kind = "control"
	KindSystem  Kind = "system"
)

// ControlCode names a control-plane signal riding alongside transcript
// text: partial/final result boundaries and stream lifecycle events. The
// vocabulary is small and specific to a transcription stream rather than
// the open-ended call-control codes a conversational pipeline would need.
type ControlCode string

const (
	ControlPartialResult ControlCode = "partial_result"
	ControlFinalResult   ControlCode = "final_result"
	ControlFlush         ControlCode = "flush"
	ControlCancel        ControlCode = "cancel"
)

const (
	MetaStreamID  = "stream_id"
	MetaIsFinal   = "is_final"
	MetaResultID  = "result_id"
	MetaChannel   = "channel_id"
	MetaSpeaker   = "speaker"
	MetaStartTime = "start_time"
	MetaEndTime   = "end_time"
)

type Frame interface {
	Kind() Kind
	PTS() int64
	Meta() map[string]string
}

// TextFrame carries a decoded transcript segment. IsFinal (via Meta's
// MetaIsFinal) distinguishes a stabilized result from one AWS may still
// revise.
type TextFrame struct {
	pts  int64
	text string
	meta map[string]string
}

func NewTextFrame(streamID string, pts int64, text string, meta map[string]string) TextFrame {
	return TextFrame{
		pts:  pts,
		text: text,
		meta: mergeMeta(streamID, meta),
	}
}

func (t TextFrame) Kind() Kind              { return KindText }
func (t TextFrame) PTS() int64              { return t.pts }
func (t TextFrame) Meta() map[string]string { return cloneMeta(t.meta) }
func (t TextFrame) Text() string            { return t.text }

type ControlFrame struct {
	pts  int64
	code ControlCode
	meta map[string]string
}

func NewControlFrame(streamID string, pts int64, code ControlCode, meta map[string]string) ControlFrame {
	return ControlFrame{
		pts:  pts,
		code: code,
		meta: mergeMeta(streamID, meta),
	}
}

func (c ControlFrame) Kind() Kind              { return KindControl }
func (c ControlFrame) PTS() int64              { return c.pts }
func (c ControlFrame) Meta() map[string]string { return cloneMeta(c.meta) }
func (c ControlFrame) Code() ControlCode       { return c.code }

// SystemFrame carries connection-lifecycle events synthesized by the
// Inbound Pipeline (stream opened, stream closed) rather than anything
// decoded from a TranscriptEvent.
type SystemFrame struct {
	pts  int64
	name string
	meta map[string]string
}

func NewSystemFrame(streamID string, pts int64, name string, meta map[string]string) SystemFrame {
	return SystemFrame{
		pts:  pts,
		name: name,
		meta: mergeMeta(streamID, meta),
	}
}

func (s SystemFrame) Kind() Kind              { return KindSystem }
func (s SystemFrame) PTS() int64              { return s.pts }
func (s SystemFrame) Meta() map[string]string { return cloneMeta(s.meta) }
func (s SystemFrame) Name() string            { return s.name }

// PTSGen hands out strictly increasing presentation timestamps per
// stream, used by sources that don't carry their own clock.
type PTSGen struct {
	mu    sync.Mutex
	value map[string]int64
}

func NewPTSGen() *PTSGen {
	return &PTSGen{value: make(map[string]int64)}
}

func (g *PTSGen) Next(streamID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.value[streamID] + time.Millisecond.Nanoseconds()
	g.value[streamID] = v
	return v
}

func mergeMeta(streamID string, meta map[string]string) map[string]string {
	out := make(map[string]string, 2+len(meta))
	if streamID != "" {
		out[MetaStreamID] = streamID
	}
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func cloneMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
