package transcribe

import (
	"encoding/json"
	"strconv"

	"github.com/harunnryd/transcribestream/pkg/eventstream"
	"github.com/harunnryd/transcribestream/pkg/frames"
)

// Dispatch routes one decoded inbound frame by :message-type. It returns
// either the typed application frames to publish on the event source, or
// an error: a *ServiceException and *ProtocolError are both terminal; any
// other error returned from this function is a decode-layer error the
// caller should treat as non-terminal.
func Dispatch(msg eventstream.Message, streamID string, pts int64) ([]frames.Frame, error) {
	messageType, ok := msg.Headers.GetString(":message-type")
	if !ok {
		return nil, &ProtocolError{Reason: "missing :message-type header"}
	}

	switch messageType {
	case "event":
		return dispatchEvent(msg, streamID, pts)
	case "exception":
		return nil, dispatchException(msg)
	default:
		return nil, &ProtocolError{Reason: "unexpected :message-type " + messageType}
	}
}

func dispatchEvent(msg eventstream.Message, streamID string, pts int64) ([]frames.Frame, error) {
	var event TranscriptEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, err
	}

	var out []frames.Frame
	for _, result := range event.Transcript.Results {
		text := ""
		speaker := ""
		if len(result.Alternatives) > 0 {
			text = result.Alternatives[0].Transcript
			if items := result.Alternatives[0].Items; len(items) > 0 {
				speaker = items[0].Speaker
			}
		}
		meta := map[string]string{
			frames.MetaIsFinal:   boolStr(!result.IsPartial),
			frames.MetaResultID:  result.ResultId,
			frames.MetaChannel:   result.ChannelId,
			frames.MetaStartTime: formatTimestamp(result.StartTime),
			frames.MetaEndTime:   formatTimestamp(result.EndTime),
		}
		if speaker != "" {
			meta[frames.MetaSpeaker] = speaker
		}
		out = append(out, frames.NewTextFrame(streamID, pts, text, meta))

		code := frames.ControlPartialResult
		if !result.IsPartial {
			code = frames.ControlFinalResult
		}
		out = append(out, frames.NewControlFrame(streamID, pts, code, map[string]string{
			frames.MetaResultID: result.ResultId,
		}))
	}
	return out, nil
}

func dispatchException(msg eventstream.Message) *ServiceException {
	exceptionType, _ := msg.Headers.GetString(":exception-type")
	return &ServiceException{
		Type: ExceptionType(exceptionType),
		Body: append([]byte(nil), msg.Payload...),
	}
}

func boolStr(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func formatTimestamp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
