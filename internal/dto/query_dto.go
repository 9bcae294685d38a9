package dto

const (
	StreamEventStart = "start"
	StreamEventToken = "token"
	StreamEventEnd   = "end"
	StreamEventError = "error"
)

type QueryRequest struct {
	Question string `json:"question" validate:"required"`
}

// StreamEvent is one SSE "data:" payload of an answer stream.
type StreamEvent struct {
	Type    string   `json:"type"`
	Sources []string `json:"sources,omitempty"`
	Content string   `json:"content,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func StartEvent(sources []string) StreamEvent {
	return StreamEvent{Type: StreamEventStart, Sources: sources}
}

func TokenEvent(content string) StreamEvent {
	return StreamEvent{Type: StreamEventToken, Content: content}
}

func EndEvent(sources []string) StreamEvent {
	return StreamEvent{Type: StreamEventEnd, Sources: sources}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: StreamEventError, Error: message}
}
