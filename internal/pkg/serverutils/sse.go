package serverutils

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// SetSSEHeaders prepares a response for server-sent events.
func SetSSEHeaders(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
}

// SSEWriter frames values as "data: <json>\n\n" and flushes each one so the
// client sees it immediately.
type SSEWriter struct {
	w *bufio.Writer
}

func NewSSEWriter(w *bufio.Writer) *SSEWriter {
	return &SSEWriter{w: w}
}

func (s *SSEWriter) WriteEvent(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	// A flush error means the client went away.
	return s.w.Flush()
}

// SSEFrame renders one event for a response written in a single piece.
func SSEFrame(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}
