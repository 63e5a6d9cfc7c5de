package client

import (
	"context"
	"strings"
)

// ResponseChunk is one piece of a streamed chat reply.
type ResponseChunk struct {
	Text  string
	Done  bool
	Error error

	// Populated on the final chunk
	InputTokens  int
	OutputTokens int
}

// StreamingResponse delivers reply chunks; Chunks is closed when the stream ends.
type StreamingResponse struct {
	Chunks <-chan ResponseChunk
	Done   <-chan struct{}
}

// StreamHandler provides callbacks for handling streaming responses.
type StreamHandler struct {
	OnText     func(text string)
	OnError    func(err error)
	OnComplete func(text string)
}

// ProcessStream drains a streaming response, invoking the handler callbacks,
// and returns the accumulated text.
func ProcessStream(ctx context.Context, sr *StreamingResponse, handler *StreamHandler) (string, error) {
	var sb strings.Builder

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-sr.Chunks:
			if !ok {
				if handler.OnComplete != nil {
					handler.OnComplete(sb.String())
				}
				return sb.String(), nil
			}

			if chunk.Error != nil {
				if handler.OnError != nil {
					handler.OnError(chunk.Error)
				}
				return "", chunk.Error
			}

			if chunk.Text != "" {
				sb.WriteString(chunk.Text)
				if handler.OnText != nil {
					handler.OnText(chunk.Text)
				}
			}

			if chunk.Done {
				if handler.OnComplete != nil {
					handler.OnComplete(sb.String())
				}
				return sb.String(), nil
			}
		}
	}
}

// CollectText collects only the text from a stream.
func CollectText(ctx context.Context, sr *StreamingResponse) (string, error) {
	return ProcessStream(ctx, sr, &StreamHandler{})
}
