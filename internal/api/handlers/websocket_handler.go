package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine Answerer
}

func NewWebSocketHandler(engine Answerer) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "query" {
			continue
		}

		text := strings.TrimSpace(msg.Content)
		if text == "" {
			h.sendError(c, "Query is required")
			continue
		}

		logger.Info("Processing WebSocket query", zap.String("query", text))

		if err := h.streamResponse(c, text); err != nil {
			logger.Error("Failed to stream response", zap.Error(err))
			break
		}
	}
}

// streamResponse sends a status frame, the answer one sentence at a time and
// a final frame carrying the full envelope.
func (h *WebSocketHandler) streamResponse(c *websocket.Conn, text string) error {
	if err := h.sendChunk(c, "status", "Processing query..."); err != nil {
		return err
	}

	env := h.engine.ProcessQuery(context.Background(), text)

	for _, sentence := range splitSentences(env.Response) {
		if err := h.sendChunk(c, "chunk", sentence); err != nil {
			return err
		}
	}

	return h.sendComplete(c, env)
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]any{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, env *query.Envelope) error {
	return c.WriteJSON(map[string]any{
		"type":       "complete",
		"message_id": env.ID,
		"envelope":   env,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	if err := c.WriteJSON(map[string]any{"type": "error", "error": errorMsg}); err != nil {
		logger.Debug("Failed to send WebSocket error", zap.Error(err))
	}
}

// splitSentences breaks an answer into sentences, each with a trailing
// space except the last. It falls back to the whole text.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{text}
	}

	sentences := doc.Sentences()
	if len(sentences) == 0 {
		return []string{text}
	}

	chunks := make([]string, 0, len(sentences))
	for i, s := range sentences {
		chunk := s.Text
		if i < len(sentences)-1 {
			chunk += " "
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
