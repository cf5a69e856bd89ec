package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/storage/models"
	"github.com/student-bot/backend/pkg/logger"
)

type WebSocketHandler struct {
	queries *QueryHandler
}

func NewWebSocketHandler(queries *QueryHandler) *WebSocketHandler {
	return &WebSocketHandler{
		queries: queries,
	}
}

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
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
			return
		}

		if msg.Type != "query" {
			continue
		}

		text := strings.TrimSpace(msg.Content)
		if text == "" {
			h.sendError(c, "Query is required")
			continue
		}

		if err := h.streamResponse(c, text, msg.UserID); err != nil {
			logger.Error("Failed to stream response", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) streamResponse(c *websocket.Conn, text, userID string) error {
	record := h.queries.answer(context.Background(), text, userID)

	words := strings.Fields(record.Response)
	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		if err := h.sendChunk(c, word); err != nil {
			return err
		}
	}

	return h.sendComplete(c, record)
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    "chunk",
		"content": content,
	})
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, record *models.QueryRecord) error {
	return c.WriteJSON(map[string]interface{}{
		"type":       "complete",
		"message_id": record.ID,
		"response":   record.Response,
		"intent":     record.Intent,
		"cached":     record.CacheHit,
		"latency_ms": record.LatencyMS,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	if err := c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}); err != nil {
		logger.Debug("Failed to send WebSocket error", zap.Error(err))
	}
}
