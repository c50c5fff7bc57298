// ABOUTME: HTTP handlers for health, send, send-to, log and messages endpoints.
// ABOUTME: Validation fails fast before any call into the WhatsApp client.

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/2389/wa-relay/internal/resolver"
	"github.com/2389/wa-relay/internal/session"
)

const notReadyMessage = "WhatsApp client is not ready. Please authenticate first."

// SendToRequest is the JSON request body for POST /send-to.
type SendToRequest struct {
	Message  string `json:"message"`
	ChatName string `json:"chatName"`
	ChatID   string `json:"chatId"`
}

// handleHealth handles GET /health. Reports ready only when the session
// controller has an authenticated client.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status := "ready"
	code := http.StatusOK
	if !s.session.Ready() {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": timestamp(),
	})
}

// handleSend handles POST /send: relay a message to the default destination.
// Content comes from the first non-empty of message, text or content; if
// none is present the raw JSON body is re-serialized as the message, which
// existing callers (arbitrary JSON webhooks) depend on.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := messageContent(body)
	if strings.TrimSpace(text) == "" {
		s.sendError(w, http.StatusBadRequest, "No message content provided")
		return
	}

	if !s.session.Ready() {
		s.sendError(w, http.StatusServiceUnavailable, notReadyMessage)
		return
	}

	chat, err := s.session.Send(r.Context(), resolver.Destination{}, text)
	if err != nil {
		s.sendSendError(w, err)
		return
	}

	s.logger.Info("message sent via API", "content", truncate(text, 100))
	s.recordSend(r, "default", chat.JID, text)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Message sent successfully",
		"timestamp": timestamp(),
	})
}

// handleSendTo handles POST /send-to: relay a message to an explicit chat
// named by chatName or chatId.
func (s *Server) handleSendTo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req SendToRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		s.sendError(w, http.StatusBadRequest, "No message content provided")
		return
	}
	if req.ChatName == "" && req.ChatID == "" {
		s.sendError(w, http.StatusBadRequest, "Either chatName or chatId must be provided")
		return
	}

	if !s.session.Ready() {
		s.sendError(w, http.StatusServiceUnavailable, notReadyMessage)
		return
	}

	dest := resolver.Destination{Name: req.ChatName, ID: req.ChatID}
	chat, err := s.session.Send(r.Context(), dest, req.Message)
	if err != nil {
		s.sendSendError(w, err)
		return
	}

	s.logger.Info("message sent to custom chat",
		"destination", dest.String(), "content", truncate(req.Message, 100))
	s.recordSend(r, dest.String(), chat.JID, req.Message)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Message sent successfully",
		"destination": dest.String(),
		"timestamp":   timestamp(),
	})
}

// handleLog handles POST /log: logs the request body and echoes it back.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pretty, _ := json.Marshal(body)
	s.logger.Info("received POST request to /log", "body", string(pretty))

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Body logged successfully",
		"received_data": body,
	})
}

// handleMessages handles GET /messages?limit=N: recent relayed messages
// from the audit log, newest first.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.audit == nil {
		s.sendError(w, http.StatusNotFound, "audit log disabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.sendError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	messages, err := s.audit.RecentSends(r.Context(), limit)
	if err != nil {
		s.logger.Error("error listing messages", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

// handleNotFound answers every unmatched route with the endpoint listing.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Endpoint not found",
		"availableEndpoints": []string{
			"GET /health - Check server and WhatsApp client status",
			"POST /send - Send message to default chat",
			"POST /send-to - Send message to specific chat",
			"POST /log - Log a request body",
			"GET /messages - List recently relayed messages",
		},
	})
}

// sendSendError maps a session send failure to an HTTP response. Readiness
// is re-checked here because the client can drop between the fail-fast check
// and the send.
func (s *Server) sendSendError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotReady) {
		s.sendError(w, http.StatusServiceUnavailable, notReadyMessage)
		return
	}
	s.logger.Error("error sending message via API", "error", err)
	s.sendError(w, http.StatusInternalServerError, err.Error())
}

// recordSend appends to the audit log. Failures are logged, never surfaced:
// the message already went out.
func (s *Server) recordSend(r *http.Request, destination, chatJID, content string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordSend(r.Context(), destination, chatJID, content); err != nil {
		s.logger.Warn("error recording send", "error", err)
	}
}

// messageContent extracts the message from a /send body: first non-empty of
// message, text, content, else the whole body re-serialized.
func messageContent(body map[string]any) string {
	for _, key := range []string{"message", "text", "content"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	raw, err := json.Marshal(body)
	if err != nil || len(body) == 0 {
		return ""
	}
	return string(raw)
}

// truncate shortens a message for log output, cutting on rune boundaries so
// multi-byte content is never split mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
