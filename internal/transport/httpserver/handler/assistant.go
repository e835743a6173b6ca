package handler

import (
	"net/http"
	"strings"

	"medminder-go/internal/assistant"
)

type assistantRequest struct {
	Message string `json:"message"`
}

type assistantResponse struct {
	Reply string `json:"reply"`
}

func (h *Handlers) AssistantGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, assistantResponse{Reply: assistant.Greeting})
}

func (h *Handlers) AssistantMessage(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	writeJSON(w, http.StatusOK, assistantResponse{Reply: assistant.Reply(req.Message)})
}
