package notification

import (
	"encoding/json"
	"log"
	"net/http"
)

// Handler exposes the inbox feed over HTTP for the dashboard
type Handler struct {
	inbox *Inbox
}

// NewHandler creates a handler over the given inbox
func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// RegisterRoutes registers the notification routes on the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/notifications - list recent notifications
	// GET /api/notifications?user=<id> - filter by user
	mux.HandleFunc("/api/notifications", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	var messages []Message
	if user := r.URL.Query().Get("user"); user != "" {
		messages = h.inbox.ForUser(user)
	} else {
		messages = h.inbox.Recent()
	}
	if messages == nil {
		messages = []Message{}
	}
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		log.Printf("Error encoding notifications response: %v", err)
	}
}
