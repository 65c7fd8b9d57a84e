package bus

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const maxMessageBytes = 8 << 20

// HTTPHandler serves the message contract at POST /messages.
type HTTPHandler struct {
	bus     MessageBus
	timeout time.Duration
}

// NewHTTPHandler creates an HTTP handler. Each message runs under timeout
// when it is positive.
func NewHTTPHandler(bus MessageBus, timeout time.Duration) *HTTPHandler {
	return &HTTPHandler{bus: bus, timeout: timeout}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		log.Println("json.NewDecoder.Decode failed", err)
		http.Error(w, "Unable to decode message", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	reply := h.bus.Dispatch(ctx, msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		log.Println("json.NewEncoder.Encode failed", err)
	}
}
