package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"qchat/internal/chat"
	"qchat/pkg/logger"
)

const (
	streamPollInterval = 2 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// StreamHandler pushes new messages over a websocket. It is a server-side
// poll of the same read path the HTTP poll endpoint uses, so self-destruct
// evaluation and read marking happen identically on both surfaces.
type StreamHandler struct {
	service  *chat.Service
	upgrader websocket.Upgrader
	logger   logger.Logger
}

func NewStreamHandler(service *chat.Service, log logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Stream upgrades the connection and forwards message batches as they appear.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if _, err := h.service.GetSession(r.Context(), code); err != nil {
		respondDomainError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{
			"session_code": code,
			"error":        err.Error(),
		})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: we expect no client messages, but reading is what surfaces
	// the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	var lastID int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			list, err := h.service.GetMessages(ctx, code, lastID)
			if err != nil {
				h.logger.Error("stream poll failed", map[string]interface{}{
					"session_code": code,
					"error":        err.Error(),
				})
				return
			}
			if len(list.Messages) == 0 {
				continue
			}

			lastID = list.Messages[len(list.Messages)-1].ID

			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(list); err != nil {
				return
			}
		}
	}
}
