package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/reconcile"
)

// EventsHandler streams background refresh events to connected clients so
// a stale listing can swap itself for the fresh one without polling.
type EventsHandler struct {
	broker *reconcile.Broker
	logger zerolog.Logger
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(broker *reconcile.Broker, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		broker: broker,
		logger: logger.With().Str("component", "events_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *EventsHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *EventsHandler) handleConnection(conn *websocket.Conn) {
	courseID, err := strconv.Atoi(strings.TrimSpace(conn.Query("course_id")))
	if err != nil || courseID <= 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "course_id required"))
		_ = conn.Close()
		return
	}

	user := fmt.Sprint(conn.Locals("user"))
	events, cancel := h.broker.Subscribe(courseID)
	defer cancel()

	h.logger.Info().Str("user", user).Int("course_id", courseID).Msg("event stream connected")
	defer h.logger.Info().Str("user", user).Int("course_id", courseID).Msg("event stream disconnected")

	// The client never sends payloads; the read pump only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.Close()
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				_ = conn.Close()
				return
			}
		case <-closed:
			return
		}
	}
}
