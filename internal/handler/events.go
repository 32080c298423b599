package handler

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

const heartbeatInterval = 30 * time.Second

// RealtimeService hands out per-user event subscriptions
type RealtimeService interface {
	Subscribe(ctx context.Context, userID uuid.UUID) *service.Subscriber
	Unsubscribe(id string)
	SubscriberCount(userID uuid.UUID) int
}

// EventsHandler handles Server-Sent Events endpoints
type EventsHandler struct {
	realtime RealtimeService
	logger   *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(realtime RealtimeService, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		realtime: realtime,
		logger:   logger,
	}
}

// StreamEvents handles GET /events/stream
func (h *EventsHandler) StreamEvents(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	sub := h.realtime.Subscribe(c.Context(), a.UserID)
	log := h.logger.With(
		zap.String("user_id", a.UserID.String()),
		zap.String("subscriber_id", sub.ID),
	)
	log.Info("SSE client connected")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer log.Info("SSE client disconnected")

		fmt.Fprintf(w, "event: connected\n")
		fmt.Fprintf(w, "data: {\"subscriberId\":\"%s\"}\n\n", sub.ID)
		if err := w.Flush(); err != nil {
			h.realtime.Unsubscribe(sub.ID)
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-sub.Channel:
				if !ok {
					return
				}
				data, err := service.FormatSSE(event)
				if err != nil {
					log.Error("failed to format SSE event", zap.Error(err))
					continue
				}
				w.Write(data)

			case <-heartbeat.C:
				fmt.Fprintf(w, "event: %s\ndata: {\"at\":\"%s\"}\n\n",
					service.EventTypeHeartbeat, time.Now().UTC().Format(time.RFC3339))

			case <-sub.Done:
				return
			}

			// a failed flush means the client went away
			if err := w.Flush(); err != nil {
				h.realtime.Unsubscribe(sub.ID)
				return
			}
		}
	}))

	return nil
}

// Subscribers handles GET /events/subscribers
func (h *EventsHandler) Subscribers(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, fiber.Map{"count": h.realtime.SubscriberCount(a.UserID)})
}
