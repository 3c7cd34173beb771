package services

import (
	"context"
	"time"

	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
	"github.com/yungbote/lms-backend/internal/realtime/bus"
)

// EventService publishes committed changes. Publishing never fails the caller.
type EventService interface {
	Publish(ctx context.Context, evt realtime.Event)
}

type eventService struct {
	log *logger.Logger
	bus bus.Bus
}

// NewEventService accepts a nil bus, in which case events are dropped.
func NewEventService(log *logger.Logger, b bus.Bus) EventService {
	return &eventService{log: log.With("service", "EventService"), bus: b}
}

func (s *eventService) Publish(ctx context.Context, evt realtime.Event) {
	if s == nil || s.bus == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctxutil.Default(ctx)), 2*time.Second)
	defer cancel()
	if err := s.bus.Publish(pubCtx, evt); err != nil {
		s.log.Warn("Event publish failed", append(ctxutil.LogFields(ctx), "type", evt.Type, "error", err)...)
	}
}
