package app

import (
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
	"github.com/yungbote/lms-backend/internal/realtime/bus"
)

// wireBus uses redis when REDIS_ADDR is set so every replica sees every
// event; otherwise events stay in-process.
func wireBus(log *logger.Logger, cfg Config) (bus.Bus, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; using in-process event bus")
		return bus.NewMemoryBus(), nil
	}
	return bus.NewRedisBus(log, bus.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Channel:  cfg.RedisChannel,
	})
}

// eventSink consumes forwarded events: it counts them and records quiz
// outcomes.
func eventSink(log *logger.Logger, m *observability.Metrics) func(realtime.Event) {
	log = log.With("component", "EventSink")
	return func(evt realtime.Event) {
		m.IncDomainEvent(string(evt.Type))
		if evt.Type == realtime.EventQuizAttempted {
			if pct, passed, ok := quizOutcome(evt.Data); ok {
				m.ObserveQuizAttempt(pct, passed)
			}
		}
		log.Debug("Domain event",
			"type", evt.Type,
			"user_id", evt.UserID,
			"course_id", evt.CourseID,
			"at", evt.At,
		)
	}
}

// quizOutcome reads the attempt payload. Events that crossed redis carry
// JSON numbers as float64.
func quizOutcome(data any) (float64, bool, bool) {
	payload, ok := data.(map[string]any)
	if !ok {
		return 0, false, false
	}
	var pct float64
	switch v := payload["percentage"].(type) {
	case float64:
		pct = v
	case int:
		pct = float64(v)
	case int64:
		pct = float64(v)
	default:
		return 0, false, false
	}
	passed, _ := payload["isPassed"].(bool)
	return pct, passed, true
}
