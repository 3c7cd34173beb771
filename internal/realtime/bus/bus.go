package bus

import (
	"context"
	"errors"

	"github.com/yungbote/lms-backend/internal/realtime"
)

var errBusClosed = errors.New("event bus closed")

// Bus fans committed domain events out to forwarders, possibly in other
// processes.
type Bus interface {
	Publish(ctx context.Context, evt realtime.Event) error
	StartForwarder(ctx context.Context, onMsg func(evt realtime.Event)) error
	Close() error
}
