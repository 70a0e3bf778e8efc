package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/embervoice/avatar-agent/core/events"
)

const sessionEventQueueCapacity = 16

type eventQueueItem struct {
	event    events.Event
	queuedAt time.Time
}

// sessionRuntime funnels events from every producer (STT websocket reader,
// room data callbacks, debounce timer fires) into a queue drained by a
// single consumer goroutine. All response policy state is mutated on that
// goroutine only.
type sessionRuntime struct {
	baseContext context.Context
	handle      func(context.Context, events.Event)

	queue   chan eventQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newSessionRuntime() *sessionRuntime {
	return &sessionRuntime{
		baseContext: context.Background(),
		queue:       make(chan eventQueueItem, sessionEventQueueCapacity),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (runtime *sessionRuntime) configure(ctx context.Context, handle func(context.Context, events.Event)) {
	if runtime == nil {
		return
	}

	runtime.baseContext = ctx
	runtime.handle = handle
}

func (runtime *sessionRuntime) start() (started bool) {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		if runtime.isClosed() {
			return
		}

		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case queuedEvent := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					runtime.processQueuedEvent(queuedEvent)
				}
			}
		}()
	})

	return started
}

func (runtime *sessionRuntime) end() {
	if runtime == nil {
		return
	}

	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
	})
}

func (runtime *sessionRuntime) waitUntilEnded() {
	if runtime == nil {
		return
	}

	if runtime.started.Load() {
		<-runtime.done
	}
}

func (runtime *sessionRuntime) enqueue(event events.Event) bool {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	queueItem := eventQueueItem{event: event, queuedAt: time.Now()}
	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- queueItem:
		return true
	}
}

func (runtime *sessionRuntime) isClosed() bool {
	if runtime == nil {
		return false
	}

	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *sessionRuntime) queuedEventCount() int {
	if runtime == nil {
		return 0
	}

	return len(runtime.queue)
}

func (runtime *sessionRuntime) processQueuedEvent(queuedEvent eventQueueItem) {
	if runtime.handle == nil {
		return
	}

	ctx, span := tracer.Start(runtime.baseContext, "process session event")
	defer span.End()

	queuedTime := time.Since(queuedEvent.queuedAt).Seconds()
	span.SetAttributes(
		attribute.String("session_event.kind", string(queuedEvent.event.Kind())),
		attribute.Float64("session_event.queued_time", queuedTime),
		attribute.Int("session_event.queued_events", runtime.queuedEventCount()),
	)

	func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("event handler panicked: %v", recovered)
				span.RecordError(err, trace.WithStackTrace(true))
				span.SetStatus(codes.Error, err.Error())
			}
		}()

		runtime.handle(ctx, queuedEvent.event)
	}()
}
