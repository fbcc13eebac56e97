package queue

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/sellerhub/identity-service/internal/api/metrics"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Sender is the outbound transport for a single notification. The concrete
// transport (SMTP relay, provider API) lives outside this core.
type Sender interface {
	Send(ctx context.Context, to string, kind ports.NotificationKind, data map[string]string) error
}

type notification struct {
	to   string
	kind ports.NotificationKind
	data map[string]string
}

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the recipient, so sends to one address stay ordered. It
// implements ports.Notifier: Send enqueues and returns immediately, making
// delivery fire-and-forget for the flows.
type Dispatcher struct {
	workers []chan notification
	sender  Sender
	log     zerolog.Logger
}

var _ ports.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan notification, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Send enqueues a notification for its recipient's worker. It fails only
// when the worker channel is full; delivery failures are logged by the
// worker, never surfaced here.
func (d *Dispatcher) Send(_ context.Context, to string, kind ports.NotificationKind, data map[string]string) error {
	i := d.shardIndex(to)
	select {
	case d.workers[i] <- notification{to: to, kind: kind, data: data}:
		metrics.NotificationQueueDepth.WithLabelValues(fmt.Sprint(i)).Set(float64(len(d.workers[i])))
		return nil
	default:
		return fmt.Errorf("notification queue full for worker %d", i)
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(fmt.Sprint(id)).Set(float64(len(ch)))
			if err := d.sender.Send(ctx, n.to, n.kind, n.data); err != nil {
				metrics.NotificationsSentTotal.WithLabelValues(string(n.kind), "error").Inc()
				d.log.Error().Err(err).
					Str("to", n.to).
					Str("kind", string(n.kind)).
					Int("worker_id", id).
					Msg("notification delivery failed")
				continue
			}
			metrics.NotificationsSentTotal.WithLabelValues(string(n.kind), "ok").Inc()
		}
	}
}

// LogSender is a Sender that only logs; it stands in where no real email
// transport is configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, to string, kind ports.NotificationKind, data map[string]string) error {
	s.Log.Info().Str("to", to).Str("kind", string(kind)).Fields(map[string]interface{}{"data": data}).Msg("notification (log transport)")
	return nil
}
