package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sellerhub/identity-service/internal/core/ports"
	"github.com/sellerhub/identity-service/pkg/logger"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
	want int
}

func newCapturingSender(want int) *capturingSender {
	return &capturingSender{done: make(chan struct{}), want: want}
}

func (s *capturingSender) Send(_ context.Context, to string, kind ports.NotificationKind, _ map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, fmt.Sprintf("%s/%s", to, kind))
	if len(s.sent) == s.want {
		close(s.done)
	}
	return nil
}

func (s *capturingSender) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func TestDispatcherDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := newCapturingSender(3)
	d := NewDispatcher(2, sender, logger.Nop())
	d.Start(ctx)

	for i := 0; i < 3; i++ {
		if err := d.Send(ctx, "seller@example.com", ports.NotificationVerificationCode, map[string]string{"n": fmt.Sprint(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}

	if got := len(sender.all()); got != 3 {
		t.Fatalf("expected 3 deliveries, got %d", got)
	}
}

func TestDispatcherShardIsStable(t *testing.T) {
	d := NewDispatcher(4, newCapturingSender(0), logger.Nop())

	first := d.shardIndex("seller@example.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("seller@example.com") != first {
			t.Fatal("same recipient must always map to the same worker")
		}
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	// One worker, never started, so the buffer fills and stays full.
	d := NewDispatcher(1, newCapturingSender(0), logger.Nop())
	ctx := context.Background()

	var err error
	for i := 0; i <= channelBuffer; i++ {
		err = d.Send(ctx, "seller@example.com", ports.NotificationVerificationCode, nil)
		if err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("expected a queue-full error once the buffer is exhausted")
	}
}
