package services

import (
	"context"
	"testing"
	"time"
)

type countingPruner struct {
	calls chan int
}

func (p *countingPruner) PruneOlderThan(_ context.Context, days int) (int64, error) {
	select {
	case p.calls <- days:
	default:
	}
	return 0, nil
}

func TestRunRetention(t *testing.T) {
	p := &countingPruner{calls: make(chan int, 16)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunRetention(ctx, p, 30, 10*time.Millisecond)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case days := <-p.calls:
			if days != 30 {
				t.Errorf("days = %d, want 30", days)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("prune %d did not run", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention worker did not stop")
	}
}
