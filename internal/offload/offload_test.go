package offload

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDoBoundsConcurrency(t *testing.T) {
	gate := NewWithLimit(zap.NewNop(), 2)

	var running, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.Do(context.Background(), func() ([]byte, error) {
				n := atomic.AddInt64(&running, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt64(&running, -1)
				return []byte("ok"), nil
			})
			if err != nil {
				t.Errorf("do: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&peak); got > 2 {
		t.Fatalf("expected at most 2 concurrent jobs, saw %d", got)
	}
}

func TestDoPropagatesJobResult(t *testing.T) {
	gate := NewWithLimit(zap.NewNop(), 1)

	out, err := gate.Do(context.Background(), func() ([]byte, error) {
		return []byte("payload"), nil
	})
	if err != nil || string(out) != "payload" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}

	wantErr := errors.New("encode failed")
	_, err = gate.Do(context.Background(), func() ([]byte, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Fatalf("expected job error, got %v", err)
	}
}

func TestRunSharesSlotBudget(t *testing.T) {
	gate := NewWithLimit(zap.NewNop(), 1)

	release := make(chan struct{})
	started := make(chan struct{})
	go gate.Do(context.Background(), func() ([]byte, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := gate.Run(ctx, func() error { return nil }); err == nil {
		t.Fatal("expected Run to queue behind the occupied slot")
	}
	close(release)

	wantErr := errors.New("parse failed")
	if err := gate.Run(context.Background(), func() error { return wantErr }); err != wantErr {
		t.Fatalf("expected job error, got %v", err)
	}
}

func TestDoHonorsContext(t *testing.T) {
	gate := NewWithLimit(zap.NewNop(), 1)

	release := make(chan struct{})
	go gate.Do(context.Background(), func() ([]byte, error) {
		<-release
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := gate.Do(ctx, func() ([]byte, error) { return nil, nil })
	if err == nil {
		t.Fatal("expected context error while gate is full")
	}
	close(release)
}
