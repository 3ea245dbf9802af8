package mavconn

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAsyncTxSuccess(t *testing.T) {
	var sent atomic.Int64
	ax := newAsyncTx(context.Background(), 4, func(b []byte) error {
		sent.Add(1)
		return nil
	}, nil, nil)
	defer ax.close()
	for i := 0; i < 3; i++ {
		if err := ax.enqueue([]byte{byte(i)}); err != nil {
			t.Fatalf("unexpected enqueue error: %v", err)
		}
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && sent.Load() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	if sent.Load() != 3 {
		t.Fatalf("expected 3 sent, got %d", sent.Load())
	}
}

func TestAsyncTxOverflowInvokesOnDrop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var drops atomic.Int64
	picked := make(chan struct{}, 1)
	ax := newAsyncTx(ctx, 1, func(b []byte) error { picked <- struct{}{}; time.Sleep(150 * time.Millisecond); return nil }, nil, func() { drops.Add(1) })
	defer ax.close()
	if err := ax.enqueue([]byte{1}); err != nil {
		t.Fatalf("unexpected error enqueueing first: %v", err)
	}
	<-picked // the writer now holds frame 1, so frame 2 fills the 1-slot queue
	if err := ax.enqueue([]byte{2}); err != nil {
		t.Fatalf("unexpected error enqueueing second: %v", err)
	}
	if err := ax.enqueue([]byte{3}); err != nil {
		t.Fatalf("unexpected error on overflow (drop is silent): %v", err)
	}
	if drops.Load() != 1 {
		t.Fatalf("expected 1 drop, got %d", drops.Load())
	}
}

func TestAsyncTxSendErrorInvokesOnError(t *testing.T) {
	var errs atomic.Int64
	ax := newAsyncTx(context.Background(), 2, func(b []byte) error { return errBoom }, func(error) { errs.Add(1) }, nil)
	defer ax.close()
	_ = ax.enqueue([]byte{1})
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && errs.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if errs.Load() == 0 {
		t.Fatalf("expected error hook invocation")
	}
}

func TestAsyncTxRejectsEnqueueAfterClose(t *testing.T) {
	ax := newAsyncTx(context.Background(), 2, func(b []byte) error { return nil }, nil, nil)
	ax.close()
	if err := ax.enqueue([]byte{1}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
