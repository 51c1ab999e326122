package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// serialBus gives deterministic dispatch order for lifecycle assertions.
func serialBus(t *testing.T) *ChannelEventBus {
	t.Helper()
	eb := NewChannelEventBus(WithBufferSize(16), WithWorkerCount(1))
	t.Cleanup(func() { eb.Close() })
	return eb
}

func TestLifecycleDispatchOrder(t *testing.T) {
	eb := serialBus(t)

	lifecycle := []EventType{
		EventMaterializationStarted,
		EventDatasetResolved,
		EventModelResolved,
		EventNotebookAssembled,
		EventMaterializationSuccess,
	}

	var mu sync.Mutex
	var seen []EventType
	done := make(chan struct{})
	_, err := eb.SubscribeAll(func(ctx context.Context, event Event) error {
		mu.Lock()
		seen = append(seen, event.Type())
		mu.Unlock()
		if event.Type() == EventMaterializationSuccess {
			close(done)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeAll failed: %v", err)
	}

	for _, typ := range lifecycle {
		if err := eb.Publish(context.Background(), NewEvent(typ, nil, "test", nil)); err != nil {
			t.Fatalf("Publish(%s) failed: %v", typ, err)
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lifecycle never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(lifecycle, seen); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribeFiltersByType(t *testing.T) {
	eb := serialBus(t)

	failures := make(chan EventType, 4)
	_, err := eb.Subscribe([]EventType{EventMaterializationFailure}, func(ctx context.Context, event Event) error {
		failures <- event.Type()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for _, typ := range []EventType{
		EventMaterializationStarted,
		EventDatasetResolved,
		EventMaterializationFailure,
	} {
		if err := eb.Publish(context.Background(), NewEvent(typ, nil, "test", nil)); err != nil {
			t.Fatalf("Publish(%s) failed: %v", typ, err)
		}
	}

	select {
	case typ := <-failures:
		if typ != EventMaterializationFailure {
			t.Errorf("got %s, want %s", typ, EventMaterializationFailure)
		}
	case <-time.After(time.Second):
		t.Fatal("failure event never delivered")
	}
	select {
	case typ := <-failures:
		t.Errorf("unexpected delivery of %s to a failure-only subscriber", typ)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	eb := serialBus(t)

	delivered := make(chan struct{}, 2)
	id, err := eb.Subscribe([]EventType{EventPlanSanitized}, func(ctx context.Context, event Event) error {
		delivered <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := eb.Publish(context.Background(), NewEvent(EventPlanSanitized, nil, "test", nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("subscribed handler never ran")
	}

	if err := eb.Unsubscribe(id); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if err := eb.Publish(context.Background(), NewEvent(EventPlanSanitized, nil, "test", nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	select {
	case <-delivered:
		t.Error("handler ran after Unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	eb := serialBus(t)

	healthy := make(chan struct{}, 1)
	if _, err := eb.Subscribe([]EventType{EventSystemError}, func(ctx context.Context, event Event) error {
		return fmt.Errorf("observer broke")
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := eb.SubscribeAll(func(ctx context.Context, event Event) error {
		healthy <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("SubscribeAll failed: %v", err)
	}

	if err := eb.Publish(context.Background(), NewEvent(EventSystemError, nil, "test", nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	select {
	case <-healthy:
	case <-time.After(time.Second):
		t.Fatal("healthy handler starved by a failing one")
	}
}

func TestCancelledContextSkipsDelivery(t *testing.T) {
	eb := serialBus(t)

	delivered := make(chan struct{}, 1)
	if _, err := eb.SubscribeAll(func(ctx context.Context, event Event) error {
		delivered <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("SubscribeAll failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context may be rejected at Publish or dropped at dispatch;
	// the handler must not run either way.
	if err := eb.Publish(ctx, NewEvent(EventMaterializationStarted, nil, "test", nil)); err != nil && err != context.Canceled {
		t.Fatalf("Publish failed: %v", err)
	}
	select {
	case <-delivered:
		t.Error("handler ran for a cancelled publish")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClosedBusRejectsUse(t *testing.T) {
	eb := NewChannelEventBus(WithBufferSize(1), WithWorkerCount(1))
	if err := eb.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := eb.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	if err := eb.Publish(context.Background(), NewEvent(EventSystemInfo, nil, "test", nil)); err == nil {
		t.Error("Publish on a closed bus should fail")
	}
	if _, err := eb.Subscribe([]EventType{EventSystemInfo}, func(ctx context.Context, event Event) error { return nil }); err == nil {
		t.Error("Subscribe on a closed bus should fail")
	}
	if _, err := eb.SubscribeAll(func(ctx context.Context, event Event) error { return nil }); err == nil {
		t.Error("SubscribeAll on a closed bus should fail")
	}
}
