package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	var received Event
	var wg sync.WaitGroup
	wg.Add(1)

	unsub := bus.Subscribe(ApprovalRequested, func(e Event) {
		received = e
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: ApprovalRequested, Data: "req-1"})

	// Wait for async delivery
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if received.Type != ApprovalRequested {
			t.Errorf("Expected ApprovalRequested, got %v", received.Type)
		}
		if received.Data != "req-1" {
			t.Errorf("Expected 'req-1', got %v", received.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestBus_SubscribeFiltersOtherTypes(t *testing.T) {
	bus := NewBus()

	var count int32
	unsub := bus.Subscribe(ProcessExited, func(e Event) {
		atomic.AddInt32(&count, 1)
	})
	defer unsub()

	bus.PublishSync(Event{Type: ApprovalRequested})
	bus.PublishSync(Event{Type: FileRead})
	bus.PublishSync(Event{Type: ProcessExited})

	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected 1 delivery, got %d", count)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var count int32
	var wg sync.WaitGroup
	wg.Add(3)

	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: ApprovalRequested, Data: nil})
	bus.Publish(Event{Type: FileEdited, Data: nil})
	bus.Publish(Event{Type: ProcessSpawned, Data: nil})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if atomic.LoadInt32(&count) != 3 {
			t.Errorf("Expected 3 events, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for events")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var count int32
	unsub := bus.Subscribe(FileRead, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.PublishSync(Event{Type: FileRead})
	unsub()
	bus.PublishSync(Event{Type: FileRead})

	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected 1 delivery after unsubscribe, got %d", count)
	}
}

func TestBus_PublishSyncPreservesPayloadType(t *testing.T) {
	bus := NewBus()

	var got ApprovalRequestedData
	unsub := bus.Subscribe(ApprovalRequested, func(e Event) {
		if data, ok := e.Data.(ApprovalRequestedData); ok {
			got = data
		}
	})
	defer unsub()

	bus.PublishSync(Event{
		Type: ApprovalRequested,
		Data: ApprovalRequestedData{RequestID: "r1", Operation: "write", Path: "/tmp/f"},
	})

	if got.RequestID != "r1" || got.Operation != "write" {
		t.Errorf("Payload type should survive delivery, got %+v", got)
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()

	var count int32
	bus.Subscribe(FileRead, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	bus.PublishSync(Event{Type: FileRead})
	if atomic.LoadInt32(&count) != 0 {
		t.Error("A closed bus must not deliver events")
	}

	// Subscribing after close is a no-op
	unsub := bus.Subscribe(FileRead, func(e Event) {})
	unsub()

	// Closing twice is safe
	if err := bus.Close(); err != nil {
		t.Errorf("Second close should not fail: %v", err)
	}
}
