package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/signalcraft/engine/types"
)

func TestMemoryStore_UpsertConflict(t *testing.T) {
	store := NewMemoryStore()
	rec := SignalRecord{Hash: "abc", StrategyID: "s1", SignalType: types.SignalBuy, Status: StatusPending}

	if err := store.UpsertSignal(context.Background(), rec); err != nil {
		t.Fatalf("First insert returned error: %v", err)
	}
	if err := store.UpsertSignal(context.Background(), rec); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict on duplicate hash, got %v", err)
	}
	if store.SignalCount() != 1 {
		t.Errorf("Expected 1 record, got %d", store.SignalCount())
	}
}

func TestMemoryStore_ConcurrentInsertsOneWinner(t *testing.T) {
	store := NewMemoryStore()
	rec := SignalRecord{Hash: "abc", Status: StatusPending}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.UpsertSignal(context.Background(), rec); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("Expected exactly one winning insert, got %d", created)
	}
	if store.SignalCount() != 1 {
		t.Errorf("Expected 1 record, got %d", store.SignalCount())
	}
}

func TestMemoryStore_MarkDelivered(t *testing.T) {
	store := NewMemoryStore()
	rec := SignalRecord{Hash: "abc", Status: StatusPending, CreatedAt: time.Now()}

	if err := store.UpsertSignal(context.Background(), rec); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := store.MarkDelivered(context.Background(), "abc"); err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}

	got, ok := store.Signal("abc")
	if !ok {
		t.Fatal("Expected record to exist")
	}
	if got.Status != StatusDelivered {
		t.Errorf("Expected status delivered, got %s", got.Status)
	}

	// unknown hash is a no-op
	if err := store.MarkDelivered(context.Background(), "missing"); err != nil {
		t.Errorf("Expected no error for unknown hash, got %v", err)
	}
}
