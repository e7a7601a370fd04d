package compendium

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxTries: 3}

type flakySource struct {
	mu       sync.Mutex
	failures map[Kind]int
	calls    map[Kind]int
	tables   Tables
	block    chan struct{}
}

func (s *flakySource) Fetch(ctx context.Context, kind Kind) (Tables, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return Tables{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[Kind]int{}
	}
	s.calls[kind]++
	if s.failures[kind] > 0 {
		s.failures[kind]--
		return Tables{}, errors.New("transient")
	}
	return Tables{}.with(kind, s.tables), nil
}

func (s *flakySource) callCount(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func testTables() Tables {
	return Tables{
		Weapons: map[string]Weapon{
			"broadsword": {ID: "broadsword", Title: "Broadsword", Slot: WeaponPrimary, DamageDice: "d8"},
		},
		Classes: map[string]Class{
			"guardian": {ID: "guardian", Title: "Guardian", StartingEvasion: 9, StartingHP: 7},
		},
	}
}

func TestStoreNotLoadedBehavesAsNotFound(t *testing.T) {
	store := NewStore(&flakySource{tables: testTables()}, WithRetryPolicy(fastRetry))
	snap := store.Snapshot()
	if snap == nil {
		t.Fatal("expected empty snapshot, got nil")
	}
	if snap.Loaded(KindWeapons) {
		t.Fatal("weapons should not be loaded yet")
	}
	if _, ok := snap.Weapon("broadsword"); ok {
		t.Fatal("lookup before load should report not found")
	}
}

func TestStoreLoadRetriesTransientFailures(t *testing.T) {
	source := &flakySource{tables: testTables(), failures: map[Kind]int{KindWeapons: 2}}
	store := NewStore(source, WithRetryPolicy(fastRetry))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := source.callCount(KindWeapons); got != 3 {
		t.Fatalf("weapon fetches = %d, want 3", got)
	}
	weapon, ok := store.Snapshot().Weapon("broadsword")
	if !ok || weapon.Title != "Broadsword" {
		t.Fatalf("weapon = %+v, %v", weapon, ok)
	}
	for _, kind := range Kinds {
		if !store.Snapshot().Loaded(kind) {
			t.Fatalf("kind %s not loaded", kind)
		}
	}
}

func TestStoreLoadKeepsPartialDataOnExhaustedRetries(t *testing.T) {
	source := &flakySource{tables: testTables(), failures: map[Kind]int{KindClasses: 10}}
	store := NewStore(source, WithRetryPolicy(fastRetry))

	err := store.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for exhausted class fetch")
	}
	snap := store.Snapshot()
	if snap.Loaded(KindClasses) {
		t.Fatal("classes should stay unloaded")
	}
	if _, ok := snap.Weapon("broadsword"); !ok {
		t.Fatal("weapons should still be published")
	}

	source.mu.Lock()
	source.failures[KindClasses] = 0
	source.mu.Unlock()
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if _, ok := store.Snapshot().Class("guardian"); !ok {
		t.Fatal("classes should load on retry")
	}
}

func TestStoreLoadsEachTableOnce(t *testing.T) {
	source := &flakySource{tables: testTables()}
	store := NewStore(source, WithRetryPolicy(fastRetry))
	for i := 0; i < 3; i++ {
		if err := store.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if got := source.callCount(KindWeapons); got != 1 {
		t.Fatalf("weapon fetches = %d, want 1", got)
	}
}

func TestStoreEnsureSharesConcurrentFetch(t *testing.T) {
	source := &flakySource{tables: testTables(), block: make(chan struct{})}
	store := NewStore(source, WithRetryPolicy(fastRetry))

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Ensure(context.Background(), KindWeapons); err != nil {
				failures.Add(1)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(source.block)
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("ensure failures = %d", failures.Load())
	}
	if got := source.callCount(KindWeapons); got != 1 {
		t.Fatalf("weapon fetches = %d, want 1", got)
	}
}

func TestStoreReloadRefetches(t *testing.T) {
	source := &flakySource{tables: testTables()}
	store := NewStore(source, WithRetryPolicy(fastRetry))
	if err := store.Ensure(context.Background(), KindWeapons); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	source.mu.Lock()
	source.tables.Weapons = map[string]Weapon{"dagger": {ID: "dagger", Title: "Dagger"}}
	source.mu.Unlock()

	if err := store.Reload(context.Background(), KindWeapons); err != nil {
		t.Fatalf("reload: %v", err)
	}
	snap := store.Snapshot()
	if _, ok := snap.Weapon("broadsword"); ok {
		t.Fatal("old weapon should be gone after reload")
	}
	if _, ok := snap.Weapon("dagger"); !ok {
		t.Fatal("new weapon should be present after reload")
	}
}

func TestStoreSubscribeNotifiesOnPublish(t *testing.T) {
	store := NewStore(&flakySource{tables: testTables()}, WithRetryPolicy(fastRetry))
	updates, cancel := store.Subscribe()
	defer cancel()

	if err := store.Ensure(context.Background(), KindArmor); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("expected update notification")
	}

	cancel()
	if err := store.Ensure(context.Background(), KindLoot); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	select {
	case <-updates:
		t.Fatal("cancelled subscription should not be notified")
	default:
	}
}

func TestStoreRejectsUnknownKind(t *testing.T) {
	store := NewStore(StaticSource{}, WithRetryPolicy(fastRetry))
	err := store.Ensure(context.Background(), Kind("spells"))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestStaticSourceLoadsAbsentTablesEmpty(t *testing.T) {
	store := NewStore(StaticSource{Tables: testTables()}, WithRetryPolicy(fastRetry))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := store.Snapshot()
	if !snap.Loaded(KindBeastforms) {
		t.Fatal("absent table should load as empty")
	}
	if got := snap.Count(KindBeastforms); got != 0 {
		t.Fatalf("beastform count = %d, want 0", got)
	}
	if got := snap.Count(KindWeapons); got != 1 {
		t.Fatalf("weapon count = %d, want 1", got)
	}
}
