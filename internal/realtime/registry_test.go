package realtime

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Identity{Role: RoleDriver, ID: "d1"}, "ch-1")
	r.Register(Identity{Role: RoleRider, ID: "u1"}, "ch-2")

	if ch, ok := r.Lookup(Identity{Role: RoleDriver, ID: "d1"}); !ok || ch != "ch-1" {
		t.Errorf("expected ch-1, got %q %v", ch, ok)
	}
	if _, ok := r.Lookup(Identity{Role: RoleRider, ID: "d1"}); ok {
		t.Error("driver and rider namespaces must not overlap")
	}
	if id, ok := r.IdentityOf("ch-2"); !ok || id.ID != "u1" || id.Role != RoleRider {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestRegistry_ReconnectLastWriteWins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	d := Identity{Role: RoleDriver, ID: "d1"}
	r.Register(d, "old")
	r.Register(d, "new")

	if ch, _ := r.Lookup(d); ch != "new" {
		t.Errorf("expected new channel, got %s", ch)
	}

	// The stale channel closing later must not evict the live one.
	if _, ok := r.Remove("old"); ok {
		t.Error("expected stale channel to be unknown")
	}
	if ch, ok := r.Lookup(d); !ok || ch != "new" {
		t.Errorf("expected new channel to survive, got %q %v", ch, ok)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 channel, got %d", r.Len())
	}
}

func TestRegistry_RemoveReturnsRemovedIdentity(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Identity{Role: RoleRider, ID: "u1"}, "ch-1")

	id, ok := r.Remove("ch-1")
	if !ok || id.ID != "u1" || id.Role != RoleRider {
		t.Errorf("unexpected removal %+v %v", id, ok)
	}
	if _, ok := r.Remove("ch-1"); ok {
		t.Error("second removal should report none")
	}
	if _, ok := r.Lookup(Identity{Role: RoleRider, ID: "u1"}); ok {
		t.Error("rider should be gone")
	}
}

func TestRegistry_LookupManySkipsAbsent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Identity{Role: RoleRider, ID: "u1"}, "ch-1")
	r.Register(Identity{Role: RoleRider, ID: "u3"}, "ch-3")

	got := r.LookupMany(RoleRider, []string{"u1", "u2", "u3"})
	if len(got) != 2 || got[0] != "ch-1" || got[1] != "ch-3" {
		t.Errorf("unexpected channels %v", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := Identity{Role: RoleRider, ID: fmt.Sprintf("u%d", i)}
			ch := fmt.Sprintf("ch-%d", i)
			r.Register(id, ch)
			r.Lookup(id)
			r.LookupMany(RoleRider, []string{id.ID})
			if i%2 == 0 {
				r.Remove(ch)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 25 {
		t.Errorf("expected 25 channels, got %d", r.Len())
	}
	for i := 0; i < 50; i++ {
		_, ok := r.Lookup(Identity{Role: RoleRider, ID: fmt.Sprintf("u%d", i)})
		if ok != (i%2 == 1) {
			t.Errorf("rider u%d: unexpected presence %v", i, ok)
		}
	}
}
