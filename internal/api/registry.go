package api

import (
	"sync"
	"time"

	"glowcart/internal/cart"
	"glowcart/internal/checkout"
	"glowcart/internal/remote"
)

// engine is the per-user cart machinery: one store, one coordinator, one
// checkout orchestrator.
type engine struct {
	store    *cart.Store
	coord    *cart.Coordinator
	checkout *checkout.Orchestrator
	lastSeen time.Time
}

// Registry hands out one engine per authenticated user, created lazily and
// pruned after idleness.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*engine
	client  remote.Client
	idleTTL time.Duration
}

func NewRegistry(client remote.Client) *Registry {
	r := &Registry{
		engines: make(map[string]*engine),
		client:  client,
		idleTTL: 30 * time.Minute,
	}
	go r.cleanupLoop()
	return r
}

func (r *Registry) engineFor(userID string) *engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.engines[userID]
	if !ok {
		store := cart.NewStore(r.client)
		e = &engine{
			store:    store,
			coord:    cart.NewCoordinator(store, r.client),
			checkout: checkout.NewOrchestrator(store, r.client),
		}
		r.engines[userID] = e
	}
	e.lastSeen = time.Now()
	return e
}

// cleanupLoop drops engines idle past the TTL; the authoritative cart lives
// on the backend, so an evicted user just reloads.
func (r *Registry) cleanupLoop() {
	for {
		time.Sleep(5 * time.Minute)

		r.mu.Lock()
		for userID, e := range r.engines {
			if time.Since(e.lastSeen) > r.idleTTL {
				delete(r.engines, userID)
			}
		}
		r.mu.Unlock()
	}
}
