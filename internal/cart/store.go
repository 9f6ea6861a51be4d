package cart

import (
	"context"
	"sort"
	"sync"

	"glowcart/internal/logger"
	"glowcart/internal/metrics"
	"glowcart/internal/pricing"
	"glowcart/internal/remote"

	"go.uber.org/zap"
)

// Store holds the authoritative-as-known cart snapshot and composes the
// checkout selection. It is the single writer of the snapshot: the
// Coordinator and Load are the only mutation paths, and every reader gets
// copies.
type Store struct {
	mu        sync.Mutex
	client    remote.Client
	snapshot  Snapshot
	selection *SelectionSet

	// loadSeq identifies the newest Load call; a response carrying an older
	// value is discarded.
	loadSeq uint64

	// generation bumps on every successful full load. Mutations begun
	// against an older generation must not touch the new snapshot.
	generation uint64
}

func NewStore(client remote.Client) *Store {
	return &Store{
		client:    client,
		snapshot:  Snapshot{SyncStatus: StatusIdle},
		selection: NewSelectionSet(),
	}
}

// Load fetches the full item list, replaces the snapshot atomically, and
// resets the selection to all-selected. A load started while another is in
// flight supersedes it; the earlier response is discarded and reported as
// ErrLoadSuperseded.
func (s *Store) Load(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(zap.String("op", "CartStore.Load"))

	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.snapshot.SyncStatus = StatusLoading
	s.mu.Unlock()

	payload, err := s.client.FetchCart(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loadSeq {
		metrics.LoadsSuperseded.Inc()
		log.Info("Discarding superseded cart load", zap.Uint64("load_seq", seq))
		return ErrLoadSuperseded
	}

	if err != nil {
		s.snapshot.SyncStatus = StatusError
		s.snapshot.LastError = err.Error()
		log.Error("Cart load failed", zap.Error(err))
		return err
	}

	items := mapRemoteItems(payload.Items)
	s.snapshot = Snapshot{Items: items, SyncStatus: StatusReady}
	s.selection.Reset(itemIDs(items))
	s.generation++

	if payload.Summary != nil {
		// Initial-load hint only. Selection-dependent figures are always
		// recomputed client-side.
		log.Debug("Server summary hint received",
			zap.Int64("server_final_amount", payload.Summary.FinalAmount))
	}

	log.Info("Cart loaded", zap.Int("items", len(items)))
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.snapshot
	cp.Items = append([]Item(nil), s.snapshot.Items...)
	return cp
}

// Pricing recomputes the summary from the currently selected items. The
// result is never cached across a mutation.
func (s *Store) Pricing() pricing.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Compute(PricingLines(s.selectedItemsLocked()))
}

// SelectedItems returns copies of the items currently chosen for checkout,
// in snapshot order.
func (s *Store) SelectedItems() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedItemsLocked()
}

func (s *Store) selectedItemsLocked() []Item {
	out := make([]Item, 0, s.selection.Len())
	for _, it := range s.snapshot.Items {
		if s.selection.IsSelected(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

// Toggle flips selection for one item. Selection is purely client-side
// state; no remote call is made.
func (s *Store) Toggle(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.itemLocked(itemID); !ok {
		return ErrItemNotFound
	}
	s.selection.Toggle(itemID)
	return nil
}

// ToggleAll selects or clears every current item.
func (s *Store) ToggleAll(selectAll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ToggleAll(selectAll, itemIDs(s.snapshot.Items))
}

func (s *Store) IsSelected(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IsSelected(itemID)
}

func (s *Store) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.AllSelected(itemIDs(s.snapshot.Items))
}

func (s *Store) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.selection.IDs()
	sort.Strings(ids)
	return ids
}

// ApplyQuantity writes a quantity into the local snapshot. Quantity zero
// removes the item and prunes its selection membership in the same critical
// section. This is a local write only; reconciliation with the backend is
// the Coordinator's job.
func (s *Store) ApplyQuantity(itemID string, quantity int64) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexLocked(itemID)
	if !ok {
		return ErrItemNotFound
	}

	if quantity == 0 {
		s.removeLocked(itemID)
		return nil
	}

	s.snapshot.Items[idx].Quantity = quantity
	return nil
}

// ApplyDeletion removes the given items and prunes them from the selection.
func (s *Store) ApplyDeletion(itemIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range itemIDs {
		s.removeLocked(id)
	}
}

// Generation identifies the snapshot lineage; it changes when a full load
// replaces the snapshot.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ---- mutation-rollback support (same package, used by the Coordinator) ----

type removedEntry struct {
	item     Item
	index    int
	selected bool
}

func (s *Store) item(itemID string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemLocked(itemID)
}

// beginQuantityMutation captures the item's last known-good state and the
// snapshot generation, then applies the optimistic quantity, all in one
// critical section. A load that completes concurrently either lands before
// the write (and the returned generation is the new one) or after it (and
// wholesale-replaces the snapshot); it can never slip between the capture
// and the apply.
func (s *Store) beginQuantityMutation(itemID string, quantity int64) (Item, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexLocked(itemID)
	if !ok {
		return Item{}, 0, ErrItemNotFound
	}
	prev := s.snapshot.Items[idx]
	s.snapshot.Items[idx].Quantity = quantity
	return prev, s.generation, nil
}

// beginRemoval records current state and removes the items, so a failed
// remote call can restore them. The generation is captured in the same
// critical section as the removal, like beginQuantityMutation.
func (s *Store) beginRemoval(itemIDs ...string) ([]removedEntry, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]removedEntry, 0, len(itemIDs))
	for _, id := range itemIDs {
		idx, ok := s.indexLocked(id)
		if !ok {
			continue
		}
		entries = append(entries, removedEntry{
			item:     s.snapshot.Items[idx],
			index:    idx,
			selected: s.selection.IsSelected(id),
		})
	}
	for _, e := range entries {
		s.removeLocked(e.item.ID)
	}
	return entries, s.generation
}

// restore reinserts previously removed items at their old positions. Only
// called when the snapshot generation is unchanged.
func (s *Store) restore(entries []removedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })
	for _, e := range entries {
		if _, exists := s.indexLocked(e.item.ID); exists {
			continue
		}
		idx := e.index
		if idx > len(s.snapshot.Items) {
			idx = len(s.snapshot.Items)
		}
		s.snapshot.Items = append(s.snapshot.Items, Item{})
		copy(s.snapshot.Items[idx+1:], s.snapshot.Items[idx:])
		s.snapshot.Items[idx] = e.item
		if e.selected {
			s.selection.Toggle(e.item.ID)
		}
	}
}

func (s *Store) itemLocked(itemID string) (Item, bool) {
	if idx, ok := s.indexLocked(itemID); ok {
		return s.snapshot.Items[idx], true
	}
	return Item{}, false
}

func (s *Store) indexLocked(itemID string) (int, bool) {
	for i, it := range s.snapshot.Items {
		if it.ID == itemID {
			return i, true
		}
	}
	return 0, false
}

// removeLocked drops the item and its selection membership together, so no
// reader can observe a dangling selected id.
func (s *Store) removeLocked(itemID string) {
	if idx, ok := s.indexLocked(itemID); ok {
		s.snapshot.Items = append(s.snapshot.Items[:idx], s.snapshot.Items[idx+1:]...)
	}
	s.selection.Prune(itemID)
}
