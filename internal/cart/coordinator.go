package cart

import (
	"context"
	"fmt"
	"sync"

	"glowcart/internal/logger"
	"glowcart/internal/metrics"
	"glowcart/internal/remote"

	"go.uber.org/zap"
)

// Coordinator turns user intents (quantity change, delete, select) into an
// optimistic local update, a remote call, and a reconciliation of the
// remote result.
//
// Every mutation targeting an item gets a monotonically increasing per-item
// sequence number. A reply for sequence n that arrives after sequence n+1
// was applied is discarded: an out-of-order network response never
// overwrites newer local intent. Mutations that resolve after a newer full
// load completed are discarded the same way.
type Coordinator struct {
	mu     sync.Mutex
	store  *Store
	client remote.Client
	seq    map[string]uint64
}

func NewCoordinator(store *Store, client remote.Client) *Coordinator {
	return &Coordinator{
		store:  store,
		client: client,
		seq:    make(map[string]uint64),
	}
}

// SetQuantity applies a quantity change optimistically, patches the backend,
// and keeps the server-acknowledged value. Quantity zero removes the item
// (and its selection membership) via the delete endpoint. On remote failure
// the optimistic value is rolled back to the last known-good state and the
// error is returned.
func (c *Coordinator) SetQuantity(ctx context.Context, itemID string, quantity int64) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return c.Delete(ctx, []string{itemID})
	}

	log := logger.FromCtx(ctx).With(
		zap.String("op", "Coordinator.SetQuantity"),
		zap.String("item_id", itemID),
		zap.Int64("quantity", quantity),
	)

	c.mu.Lock()
	prev, gen, err := c.store.beginQuantityMutation(itemID, quantity)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	seq := c.nextSeqLocked(itemID)
	c.mu.Unlock()

	acked, err := c.client.UpdateItemQuantity(ctx, itemID, quantity)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Generation() != gen {
		log.Info("Discarding mutation result: snapshot reloaded", zap.Uint64("seq", seq))
		metrics.StaleRepliesDiscarded.Inc()
		return nil
	}
	if c.seq[itemID] != seq {
		log.Info("Discarding stale quantity reply", zap.Uint64("seq", seq))
		metrics.StaleRepliesDiscarded.Inc()
		return nil
	}

	if err != nil {
		// Roll back to last known-good rather than keeping an unconfirmed
		// optimistic value.
		_ = c.store.ApplyQuantity(itemID, prev.Quantity)
		metrics.MutationRollbacks.Inc()
		log.Error("Quantity update failed, rolled back", zap.Error(err))
		return fmt.Errorf("failed to update quantity: %w", err)
	}

	if acked != quantity {
		// The backend acknowledged a different value (stock clamp etc.);
		// the acknowledged value is what sticks.
		log.Info("Backend acknowledged different quantity", zap.Int64("acked", acked))
		_ = c.store.ApplyQuantity(itemID, acked)
	}

	metrics.MutationsApplied.WithLabelValues("quantity").Inc()
	return nil
}

// Delete removes items optimistically, calls the backend, and restores the
// removed entries if the call fails.
func (c *Coordinator) Delete(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return ErrNoItemsGiven
	}

	log := logger.FromCtx(ctx).With(
		zap.String("op", "Coordinator.Delete"),
		zap.Strings("item_ids", itemIDs),
	)

	c.mu.Lock()
	seqs := make(map[string]uint64, len(itemIDs))
	for _, id := range itemIDs {
		seqs[id] = c.nextSeqLocked(id)
	}
	removed, gen := c.store.beginRemoval(itemIDs...)
	c.mu.Unlock()

	if len(removed) == 0 {
		return ErrItemNotFound
	}

	err := c.client.DeleteItems(ctx, itemIDs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Generation() != gen {
		log.Info("Discarding deletion result: snapshot reloaded")
		metrics.StaleRepliesDiscarded.Inc()
		return nil
	}

	if err != nil {
		// Restore only entries whose sequence was not superseded while the
		// call was in flight.
		restorable := removed[:0]
		for _, e := range removed {
			if c.seq[e.item.ID] == seqs[e.item.ID] {
				restorable = append(restorable, e)
			}
		}
		c.store.restore(restorable)
		metrics.MutationRollbacks.Inc()
		log.Error("Deletion failed, restored items", zap.Error(err))
		return fmt.Errorf("failed to remove items: %w", err)
	}

	metrics.MutationsApplied.WithLabelValues("delete").Inc()
	return nil
}

// Toggle and ToggleAll are local-only: selection is client-side state and
// never persisted to the backend.

func (c *Coordinator) Toggle(itemID string) error {
	return c.store.Toggle(itemID)
}

func (c *Coordinator) ToggleAll(selectAll bool) {
	c.store.ToggleAll(selectAll)
}

func (c *Coordinator) nextSeqLocked(itemID string) uint64 {
	c.seq[itemID]++
	return c.seq[itemID]
}
