package orders

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"hatid/internal/kv"
	"hatid/internal/models"
)

// ErrIllegalTransition is returned before any network call when the actor
// may not move the order from its last confirmed status.
var ErrIllegalTransition = errors.New("orders: illegal status transition")

// ErrUnknownOrder is returned for actions on an order the tracker has never
// observed for this actor.
var ErrUnknownOrder = errors.New("orders: unknown order")

// Tracker polls the order service for one actor's orders, partitions them by
// status and maintains the per-bucket unread flags. It never assumes a
// requested transition succeeded: state only changes when a poll confirms.
type Tracker struct {
	client   *Client
	gateway  kv.Store
	actor    models.Actor
	interval time.Duration

	mu    sync.Mutex
	list  []models.Order
	notif models.NotificationState

	refresh chan struct{}
}

func NewTracker(client *Client, gateway kv.Store, actor models.Actor, interval time.Duration) *Tracker {
	return &Tracker{
		client:   client,
		gateway:  gateway,
		actor:    actor,
		interval: interval,
		notif:    models.NewNotificationState(),
		refresh:  make(chan struct{}, 1),
	}
}

func unreadKey(actorID string) string { return "unread:" + actorID }

// Rehydrate restores persisted unread state so a reload does not re-badge
// everything the buyer already acknowledged.
func (t *Tracker) Rehydrate(ctx context.Context) error {
	var saved models.NotificationState
	err := t.gateway.Get(ctx, unreadKey(t.actor.ID), &saved)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	saved.Normalize()
	t.mu.Lock()
	t.notif = saved
	t.mu.Unlock()
	return nil
}

// Poll runs one synchronous fetch-and-diff step. A bucket the actor has
// acknowledged re-arms only when an order id it has never held appears;
// mutations of already-seen members do not re-arm it.
func (t *Tracker) Poll(ctx context.Context) error {
	list, err := t.client.List(ctx, t.actor)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.list = list
	changed := false
	for _, order := range list {
		bucket := models.BucketFor(order.Status)
		if !t.notif.HasSeen(bucket, order.ID) {
			t.notif.Seen[bucket] = append(t.notif.Seen[bucket], order.ID)
			if !t.notif.Unread[bucket] {
				t.notif.Unread[bucket] = true
			}
			changed = true
		}
	}
	snapshot := t.snapshotNotifLocked()
	t.mu.Unlock()

	if changed {
		t.persistNotif(snapshot)
	}
	return nil
}

// Orders returns the last confirmed snapshot.
func (t *Tracker) Orders() []models.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Order, len(t.list))
	copy(out, t.list)
	return out
}

// ByStatus filters the last confirmed snapshot.
func (t *Tracker) ByStatus(status models.Status) []models.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.Order
	for _, order := range t.list {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out
}

// Buckets partitions the snapshot into the three notification buckets.
func (t *Tracker) Buckets() map[models.Bucket][]models.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[models.Bucket][]models.Order, len(models.Buckets))
	for _, b := range models.Buckets {
		out[b] = nil
	}
	for _, order := range t.list {
		b := models.BucketFor(order.Status)
		out[b] = append(out[b], order)
	}
	return out
}

// Unread returns the current badge flags.
func (t *Tracker) Unread() map[models.Bucket]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[models.Bucket]bool, len(t.notif.Unread))
	for b, v := range t.notif.Unread {
		out[b] = v
	}
	return out
}

// MarkAllRead clears every badge immediately, independent of the next
// poll's content, and persists. Calling it twice in a row is a no-op the
// second time.
func (t *Tracker) MarkAllRead(ctx context.Context) error {
	t.mu.Lock()
	for _, b := range models.Buckets {
		t.notif.Unread[b] = false
	}
	snapshot := t.snapshotNotifLocked()
	t.mu.Unlock()

	return t.gateway.Set(ctx, unreadKey(t.actor.ID), snapshot)
}

// Cancel requests pending -> cancelled on behalf of the buyer (or dispatch)
// and re-polls for confirmation.
func (t *Tracker) Cancel(ctx context.Context, orderID string) error {
	return t.transition(ctx, orderID, models.StatusCancelled, "", "")
}

// Accept requests pending -> assigned for the courier. The candidate lives
// in the unassigned pool rather than the courier's own list, so legality is
// checked against a fresh read of that pool.
func (t *Tracker) Accept(ctx context.Context, orderID string) error {
	pending, err := t.client.Pending(ctx)
	if err != nil {
		return err
	}
	var current models.Status
	found := false
	for _, order := range pending {
		if order.ID == orderID {
			current = order.Status
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownOrder
	}
	if !models.CanTransition(t.actor.Role, current, models.StatusAssigned) {
		return ErrIllegalTransition
	}
	if err := t.client.UpdateStatus(ctx, orderID, models.StatusAssigned, t.actor.ID, t.actor.Name); err != nil {
		return err
	}
	return t.Poll(ctx)
}

// Complete requests assigned -> completed for the courier.
func (t *Tracker) Complete(ctx context.Context, orderID string) error {
	return t.transition(ctx, orderID, models.StatusCompleted, t.actor.ID, t.actor.Name)
}

func (t *Tracker) transition(ctx context.Context, orderID string, to models.Status, riderID, riderName string) error {
	current, ok := t.statusOf(orderID)
	if !ok {
		// The snapshot may simply be stale; confirm before refusing.
		if err := t.Poll(ctx); err != nil {
			return err
		}
		if current, ok = t.statusOf(orderID); !ok {
			return ErrUnknownOrder
		}
	}
	if !models.CanTransition(t.actor.Role, current, to) {
		return ErrIllegalTransition
	}
	if err := t.client.UpdateStatus(ctx, orderID, to, riderID, riderName); err != nil {
		return err
	}
	// The write is not trusted; the confirming read is.
	return t.Poll(ctx)
}

func (t *Tracker) statusOf(orderID string) (models.Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, order := range t.list {
		if order.ID == orderID {
			return order.Status, true
		}
	}
	return "", false
}

// RefreshNow asks the polling loop for an immediate poll. Non-blocking; a
// pending request is enough.
func (t *Tracker) RefreshNow() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

// Run polls on the configured interval and on RefreshNow until ctx is done.
// Tests step the tracker through Poll directly instead of running this.
func (t *Tracker) Run(ctx context.Context) {
	log.Printf("[TRACKER] [INFO] polling started for %s (%s)", t.actor.ID, t.actor.Role)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	if err := t.Poll(ctx); err != nil {
		log.Println("[TRACKER] [WARN] initial poll failed:", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[TRACKER] [INFO] polling stopped for %s", t.actor.ID)
			return
		case <-ticker.C:
			if err := t.Poll(ctx); err != nil {
				log.Println("[TRACKER] [WARN] poll failed:", err)
			}
		case <-t.refresh:
			if err := t.Poll(ctx); err != nil {
				log.Println("[TRACKER] [WARN] refresh poll failed:", err)
			}
		}
	}
}

func (t *Tracker) snapshotNotifLocked() models.NotificationState {
	snapshot := models.NotificationState{
		Unread: make(map[models.Bucket]bool, len(t.notif.Unread)),
		Seen:   make(map[models.Bucket][]string, len(t.notif.Seen)),
	}
	for b, v := range t.notif.Unread {
		snapshot.Unread[b] = v
	}
	for b, ids := range t.notif.Seen {
		snapshot.Seen[b] = append([]string(nil), ids...)
	}
	return snapshot
}

func (t *Tracker) persistNotif(snapshot models.NotificationState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.gateway.Set(ctx, unreadKey(t.actor.ID), snapshot); err != nil {
		log.Println("[TRACKER] [WARN] persisting unread state:", err)
	}
}
